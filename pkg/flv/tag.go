// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package flv

import (
	"github.com/q191201771/naza/pkg/bele"
)

// flv tag type, <spec-video_file_format_spec_v10.pdf>, <Tags>, <page 6/48>
const (
	TagTypeAudio    uint8 = 8
	TagTypeVideo    uint8 = 9
	TagTypeMetadata uint8 = 18
)

const (
	TagHeaderSize        = 11
	PrevTagSizeFieldSize = 4
)

// PackTag 将tag header、payload、prev tag size字段打包进一块连续内存，供上层一次write系统调用写出
//
// <spec-video_file_format_spec_v10.pdf>, <The FLV File Format>, <page 8/48>
// ---------------------------------------------------------------------
// TagType           [8b]
// DataSize          [24b] 大端
// Timestamp         [24b] 大端，低24位
// TimestampExtended [8b]  时间戳的高8位，与前面的24位共同构成32位
// StreamID          [24b] 总是0
// Data              [DataSize]
// PrevTagSize       [32b] 大端，等于本tag(含11字节头部)的总长度
func PackTag(tagType uint8, timestampMs uint32, payload []byte) []byte {
	tagSize := TagHeaderSize + len(payload)
	out := make([]byte, tagSize+PrevTagSizeFieldSize)

	out[0] = tagType
	bele.BEPutUint24(out[1:], uint32(len(payload)))
	bele.BEPutUint24(out[4:], timestampMs&0xFFFFFF)
	out[7] = uint8(timestampMs >> 24)
	// out[8:11] StreamID，总是0，make后已经是0值，不需要显式赋值

	copy(out[TagHeaderSize:], payload)

	bele.BEPutUint32(out[tagSize:], uint32(tagSize))
	return out
}

// ModTagTimestamp 原地patch一个已由PackTag打包出的tag的时间戳字段
//
// 用于时间戳钳制场景：tag已经构造完毕，但发送前需要将其时间戳提升到lastTsMs，避免破坏全局单调性
func ModTagTimestamp(tag []byte, timestampMs uint32) {
	bele.BEPutUint24(tag[4:], timestampMs&0xFFFFFF)
	tag[7] = uint8(timestampMs >> 24)
}
