// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package flv

import (
	"github.com/zrtmp/rtmpub/pkg/base"
)

const (
	adtsHeaderLengthWithCrc    = 9
	adtsHeaderLengthWithoutCrc = 7
)

// isAdts 判断b是否以adts header起始：sync word 0xFFF 占前12位
func isAdts(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xF0 == 0xF0
}

// stripAdts 如果payload前缀是adts header则去除它，否则原样返回
//
// protection_absent是adts header第2字节的最低位，为0表示带2字节crc，header长度为9；为1表示无crc，长度为7
func stripAdts(payload []byte) []byte {
	if !isAdts(payload) {
		return payload
	}
	headerLen := adtsHeaderLengthWithoutCrc
	if payload[1]&0x01 == 0 {
		headerLen = adtsHeaderLengthWithCrc
	}
	if len(payload) < headerLen {
		return payload
	}
	return payload[headerLen:]
}

// soundRateBucket 将采样率映射到flv audio tag的2位SoundRate字段
func soundRateBucket(sampleRate int) uint8 {
	switch {
	case sampleRate <= 11025:
		return 1
	case sampleRate <= 22050:
		return 2
	default:
		return 3
	}
}

// BuildAudioTagPayload 将一帧aac裸数据（可能带adts header）转换成flv audio tag的payload
//
// <spec-video_file_format_spec_v10.pdf>, <Audio tags>, <page 10/48>
func BuildAudioTagPayload(aac []byte, sampleRate, channels int) []byte {
	raw := stripAdts(aac)

	soundType := uint8(0)
	if channels >= 2 {
		soundType = 1
	}
	header := base.RtmpSoundFormatAac<<4 | soundRateBucket(sampleRate)<<2 | 1<<1 | soundType

	out := make([]byte, 2+len(raw))
	out[0] = header
	out[1] = base.RtmpAacPacketTypeRaw
	copy(out[2:], raw)
	return out
}
