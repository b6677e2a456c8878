// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package flv_test

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"

	"github.com/zrtmp/rtmpub/pkg/flv"
)

func TestPackTag_HeaderAndPrevTagSize(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	tag := flv.PackTag(flv.TagTypeVideo, 0x01020304, payload)

	assert.Equal(t, flv.TagHeaderSize+len(payload)+flv.PrevTagSizeFieldSize, len(tag))
	assert.Equal(t, flv.TagTypeVideo, tag[0])

	// DataSize, 24b大端
	dataSize := int(tag[1])<<16 | int(tag[2])<<8 | int(tag[3])
	assert.Equal(t, len(payload), dataSize)

	// Timestamp: 低24位 + 扩展高8位
	lowTs := uint32(tag[4])<<16 | uint32(tag[5])<<8 | uint32(tag[6])
	highTs := uint32(tag[7])
	assert.Equal(t, uint32(0x01020304), lowTs|highTs<<24)

	// payload位于11字节头后
	assert.Equal(t, payload, tag[flv.TagHeaderSize:flv.TagHeaderSize+len(payload)])

	// PrevTagSize覆盖头+payload的总长
	tagSize := flv.TagHeaderSize + len(payload)
	prevTagSize := uint32(tag[tagSize])<<24 | uint32(tag[tagSize+1])<<16 | uint32(tag[tagSize+2])<<8 | uint32(tag[tagSize+3])
	assert.Equal(t, uint32(tagSize), prevTagSize)
}

func TestModTagTimestamp_PatchesInPlace(t *testing.T) {
	tag := flv.PackTag(flv.TagTypeAudio, 100, []byte{1, 2, 3})
	flv.ModTagTimestamp(tag, 0x01000005)

	lowTs := uint32(tag[4])<<16 | uint32(tag[5])<<8 | uint32(tag[6])
	highTs := uint32(tag[7])
	assert.Equal(t, uint32(0x01000005), lowTs|highTs<<24)
}
