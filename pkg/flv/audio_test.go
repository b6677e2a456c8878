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

	"github.com/zrtmp/rtmpub/pkg/base"
	"github.com/zrtmp/rtmpub/pkg/flv"
)

func TestBuildAudioTagPayload_StripsAdtsHeader(t *testing.T) {
	raw := []byte{0xAA, 0xBB, 0xCC}
	adts := append([]byte{0xFF, 0xF1, 0, 0, 0, 0, 0}, raw...) // protection_absent=1 -> 7字节header

	payload := flv.BuildAudioTagPayload(adts, 44100, 2)

	assert.Equal(t, uint8(base.RtmpSoundFormatAac<<4|3<<2|1<<1|1), payload[0])
	assert.Equal(t, base.RtmpAacPacketTypeRaw, int(payload[1]))
	assert.Equal(t, raw, payload[2:])
}

func TestBuildAudioTagPayload_RawPassthroughWithoutAdts(t *testing.T) {
	raw := []byte{0x11, 0x22, 0x33}
	payload := flv.BuildAudioTagPayload(raw, 16000, 1)

	assert.Equal(t, raw, payload[2:])
	// soundType为0(mono)，soundRate bucket应为2(<=22050)
	assert.Equal(t, uint8(base.RtmpSoundFormatAac<<4|2<<2|1<<1|0), payload[0])
}
