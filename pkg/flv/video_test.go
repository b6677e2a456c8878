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

	"github.com/zrtmp/rtmpub/pkg/avc"
	"github.com/zrtmp/rtmpub/pkg/base"
	"github.com/zrtmp/rtmpub/pkg/flv"
)

func oneNaluAnnexb(naluType uint8) []byte {
	nalu := []byte{naluType & 0x1F, 0x01, 0x02, 0x03}
	out := append([]byte(nil), avc.NaluStartCode...)
	return append(out, nalu...)
}

func TestBuildVideoTagPayload_KeyFrame(t *testing.T) {
	annexb := oneNaluAnnexb(avc.NaluUnitTypeIDRSlice)
	payload := flv.BuildVideoTagPayload(annexb, true)

	assert.Equal(t, base.RtmpAvcKeyFrame, payload[0])
	assert.Equal(t, base.RtmpAvcPacketTypeNalu, payload[1])
	// composition time始终为0
	assert.Equal(t, []byte{0, 0, 0}, payload[2:5])
}

func TestBuildVideoTagPayload_InterFrame(t *testing.T) {
	annexb := oneNaluAnnexb(avc.NaluUnitTypeSlice)
	payload := flv.BuildVideoTagPayload(annexb, false)

	assert.Equal(t, base.RtmpAvcInterFrame, payload[0])
	assert.Equal(t, base.RtmpAvcPacketTypeNalu, payload[1])
}

func TestBuildVideoTagPayload_EmptyInput_ReturnsNil(t *testing.T) {
	payload := flv.BuildVideoTagPayload(nil, true)
	assert.Equal(t, true, payload == nil)
}
