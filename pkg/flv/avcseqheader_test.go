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

func TestBuildAvcSeqHeaderPayload(t *testing.T) {
	sps := []byte{0x67, 0x42, 0x00, 0x1E, 0xAA, 0xBB}
	pps := []byte{0x68, 0xCE, 0x3C, 0x80}

	payload := flv.BuildAvcSeqHeaderPayload(sps, pps)

	assert.Equal(t, uint8(0x17), payload[0]) // key frame | AVC codec id
	assert.Equal(t, uint8(0), payload[1])    // AVC seq header packet type
	assert.Equal(t, []byte{0, 0, 0}, payload[2:5])

	assert.Equal(t, uint8(0x01), payload[5])    // configurationVersion
	assert.Equal(t, sps[1], payload[6])         // profile
	assert.Equal(t, sps[2], payload[7])         // profile compatibility
	assert.Equal(t, sps[3], payload[8])         // level
	assert.Equal(t, uint8(0xFF), payload[9])    // lengthSizeMinusOne
	assert.Equal(t, uint8(0xE1), payload[10])   // numOfSps, high3=1
	spsLen := int(payload[11])<<8 | int(payload[12])
	assert.Equal(t, len(sps), spsLen)
	assert.Equal(t, sps, payload[13:13+len(sps)])

	ppsOffset := 13 + len(sps)
	assert.Equal(t, uint8(0x01), payload[ppsOffset]) // numOfPps
	ppsLen := int(payload[ppsOffset+1])<<8 | int(payload[ppsOffset+2])
	assert.Equal(t, len(pps), ppsLen)
	assert.Equal(t, pps, payload[ppsOffset+3:])
}

func TestBuildAvcSeqHeaderPayload_IncompleteInput_ReturnsNil(t *testing.T) {
	assert.Equal(t, true, flv.BuildAvcSeqHeaderPayload([]byte{0x67}, []byte{0x68}) == nil)
	assert.Equal(t, true, flv.BuildAvcSeqHeaderPayload([]byte{0x67, 0, 0, 0}, nil) == nil)
}
