// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package avc_test

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"

	"github.com/zrtmp/rtmpub/pkg/avc"
)

func buildAnnexb(nalus ...[]byte) []byte {
	var out []byte
	for _, n := range nalus {
		out = append(out, avc.NaluStartCode...)
		out = append(out, n...)
	}
	return out
}

func TestSplitAnnexB(t *testing.T) {
	sps := []byte{0x67, 1, 2, 3}
	pps := []byte{0x68, 4, 5}
	slice := []byte{0x65, 6, 7, 8, 9}
	annexb := buildAnnexb(sps, pps, slice)

	naluList := avc.SplitAnnexB(annexb)
	assert.Equal(t, 3, len(naluList))
	assert.Equal(t, sps, naluList[0])
	assert.Equal(t, pps, naluList[1])
	assert.Equal(t, slice, naluList[2])
}

func TestExtractSpsPps_DetectsChangeAndIdr(t *testing.T) {
	sps := []byte{0x67, 1, 2, 3}
	pps := []byte{0x68, 4, 5}
	idr := []byte{0x65, 6, 7}
	annexb := buildAnnexb(sps, pps, idr)

	var spsOut, ppsOut []byte
	updated, hasIdr := avc.ExtractSpsPps(annexb, &spsOut, &ppsOut)
	assert.Equal(t, true, updated)
	assert.Equal(t, true, hasIdr)
	assert.Equal(t, sps, spsOut)
	assert.Equal(t, pps, ppsOut)

	// 同样的sps/pps再来一次，不应再报告updated
	updated, hasIdr = avc.ExtractSpsPps(annexb, &spsOut, &ppsOut)
	assert.Equal(t, false, updated)
	assert.Equal(t, true, hasIdr)

	// 只含非idr slice时，hasIdr应为false
	nonIdr := []byte{0x61, 9}
	updated, hasIdr = avc.ExtractSpsPps(buildAnnexb(nonIdr), &spsOut, &ppsOut)
	assert.Equal(t, false, updated)
	assert.Equal(t, false, hasIdr)
}

func TestAnnexBToAvcc_AvccToAnnexB_RoundTrip(t *testing.T) {
	sps := []byte{0x67, 1, 2, 3}
	pps := []byte{0x68, 4, 5}
	annexb := buildAnnexb(sps, pps)

	avcc := avc.AnnexBToAvcc(annexb)
	back := avc.AvccToAnnexB(avcc)

	assert.Equal(t, annexb, back)
}
