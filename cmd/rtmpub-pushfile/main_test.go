// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"

	"github.com/zrtmp/rtmpub/pkg/avc"
)

func TestSplitIntoFrames_GroupsHeadersWithFollowingSlice(t *testing.T) {
	var annexb []byte
	appendNalu := func(nalu []byte) {
		annexb = append(annexb, avc.NaluStartCode...)
		annexb = append(annexb, nalu...)
	}

	sps := []byte{0x67, 1, 2, 3}
	pps := []byte{0x68, 4, 5}
	idr := []byte{0x65, 6}
	p1 := []byte{0x61, 7}
	p2 := []byte{0x61, 8}

	appendNalu(sps)
	appendNalu(pps)
	appendNalu(idr)
	appendNalu(p1)
	appendNalu(p2)

	frames := splitIntoFrames(annexb)
	assert.Equal(t, 3, len(frames))

	naluList0 := avc.SplitAnnexB(frames[0])
	assert.Equal(t, 3, len(naluList0)) // sps+pps+idr归并为第一帧
	assert.Equal(t, sps, naluList0[0])
	assert.Equal(t, pps, naluList0[1])
	assert.Equal(t, idr, naluList0[2])

	naluList1 := avc.SplitAnnexB(frames[1])
	assert.Equal(t, 1, len(naluList1))
	assert.Equal(t, p1, naluList1[0])

	naluList2 := avc.SplitAnnexB(frames[2])
	assert.Equal(t, 1, len(naluList2))
	assert.Equal(t, p2, naluList2[0])
}

func TestSplitIntoFrames_EmptyInput(t *testing.T) {
	assert.Equal(t, 0, len(splitIntoFrames(nil)))
}
