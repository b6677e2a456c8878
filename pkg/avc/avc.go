// Copyright 2019, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package avc

import (
	"errors"
)

var ErrAVC = errors.New("lal.avc: fxxk")

var NaluStartCode = []byte{0x0, 0x0, 0x0, 0x1}

const (
	NaluUnitTypeSlice    uint8 = 1
	NaluUnitTypeIDRSlice uint8 = 5
	NaluUintTypeSPS      uint8 = 7
	NaluUintTypePPS      uint8 = 8
)

func CalcNaluType(nalu []byte) uint8 {
	return nalu[0] & 0x1f
}
