// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package avc

import (
	"bytes"

	"github.com/q191201771/naza/pkg/bele"
)

// startCodeLenAt 返回b开头处start code的长度（3或4），不是start code则返回0
func startCodeLenAt(b []byte) int {
	if len(b) >= 4 && b[0] == 0 && b[1] == 0 && b[2] == 0 && b[3] == 1 {
		return 4
	}
	if len(b) >= 3 && b[0] == 0 && b[1] == 0 && b[2] == 1 {
		return 3
	}
	return 0
}

// SplitAnnexB 将annexb格式的裸流切分成多个nalu（start code被去除）
func SplitAnnexB(b []byte) [][]byte {
	var starts []int
	var scLens []int
	for i := 0; i+2 < len(b); {
		if sc := startCodeLenAt(b[i:]); sc > 0 {
			starts = append(starts, i)
			scLens = append(scLens, sc)
			i += sc
			continue
		}
		i++
	}

	var naluList [][]byte
	for i := range starts {
		begin := starts[i] + scLens[i]
		end := len(b)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if begin < end {
			naluList = append(naluList, b[begin:end])
		}
	}
	return naluList
}

// ExtractSpsPps 从annexb格式的裸流中提取最新的sps和pps
//
// 如果新出现的sps或pps与之前缓存的内容不同（字节级比较），则更新缓存并返回updated=true
//
// @param spsOut/ppsOut 调用前应传入上一次提取到的sps/pps（可以为nil），函数内部会按需更新它们指向的内容
func ExtractSpsPps(annexb []byte, spsOut, ppsOut *[]byte) (updated bool, hasIdr bool) {
	for _, nalu := range SplitAnnexB(annexb) {
		if len(nalu) == 0 {
			continue
		}
		switch CalcNaluType(nalu) {
		case NaluUintTypeSPS:
			if !bytes.Equal(*spsOut, nalu) {
				*spsOut = append([]byte(nil), nalu...)
				updated = true
			}
		case NaluUintTypePPS:
			if !bytes.Equal(*ppsOut, nalu) {
				*ppsOut = append([]byte(nil), nalu...)
				updated = true
			}
		case NaluUnitTypeIDRSlice:
			hasIdr = true
		}
	}
	return
}

// AnnexBToAvcc 将annexb格式的裸流转换成avcc格式（每个nalu前加4字节大端长度，start code被去除）
func AnnexBToAvcc(annexb []byte) []byte {
	naluList := SplitAnnexB(annexb)
	var out bytes.Buffer
	for _, nalu := range naluList {
		_ = bele.WriteBe(&out, uint32(len(nalu)))
		out.Write(nalu)
	}
	return out.Bytes()
}

// AvccToAnnexB 将avcc格式的nalu流转换成annexb格式（每个nalu前加4字节start code）
func AvccToAnnexB(avcc []byte) []byte {
	var out bytes.Buffer
	i := 0
	for i+4 <= len(avcc) {
		naluLen := int(bele.BeUint32(avcc[i:]))
		i += 4
		if i+naluLen > len(avcc) {
			break
		}
		out.Write(NaluStartCode)
		out.Write(avcc[i : i+naluLen])
		i += naluLen
	}
	return out.Bytes()
}
