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

	"github.com/zrtmp/rtmpub/pkg/base"
)

// BuildAvcSeqHeaderPayload 构造flv video tag的payload，内容为AVCDecoderConfigurationRecord
//
// <H.264-AVC-ISO_IEC_14496-15.pdf>, <5.2.4 Decoder configuration information>
// -----------------------------------------------------------------------------
// configurationVersion   [8b]  总是1
// AVCProfileIndication   [8b]  取自sps[1]
// profile_compatibility  [8b]  取自sps[2]
// AVCLevelIndication     [8b]  取自sps[3]
// lengthSizeMinusOne     [8b]  固定0xFF，表示nalu长度字段为4字节(3+1)
// numOfSequenceParameterSets [5b] 固定1，高3位固定为1（即0xE1）
// sequenceParameterSetLength[16b]
// sequenceParameterSetNALUnit
// numOfPictureParameterSets  [8b] 固定1
// pictureParameterSetLength [16b]
// pictureParameterSetNALUnit
func BuildAvcSeqHeaderPayload(sps, pps []byte) []byte {
	if len(sps) < 4 || len(pps) == 0 {
		return nil
	}

	out := make([]byte, 0, 5+11+len(sps)+len(pps))
	out = append(out, base.RtmpAvcKeyFrame, base.RtmpAvcPacketTypeSeqHeader, 0, 0, 0)

	out = append(out, 0x01, sps[1], sps[2], sps[3], 0xFF, 0xE1)
	out = appendBELen16(out, len(sps))
	out = append(out, sps...)

	out = append(out, 0x01)
	out = appendBELen16(out, len(pps))
	out = append(out, pps...)

	return out
}

func appendBELen16(b []byte, length int) []byte {
	var tmp [2]byte
	bele.BEPutUint16(tmp[:], uint16(length))
	return append(b, tmp[:]...)
}
