// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package flv

import (
	"github.com/zrtmp/rtmpub/pkg/avc"
	"github.com/zrtmp/rtmpub/pkg/base"
)

// BuildVideoTagPayload 将annexb格式的一个video access unit转换成flv video tag的payload
//
// <spec-video_file_format_spec_v10.pdf>, <Video tags>, <page 17/48>
// -----------------------------------------------------------------
// FrameType    [4b] 1=key frame  2=inter frame
// CodecID      [4b] 7=AVC
// AVCPacketType[8b] 1=NALU
// CompositionTime[24b] 总是0，我们不支持B帧
// Data = AVCC格式的nalu流
//
// annexb为空时返回nil（调用方应将其视为no-op，不写tag）
func BuildVideoTagPayload(annexb []byte, isKeyFrame bool) []byte {
	avcc := avc.AnnexBToAvcc(annexb)
	if len(avcc) == 0 {
		return nil
	}

	frameType := uint8(base.RtmpFrameTypeInter)
	if isKeyFrame {
		frameType = base.RtmpFrameTypeKey
	}

	out := make([]byte, 5+len(avcc))
	out[0] = frameType<<4 | base.RtmpCodecIdAvc
	out[1] = base.RtmpAvcPacketTypeNalu
	// out[2:5] composition time，总是0
	copy(out[5:], avcc)
	return out
}
