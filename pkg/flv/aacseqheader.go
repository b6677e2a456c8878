// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package flv

import (
	"github.com/zrtmp/rtmpub/pkg/aac"
	"github.com/zrtmp/rtmpub/pkg/base"
)

const aacObjectTypeLC = 2

// BuildAacSeqHeaderPayload 构造flv audio tag的payload，内容为AudioSpecificConfig
//
// profile固定为AAC-LC(objectType=2)，channelConfig取声道数，小于1时钳制到1（单声道），大于7时不做钳制
//
// 采样率在13个标准值表之外时返回nil，调用方应跳过该次头部发送
func BuildAacSeqHeaderPayload(sampleRate, channels int) []byte {
	sfIndex, err := aac.GetSamplingFrequencyIndex(sampleRate)
	if err != nil {
		return nil
	}

	chanCfg := uint8(channels)
	if chanCfg < 1 {
		chanCfg = 1
	}

	ascCtx := aac.AscContext{
		AudioObjectType:        aacObjectTypeLC,
		SamplingFrequencyIndex: sfIndex,
		ChannelConfiguration:   chanCfg,
	}
	asc := ascCtx.Pack()

	soundType := uint8(0)
	if channels >= 2 {
		soundType = 1
	}
	header := base.RtmpSoundFormatAac<<4 | soundRateBucket(sampleRate)<<2 | 1<<1 | soundType

	out := make([]byte, 2+len(asc))
	out[0] = header
	out[1] = base.RtmpAacPacketTypeSeqHeader
	copy(out[2:], asc)
	return out
}
