// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package flv

import (
	"bytes"

	"github.com/zrtmp/rtmpub/pkg/base"
	"github.com/zrtmp/rtmpub/pkg/rtmp"
)

// MetadataInfo 构造onMetaData所需的源数据
//
// 字段是否写入onMetaData由调用方按各自含义决定：
// HasVideo为true时才写video相关字段，HasAudio为true时才写audio相关字段；
// HasVideo为true时width/height总是写入（宽高未知时为0）；
// VideoFps为0、或AudioSampleRate/AudioChannels/AudioSampleSize为0时，对应字段被跳过
type MetadataInfo struct {
	HasVideo bool
	Width    int
	Height   int
	VideoFps float64

	HasAudio        bool
	AudioSampleRate int
	AudioChannels   int
	AudioSampleSize int
}

// BuildMetadata 构造onMetaData script tag的payload（不含flv tag header）
//
// <spec-video_file_format_spec_v10.pdf>, <onMetaData>, <page 34/48>
func BuildMetadata(info MetadataInfo) ([]byte, error) {
	out := &bytes.Buffer{}
	if err := rtmp.AMF0.WriteString(out, "onMetaData"); err != nil {
		return nil, err
	}

	var opa rtmp.ObjectPairArray
	if info.HasVideo {
		opa = append(opa, rtmp.ObjectPair{Key: "width", Value: float64(info.Width)})
		opa = append(opa, rtmp.ObjectPair{Key: "height", Value: float64(info.Height)})
		if info.VideoFps > 0 {
			opa = append(opa, rtmp.ObjectPair{Key: "framerate", Value: info.VideoFps})
		}
		opa = append(opa, rtmp.ObjectPair{Key: "videocodecid", Value: float64(base.RtmpCodecIdAvc)})
	}
	if info.HasAudio {
		if info.AudioSampleRate > 0 {
			opa = append(opa, rtmp.ObjectPair{Key: "audiosamplerate", Value: float64(info.AudioSampleRate)})
		}
		if info.AudioChannels > 0 {
			opa = append(opa, rtmp.ObjectPair{Key: "audiochannels", Value: float64(info.AudioChannels)})
		}
		if info.AudioSampleSize > 0 {
			opa = append(opa, rtmp.ObjectPair{Key: "audiosamplesize", Value: float64(info.AudioSampleSize)})
		}
		opa = append(opa, rtmp.ObjectPair{Key: "audiocodecid", Value: float64(base.RtmpSoundFormatAac)})
	}
	opa = append(opa, rtmp.ObjectPair{Key: "videodatarate", Value: float64(0)})
	opa = append(opa, rtmp.ObjectPair{Key: "audiodatarate", Value: float64(0)})

	if err := rtmp.AMF0.WriteEcmaArray(out, opa); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
