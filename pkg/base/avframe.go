// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

const (
	AvFrameKindVideo uint8 = 1
	AvFrameKindAudio uint8 = 2
)

const (
	AvFrameSubtypeVideoI   uint8 = 1 // IDR
	AvFrameSubtypeVideoP   uint8 = 2 // 非IDR
	AvFrameSubtypeAudioAac uint8 = RtmpSoundFormatAac
)

// AvFrame 编码线程产出、发送线程消费的一帧数据，enqueue后payload的所有权转移给队列
//
// 权威时间戳是PtsSec*1000 + PtsUs/1000（毫秒，32位），PtsMs是冗余字段，便于日志直接打印
type AvFrame struct {
	Kind    uint8
	Subtype uint8
	PtsMs   int64
	PtsSec  int64 // 秒
	PtsUs   int64 // 秒以内的微秒余数，范围[0, 1e6)
	Payload []byte
}

// TimestampMs 按flv tag时间戳字段要求，将AvFrame的pts折算成32位毫秒
func (f AvFrame) TimestampMs() uint32 {
	return uint32(f.PtsSec*1000 + f.PtsUs/1000)
}

// MediaInfo 编码参数快照，在sessionLock/mediaInfoLock保护下拷贝后使用
type MediaInfo struct {
	HasVideo bool
	Sps      []byte
	Pps      []byte
	VideoFps float64

	HasAudio           bool
	AudioSampleRate    int
	AudioChannels      int
	AudioBitsPerSample int
}

// VideoReady 视频是否已具备写AVC sequence header所需的sps/pps
func (mi MediaInfo) VideoReady() bool {
	return mi.HasVideo && len(mi.Sps) > 0 && len(mi.Pps) > 0
}

// AudioReady 音频是否已具备写AAC sequence header所需的采样率
func (mi MediaInfo) AudioReady() bool {
	return mi.HasAudio && mi.AudioSampleRate > 0
}
