// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Command rtmpub-pushfile 将一个h264裸流文件（可选配一个s16le pcm文件）推送到rtmp服务器（-r时循环推送），
// 用来驱动pkg/pub.Session跑通整条发布链路
//
// Usage:
// ./bin/rtmpub-pushfile -i test.h264 -a test.pcm -o rtmp://push.xxx.com/live/test
// ./bin/rtmpub-pushfile -c pushfile.yaml
package main

import (
	"flag"
	"os"
	"time"

	"github.com/zrtmp/rtmpub/pkg/avc"
	"github.com/zrtmp/rtmpub/pkg/base"
	"github.com/zrtmp/rtmpub/pkg/pub"
)

func main() {
	cfg := parseFlagAndConfig()

	base.LogoutStartInfo()

	h264Data, err := os.ReadFile(cfg.H264FileName)
	if err != nil {
		base.Log.Fatalf("read h264 file failed. file=%s err=%+v", cfg.H264FileName, err)
	}
	frames := splitIntoFrames(h264Data)
	if len(frames) == 0 {
		base.Log.Fatalf("no nalu found in h264 file. file=%s", cfg.H264FileName)
	}
	base.Log.Infof("read h264 file succ. file=%s, frames=%d", cfg.H264FileName, len(frames))

	var pcmData []byte
	if cfg.PcmFileName != "" {
		pcmData, err = os.ReadFile(cfg.PcmFileName)
		if err != nil {
			base.Log.Fatalf("read pcm file failed. file=%s err=%+v", cfg.PcmFileName, err)
		}
		base.Log.Infof("read pcm file succ. file=%s, bytes=%d", cfg.PcmFileName, len(pcmData))
	}

	session := pub.NewSession(func(option *pub.Option) {
		option.AacFrameSize = cfg.AacFrameSize
		option.AacBitrateKbps = cfg.AacBitrateKbps
	})
	session.SetCallback(func(n pub.Notification) {
		base.Log.Infof("[%s] state changed. state=%s", session.UniqueKey(), n)
	})

	if err := session.Connect(cfg.RtmpPushUrl); err != nil {
		base.Log.Fatalf("connect failed. url=%s err=%+v", cfg.RtmpPushUrl, err)
	}
	defer session.Release()

	if pcmData != nil {
		go pushPcmLoop(session, pcmData, cfg)
	}

	const videoFps = 25
	frameInterval := time.Second / videoFps

	if pcmData == nil {
		// 纯视频推流：没有音频生产者触发自动InitMetadata，这里从文件中取出sps/pps后直接调用
		var sps, pps []byte
		for _, frame := range frames {
			avc.ExtractSpsPps(frame, &sps, &pps)
			if len(sps) > 0 && len(pps) > 0 {
				break
			}
		}
		session.InitMetadata(base.MediaInfo{HasVideo: true, Sps: sps, Pps: pps, VideoFps: videoFps})
	}

	for {
		for _, frame := range frames {
			session.PushVideoFrame(frame)
			time.Sleep(frameInterval)
		}
		if !cfg.Recursive {
			break
		}
	}
}

// pushPcmLoop 独立的音频生产者：按20ms一帧的节奏切分pcm文件推送一遍；Recursive为true时循环推送，直至进程退出
//
// 与视频循环各自独立节拍，互不等待——对应发布会话的多生产者模型
func pushPcmLoop(session *pub.Session, pcmData []byte, cfg *Config) {
	const chunkMs = 20
	bytesPerSample := 2 * cfg.PcmChannels
	chunkBytes := cfg.PcmSampleRate * chunkMs / 1000 * bytesPerSample
	if chunkBytes <= 0 {
		return
	}
	chunkInterval := chunkMs * time.Millisecond

	for {
		for i := 0; i+chunkBytes <= len(pcmData); i += chunkBytes {
			if err := session.PushAudioPcm(pcmData[i:i+chunkBytes], cfg.PcmSampleRate, cfg.PcmChannels); err != nil {
				base.Log.Errorf("push audio pcm failed. err=%+v", err)
				return
			}
			time.Sleep(chunkInterval)
		}
		if !cfg.Recursive {
			return
		}
	}
}

// splitIntoFrames 将annexb裸流按access unit切分：把sps/pps/sei等非slice nalu与紧随其后的
// 第一个slice nalu（type 1或5）归并成一帧，遇到下一个slice nalu即视为新的一帧的开始
func splitIntoFrames(annexb []byte) [][]byte {
	naluList := avc.SplitAnnexB(annexb)

	var frames [][]byte
	var cur []byte
	for _, nalu := range naluList {
		if len(nalu) == 0 {
			continue
		}
		cur = append(cur, avc.NaluStartCode...)
		cur = append(cur, nalu...)

		t := avc.CalcNaluType(nalu)
		if t == avc.NaluUnitTypeSlice || t == avc.NaluUnitTypeIDRSlice {
			frames = append(frames, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		frames = append(frames, cur)
	}
	return frames
}

func parseFlagAndConfig() *Config {
	c := flag.String("c", "", "specify yaml config file")
	i := flag.String("i", "", "specify h264 annexb file")
	a := flag.String("a", "", "specify s16le pcm file (optional)")
	o := flag.String("o", "", "specify rtmp push url")
	r := flag.Bool("r", false, "recursive push if reach end of file")
	sr := flag.Int("sr", 0, "pcm sample rate, default 44100")
	ch := flag.Int("ch", 0, "pcm channel count, default 2")
	flag.Parse()

	var cfg *Config
	if *c != "" {
		var err error
		cfg, err = loadConfig(*c)
		if err != nil {
			base.Log.Fatalf("%+v", err)
		}
	} else {
		cfg = &Config{}
		cfg.setDefaults()
	}

	if *i != "" {
		cfg.H264FileName = *i
	}
	if *a != "" {
		cfg.PcmFileName = *a
	}
	if *o != "" {
		cfg.RtmpPushUrl = *o
	}
	if *r {
		cfg.Recursive = true
	}
	if *sr > 0 {
		cfg.PcmSampleRate = *sr
	}
	if *ch > 0 {
		cfg.PcmChannels = *ch
	}

	if cfg.H264FileName == "" || cfg.RtmpPushUrl == "" {
		flag.Usage()
		base.OsExitAndWaitPressIfWindows(1)
	}

	return cfg
}
