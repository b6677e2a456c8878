// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package aacenc 将任意格式的pcm数据适配成带sample-accurate时间戳的aac access unit流
//
// 拉起一个常驻的ffmpeg子进程完成实际的重采样与编码工作：ffmpeg自身的重采样器负责格式/
// 采样率转换，本package只负责维护输入fifo、按帧切分ffmpeg标准输出中的adts流、以及用
// 累计采样数推算pts，不依赖墙上时钟
package aacenc

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/q191201771/naza/pkg/nazalog"

	"github.com/zrtmp/rtmpub/pkg/base"
)

const (
	defaultFrameSize   = 1024 // aac-lc每帧采样数，ffmpeg未显式声明时按该值推算pts
	defaultBitrateKbps = 64
	fifoFrameMultiple  = 4 // fifo容量 = 4 * 一帧所需的字节数

	adtsMinHeaderLength = 7
)

// Callback 编码输出回调
//
// @param frame  adts格式的一帧完整aac数据（含7字节adts header）
// @param length frame的长度
// @param ptsMs/ptsUs 由samplesSent*1e6/sampleRate推算，而非墙上时钟；samplesSent已计入本帧，第n帧为n*frameSize个采样对应的时刻
type Callback func(frame []byte, length int, ptsMs int64, ptsUs int64)

// Encoder 单个推流会话对应一个Encoder实例，非并发安全之外的调用序列为
// Init -> RegisterCallback -> PushPcm(重复) -> Destroy
type Encoder struct {
	mu sync.Mutex

	configuredFrameSize   int // 0表示使用defaultFrameSize
	configuredBitrateKbps int // 0表示使用defaultBitrateKbps

	sampleRate int
	channels   int
	frameSize  int
	bytesPerSample int // 2(S16) * channels

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	cb Callback

	fifo []byte // 已转换为s16le交织格式、等待喂给ffmpeg的pcm数据

	samplesSent int64

	disposeOnce sync.Once
	readDone    chan struct{}
}

// NewEncoder frameSize/bitrateKbps传0使用默认值(1024采样/帧，64kbps)
func NewEncoder(frameSize, bitrateKbps int) *Encoder {
	return &Encoder{
		configuredFrameSize:   frameSize,
		configuredBitrateKbps: bitrateKbps,
	}
}

// Init 懒初始化：首次调用、或输入采样率/声道数发生变化时，重建底层ffmpeg进程
//
// 选择aac-lc，码率取NewEncoder传入的值（传0时为64kbps）；样本格式固定为s16le交织，由调用方（PushPcm）保证转换后符合该格式
func (e *Encoder) Init(sampleRate, channels int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd != nil && e.sampleRate == sampleRate && e.channels == channels {
		return nil
	}
	e.closeLocked()

	frameSize := e.configuredFrameSize
	if frameSize <= 0 {
		frameSize = defaultFrameSize
	}
	bitrateKbps := e.configuredBitrateKbps
	if bitrateKbps <= 0 {
		bitrateKbps = defaultBitrateKbps
	}

	e.sampleRate = sampleRate
	e.channels = channels
	e.frameSize = frameSize
	e.bytesPerSample = 2 * channels
	e.samplesSent = 0
	e.fifo = make([]byte, 0, fifoFrameMultiple*frameSize*e.bytesPerSample)

	cmd := exec.Command("ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-i", "pipe:0",
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		"-f", "adts",
		"pipe:1",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("rtmpub.aacenc: stdin pipe failed. err=%w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("rtmpub.aacenc: stdout pipe failed. err=%w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w. err=%v", base.ErrAacEncNotAvailable, err)
	}

	e.cmd = cmd
	e.stdin = stdin
	e.stdout = stdout
	e.readDone = make(chan struct{})

	go e.readLoop(stdout, e.readDone)

	return nil
}

// RegisterCallback 安装编码帧回调
func (e *Encoder) RegisterCallback(cb Callback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cb = cb
}

// PushPcm 输入一段s16le交织pcm数据
//
// 采样率或声道数与上次调用不同则先重建底层进程（resampler粒度为整个Encoder，而非逐帧）
//
// 转换后的数据先进fifo，fifo攒够一帧（frameSize个采样）就整帧写给ffmpeg，不足一帧的尾部留在
// fifo中等待下次PushPcm补齐，避免喂给ffmpeg变长的、与frameSize不对齐的数据块
func (e *Encoder) PushPcm(pcm []byte, sampleRate, channels int) error {
	if err := e.Init(sampleRate, channels); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil {
		return base.ErrAacEncNotAvailable
	}

	e.fifo = append(e.fifo, pcm...)

	frameBytes := e.frameSize * e.bytesPerSample
	for len(e.fifo) >= frameBytes {
		if _, err := e.stdin.Write(e.fifo[:frameBytes]); err != nil {
			return fmt.Errorf("rtmpub.aacenc: write pcm to ffmpeg failed. err=%w", err)
		}
		e.fifo = e.fifo[frameBytes:]
	}
	return nil
}

// readLoop 从ffmpeg标准输出中按adts帧边界切分完整的aac包，逐包回调
//
// pts不依赖ffmpeg自身的时间戳，完全由本端按已输出的包数*frameSize累计采样数推算，保证单调且无缝隙
func (e *Encoder) readLoop(stdout io.ReadCloser, done chan struct{}) {
	defer close(done)

	br := bufio.NewReaderSize(stdout, 4096)
	header := make([]byte, adtsMinHeaderLength)

	for {
		if _, err := io.ReadFull(br, header[:1]); err != nil {
			return
		}
		if header[0] != 0xFF {
			continue
		}
		if _, err := io.ReadFull(br, header[1:2]); err != nil {
			return
		}
		if header[1]&0xF0 != 0xF0 {
			continue
		}
		if _, err := io.ReadFull(br, header[2:]); err != nil {
			return
		}

		frameLen := (int(header[3]&0x03) << 11) | (int(header[4]) << 3) | (int(header[5]) >> 5)
		if frameLen < adtsMinHeaderLength {
			continue
		}

		frame := make([]byte, frameLen)
		copy(frame, header)
		if _, err := io.ReadFull(br, frame[adtsMinHeaderLength:]); err != nil {
			return
		}

		e.mu.Lock()
		sampleRate := e.sampleRate
		e.samplesSent += int64(e.frameSize)
		samplesSent := e.samplesSent
		cb := e.cb
		e.mu.Unlock()

		if cb == nil || sampleRate == 0 {
			continue
		}
		ptsUs := samplesSent * 1e6 / int64(sampleRate)
		cb(frame, len(frame), ptsUs/1000, ptsUs)
	}
}

// Destroy 释放fifo、关闭管道、结束ffmpeg子进程
func (e *Encoder) Destroy() {
	e.mu.Lock()
	e.closeLocked()
	e.mu.Unlock()
}

func (e *Encoder) closeLocked() {
	if e.cmd == nil {
		return
	}
	if e.stdin != nil {
		_ = e.stdin.Close()
	}
	if e.readDone != nil {
		// readLoop每输出一包都要获取e.mu，等待其退出期间先释放锁，否则ffmpeg在stdin关闭后冲刷的包会使双方互相等待
		e.mu.Unlock()
		<-e.readDone
		e.mu.Lock()
	}
	if err := e.cmd.Wait(); err != nil {
		nazalog.Warnf("aacenc: ffmpeg exited with error. err=%v", err)
	}
	e.cmd = nil
	e.stdin = nil
	e.stdout = nil
	e.fifo = nil
}
