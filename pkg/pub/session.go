// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package pub 实现单路推流会话：持有rtmp连接、媒体描述、发布状态机，
// 对上提供Create/SetCallback/InitMetadata/Connect/SendPacket/Release
package pub

import (
	"sync"
	"time"

	"github.com/q191201771/naza/pkg/nazaatomic"

	"github.com/zrtmp/rtmpub/pkg/aacenc"
	"github.com/zrtmp/rtmpub/pkg/avc"
	"github.com/zrtmp/rtmpub/pkg/base"
	"github.com/zrtmp/rtmpub/pkg/flv"
	"github.com/zrtmp/rtmpub/pkg/rtmp"
	"github.com/zrtmp/rtmpub/pkg/sendqueue"
)

// tsUnset lastTsMs的哨兵值，表示会话上还未写出过任何tag
const tsUnset int64 = -1

// BufInfo GetBufInfo的返回值；固定返回零值，不是真实指标，详见规格§9的Open Question
type BufInfo struct {
	VideoQueueLen int
	AudioQueueLen int
}

// Session 单路推流会话，方法集对应规格§4.3的公开契约
//
// sessionLock序列化InitMetadata/Connect/SendPacket/Release；mediaInfoLock单独保护MediaInfo，
// 允许视频/音频生产者线程各自更新sps/pps、音频参数，而不必等待发送线程持有的sessionLock
type Session struct {
	option Option

	uniqueKey string

	sessionLock sync.Mutex
	core        *rtmp.PushSession
	connected   nazaatomic.Bool
	headersSent bool
	lastTsMs    int64

	mediaInfoLock   sync.Mutex
	mediaInfo       base.MediaInfo
	audioConfigured bool // 音频参数是否已经被首个PushAudioPcm记录过，用于§4.6视频侧的触发判断

	cbLock sync.Mutex
	cb     StateCallback

	queue      *sendqueue.Queue
	sender     *sendqueue.Sender
	senderDone chan struct{}

	videoBaseSet  bool
	videoBaseTime time.Time

	enc *aacenc.Encoder
}

// NewSession 创建一个待连接的会话；所有字段取默认值，直到Connect被调用前都不持有任何系统资源
func NewSession(modOptions ...ModOption) *Session {
	opt := defaultOption
	for _, fn := range modOptions {
		fn(&opt)
	}
	return &Session{
		option:    opt,
		uniqueKey: base.GenUKRTMPPushSession(),
		lastTsMs:  tsUnset,
		queue:     sendqueue.New(),
	}
}

func (s *Session) UniqueKey() string {
	return s.uniqueKey
}

// SetCallback 安装状态迁移回调；回调总是在触发迁移的那个线程上同步调用，调用方需保证非阻塞、可重入
func (s *Session) SetCallback(cb StateCallback) {
	s.cbLock.Lock()
	s.cb = cb
	s.cbLock.Unlock()
}

func (s *Session) notify(n Notification) {
	s.cbLock.Lock()
	cb := s.cb
	s.cbLock.Unlock()
	if cb != nil {
		cb(n)
	}
}

// InitMetadata 拷贝info到会话的MediaInfo，设置metadataSet，并重置headersSent——
// 使得一次sps/pps变化会在下一次SendPacket时重新下发AVC sequence header
func (s *Session) InitMetadata(info base.MediaInfo) {
	s.sessionLock.Lock()
	s.mediaInfoLock.Lock()
	s.mediaInfo = info
	s.mediaInfoLock.Unlock()
	s.headersSent = false
	s.sessionLock.Unlock()

	s.queue.SetMetadataInited()
}

// Connect 阻塞直至完成rtmp连接+握手+publish信令，或者返回错误
//
// 内部先清理旧连接，再分配新的PushSession；成功后拉起唯一的发送线程
func (s *Session) Connect(url string) error {
	s.sessionLock.Lock()
	defer s.sessionLock.Unlock()

	if s.core != nil {
		_ = s.core.Dispose()
		s.core = nil
	}
	s.connected.Store(false)
	s.headersSent = false
	s.lastTsMs = tsUnset

	s.notify(NotifyConnecting)

	core := rtmp.NewPushSession(func(option *rtmp.PushSessionOption) {
		option.PushTimeoutMs = s.option.PushTimeoutMs
		option.WriteAvTimeoutMs = s.option.WriteAvTimeoutMs
		option.WriteBufSize = s.option.WriteBufSize
		option.WriteChanSize = s.option.WriteChanSize
		option.HandshakeComplexFlag = s.option.HandshakeComplexFlag
	})
	if err := core.Push(url); err != nil {
		rtmp.Log.Errorf("[%s] connect failed. url=%s, err=%+v", s.uniqueKey, url, err)
		s.notify(NotifyConnectFailed)
		return err
	}

	s.core = core
	s.connected.Store(true)
	s.notify(NotifyConnected)

	s.enc = aacenc.NewEncoder(s.option.AacFrameSize, s.option.AacBitrateKbps)
	s.enc.RegisterCallback(s.onAacEncoded)

	s.sender = sendqueue.NewSender(s.queue, s, s.onSendFailed)
	s.senderDone = make(chan struct{})
	go func() {
		s.sender.Run()
		close(s.senderDone)
	}()

	return nil
}

// SendPacket 实现sendqueue.Sink；唯一的发送线程在其循环中调用
//
// 必要时先下发三段header，再clamp时间戳、编码成flv payload、打包成rtmp chunk写出；
// 写失败时通知ERROR并关闭连接，返回0；成功返回原始编码payload的长度
func (s *Session) SendPacket(frame base.AvFrame) int {
	s.sessionLock.Lock()
	defer s.sessionLock.Unlock()

	if !s.connected.Load() || s.core == nil {
		return 0
	}

	if !s.headersSent {
		if err := s.sendHeadersLocked(); err != nil {
			rtmp.Log.Errorf("[%s] send headers failed. err=%+v", s.uniqueKey, err)
			s.teardownLocked()
			return 0
		}
	}

	tsMs := int64(frame.TimestampMs())
	if tsMs < s.lastTsMs {
		tsMs = s.lastTsMs
	}

	var payload []byte
	var csid int
	var typeId uint8

	switch frame.Kind {
	case base.AvFrameKindVideo:
		payload = flv.BuildVideoTagPayload(frame.Payload, frame.Subtype == base.AvFrameSubtypeVideoI)
		csid, typeId = rtmp.CsidVideo, base.RtmpTypeIdVideo
	case base.AvFrameKindAudio:
		sampleRate, channels := s.audioParamsLocked()
		payload = flv.BuildAudioTagPayload(frame.Payload, sampleRate, channels)
		csid, typeId = rtmp.CsidAudio, base.RtmpTypeIdAudio
	default:
		return 0
	}

	if len(payload) == 0 {
		// 规格§4.3.1: AVCC为空时no-op，不是连接级错误
		return 0
	}

	if err := s.writeTagLocked(csid, typeId, uint32(tsMs), payload); err != nil {
		rtmp.Log.Errorf("[%s] write packet failed. err=%+v", s.uniqueKey, err)
		s.teardownLocked()
		return 0
	}

	s.lastTsMs = tsMs
	return len(frame.Payload)
}

// sendHeadersLocked 依次下发onMetaData、AVC sequence header、AAC sequence header
//
// 三者共用同一个header时间戳hdrTs，取lastTsMs（若已设置）否则0，保证握手tag不会破坏单调性
func (s *Session) sendHeadersLocked() error {
	mi := s.snapshotMediaInfo()

	hdrTs := int64(0)
	if s.lastTsMs != tsUnset {
		hdrTs = s.lastTsMs
	}

	width, height := 0, 0
	if mi.VideoReady() {
		if w, h, err := avc.ParseSpsDimensions(mi.Sps); err == nil {
			width, height = w, h
		}
	}

	metaPayload, err := flv.BuildMetadata(flv.MetadataInfo{
		HasVideo:        mi.VideoReady(),
		Width:           width,
		Height:          height,
		VideoFps:        mi.VideoFps,
		HasAudio:        mi.AudioReady(),
		AudioSampleRate: mi.AudioSampleRate,
		AudioChannels:   mi.AudioChannels,
		AudioSampleSize: mi.AudioBitsPerSample,
	})
	if err != nil {
		return err
	}
	if err := s.writeTagLocked(rtmp.CsidAmf, base.RtmpTypeIdMetadata, uint32(hdrTs), metaPayload); err != nil {
		return err
	}

	if mi.VideoReady() {
		payload := flv.BuildAvcSeqHeaderPayload(mi.Sps, mi.Pps)
		if len(payload) > 0 {
			if err := s.writeTagLocked(rtmp.CsidVideo, base.RtmpTypeIdVideo, uint32(hdrTs), payload); err != nil {
				return err
			}
		}
	}

	if mi.AudioReady() {
		payload := flv.BuildAacSeqHeaderPayload(mi.AudioSampleRate, mi.AudioChannels)
		if len(payload) > 0 {
			if err := s.writeTagLocked(rtmp.CsidAudio, base.RtmpTypeIdAudio, uint32(hdrTs), payload); err != nil {
				return err
			}
		}
	}

	if hdrTs > s.lastTsMs {
		s.lastTsMs = hdrTs
	}
	s.headersSent = true
	s.notify(NotifyPushing)
	return nil
}

func (s *Session) writeTagLocked(csid int, typeId uint8, tsMs uint32, payload []byte) error {
	header := base.RtmpHeader{
		Csid:         csid,
		MsgLen:       uint32(len(payload)),
		MsgTypeId:    typeId,
		MsgStreamId:  rtmp.Msid1,
		TimestampAbs: tsMs,
	}
	chunks := rtmp.Message2Chunks(payload, &header)
	return s.core.Write(chunks)
}

// teardownLocked 写失败后的收尾：通知ERROR、关闭底层连接、复位flags；不关闭发送队列，
// 队列的关闭只在Release中进行，由调用Release的那个（非发送）线程完成，避免sender自己join自己
func (s *Session) teardownLocked() {
	s.notify(NotifyError)
	if s.core != nil {
		_ = s.core.Dispose()
	}
	s.connected.Store(false)
	s.headersSent = false
}

// onSendFailed sendqueue.Sender在SendPacket返回0之后、退出发送循环之前调用；
// 写失败时SendPacket内部已经完成了teardownLocked（未连接、payload为空等其他返回0的情形不做teardown），
// 这里只做日志，不做任何可能引发自join的操作
func (s *Session) onSendFailed() {
	rtmp.Log.Warnf("[%s] sender loop stopped after send failure.", s.uniqueKey)
}

func (s *Session) snapshotMediaInfo() base.MediaInfo {
	s.mediaInfoLock.Lock()
	defer s.mediaInfoLock.Unlock()
	return s.mediaInfo
}

func (s *Session) audioParamsLocked() (sampleRate, channels int) {
	s.mediaInfoLock.Lock()
	defer s.mediaInfoLock.Unlock()
	return s.mediaInfo.AudioSampleRate, s.mediaInfo.AudioChannels
}

// PushVideoFrame 视频编码回调入口（规格§4.6生产者之一）：annexb是一帧完整的H.264裸流
//
// 始终刷新sps/pps缓存；若发生变化且音频参数已知且metadata还未初始化，则自动调用InitMetadata——
// 纯视频场景下（从未调用过PushAudioPcm）该自动触发不会发生，调用方需直接调用InitMetadata
func (s *Session) PushVideoFrame(annexb []byte) {
	s.mediaInfoLock.Lock()
	updated, hasIdr := avc.ExtractSpsPps(annexb, &s.mediaInfo.Sps, &s.mediaInfo.Pps)
	if updated {
		s.mediaInfo.HasVideo = true
	}
	audioKnown := s.audioConfigured
	mi := s.mediaInfo
	s.mediaInfoLock.Unlock()

	if updated && audioKnown && !s.queue.IsMetadataInited() {
		s.InitMetadata(mi)
	}

	if !s.queue.IsMetadataInited() {
		// 门控规则：metadata未初始化时丢弃该帧，不入队
		return
	}

	now := time.Now()
	if !s.videoBaseSet {
		s.videoBaseTime = now
		s.videoBaseSet = true
	}
	ptsUs := now.Sub(s.videoBaseTime).Microseconds()
	if ptsUs < 0 {
		ptsUs = 0
	}

	subtype := base.AvFrameSubtypeVideoP
	if hasIdr {
		subtype = base.AvFrameSubtypeVideoI
	}

	s.queue.Push(base.AvFrame{
		Kind:    base.AvFrameKindVideo,
		Subtype: subtype,
		PtsSec:  ptsUs / 1_000_000,
		PtsUs:   ptsUs % 1_000_000,
		Payload: append([]byte(nil), annexb...),
	})
}

// PushAudioPcm 音频采集回调入口（规格§4.6生产者之一）：pcm为s16le交织格式
//
// 首次调用记录音频参数到MediaInfo；若此时sps/pps已具备且metadata未初始化，则自动InitMetadata；
// metadata未初始化之前不转发给aac编码器，避免样本计数式pts在被丢弃的包上累积
func (s *Session) PushAudioPcm(pcm []byte, sampleRate, channels int) error {
	s.mediaInfoLock.Lock()
	firstTime := !s.audioConfigured
	if firstTime {
		s.audioConfigured = true
		s.mediaInfo.HasAudio = true
		s.mediaInfo.AudioSampleRate = sampleRate
		s.mediaInfo.AudioChannels = channels
		s.mediaInfo.AudioBitsPerSample = 16
	}
	videoReady := s.mediaInfo.VideoReady()
	mi := s.mediaInfo
	s.mediaInfoLock.Unlock()

	if firstTime && videoReady && !s.queue.IsMetadataInited() {
		s.InitMetadata(mi)
	}

	if !s.queue.IsMetadataInited() {
		return nil
	}

	if s.enc == nil {
		return base.ErrNotConnected
	}
	return s.enc.PushPcm(pcm, sampleRate, channels)
}

func (s *Session) onAacEncoded(frame []byte, length int, ptsMs int64, ptsUs int64) {
	if !s.queue.IsMetadataInited() {
		return
	}
	s.queue.Push(base.AvFrame{
		Kind:    base.AvFrameKindAudio,
		Subtype: base.AvFrameSubtypeAudioAac,
		PtsMs:   ptsMs,
		PtsSec:  ptsUs / 1_000_000,
		PtsUs:   ptsUs % 1_000_000,
		Payload: append([]byte(nil), frame[:length]...),
	})
}

// GetBufInfo 固定返回零值；保留该接口只是为了兼容调用方，不是真实的缓冲深度指标（规格§9）
func (s *Session) GetBufInfo() BufInfo {
	return BufInfo{}
}

// Release 关闭并释放会话持有的一切资源：先关闭队列唤醒发送线程并等待其退出，
// 再销毁aac编码器与底层rtmp连接；必须由非发送线程调用，否则会自己等待自己退出
func (s *Session) Release() {
	s.sessionLock.Lock()
	core := s.core
	s.core = nil
	s.connected.Store(false)
	s.headersSent = false
	s.sessionLock.Unlock()

	s.queue.Close()
	if s.senderDone != nil {
		<-s.senderDone
	}

	if s.enc != nil {
		s.enc.Destroy()
	}
	if core != nil {
		_ = core.Dispose()
	}

	s.notify(NotifyDisconnected)
}
