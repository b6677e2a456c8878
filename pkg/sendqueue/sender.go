// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sendqueue

import (
	"time"

	"github.com/q191201771/naza/pkg/nazalog"

	"github.com/zrtmp/rtmpub/pkg/base"
)

// metadataWaitPoll 步骤1等待metadata初始化的轮询间隔，近似条件变量的超时等待语义
const metadataWaitPoll = 50 * time.Millisecond

// Sink 发送通路的另一端，由pkg/pub.Session实现；独立成接口避免sendqueue依赖pub，形成import环
type Sink interface {
	SendPacket(frame base.AvFrame) int
}

// Sender 持有队列的非拥有引用，运行在唯一的发送goroutine中
//
// 发送失败时只调用onSendFailed通知所属controller，自身不执行连接关闭/队列关闭等操作——
// 这些操作必须发生在非发送线程上，避免sender goroutine自己等待自己退出而死锁
type Sender struct {
	q            *Queue
	sink         Sink
	onSendFailed func()
}

func NewSender(q *Queue, sink Sink, onSendFailed func()) *Sender {
	return &Sender{
		q:            q,
		sink:         sink,
		onSendFailed: onSendFailed,
	}
}

// Run 阻塞运行发送循环，直至队列关闭或一次发送失败；应在独立goroutine中调用
func (s *Sender) Run() {
	for {
		// 步骤1：metadata未初始化时先等待，避免过早弹出队列中（理论上不应存在的）帧
		for !s.q.IsMetadataInited() {
			if s.q.isClosed() {
				return
			}
			time.Sleep(metadataWaitPoll)
		}

		// 步骤2、3：等待队列非空或关闭，取出一帧
		frame, ok := s.q.PopWait()
		if !ok {
			return
		}

		if s.sink == nil {
			continue
		}

		// 步骤4：发送；返回0表示失败，通知owning controller后退出，不在本goroutine内做任何teardown
		if n := s.sink.SendPacket(frame); n == 0 {
			nazalog.Warnf("sendqueue: send packet failed, notifying controller and stopping sender.")
			if s.onSendFailed != nil {
				s.onSendFailed()
			}
			return
		}
	}
}

func (q *Queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
