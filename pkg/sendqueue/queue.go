// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package sendqueue 实现发布会话的跨线程帧队列：编码回调线程生产，唯一的发送线程消费
package sendqueue

import (
	"sync"

	"github.com/zrtmp/rtmpub/pkg/base"
)

// Queue 由互斥锁+条件变量保护的FIFO，Push由生产者(编码回调)线程调用，PopWait由唯一的发送线程调用
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frames []base.AvFrame
	closed bool

	metadataInited bool
}

func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push 将一帧追加到队尾并唤醒发送线程
//
// 调用方必须在metadataInited之后才push（见§4.6 gate规则），本函数本身不做该判断，
// 判断发生在编码回调里（更早的阶段），队列只负责存储与唤醒
func (q *Queue) Push(frame base.AvFrame) {
	q.mu.Lock()
	q.frames = append(q.frames, frame)
	q.mu.Unlock()
	q.cond.Broadcast()
}

// SetMetadataInited 标记metadata已初始化完成，唤醒可能正在等待的发送线程
func (q *Queue) SetMetadataInited() {
	q.mu.Lock()
	q.metadataInited = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// IsMetadataInited 供发送线程在§4.6.2步骤1判断是否需要继续等待
func (q *Queue) IsMetadataInited() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.metadataInited
}

// PopWait 阻塞直至队列非空、或队列关闭；关闭且队列已空时返回ok=false
func (q *Queue) PopWait() (frame base.AvFrame, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.frames) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.frames) == 0 {
		return base.AvFrame{}, false
	}

	frame = q.frames[0]
	q.frames = q.frames[1:]
	return frame, true
}

// Close 标记队列关闭并唤醒所有等待者，供§9的跨线程关停机制调用（由非发送线程触发）
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
