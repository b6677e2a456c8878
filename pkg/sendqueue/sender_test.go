// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sendqueue_test

import (
	"sync"
	"testing"
	"time"

	"github.com/q191201771/naza/pkg/assert"

	"github.com/zrtmp/rtmpub/pkg/base"
	"github.com/zrtmp/rtmpub/pkg/sendqueue"
)

type fakeSink struct {
	mu       sync.Mutex
	received []base.AvFrame
	failAt   int
}

func (s *fakeSink) SendPacket(frame base.AvFrame) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt > 0 && len(s.received) == s.failAt {
		return 0
	}
	s.received = append(s.received, frame)
	return len(frame.Payload)
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func TestSender_WaitsForMetadataBeforeDraining(t *testing.T) {
	q := sendqueue.New()
	sink := &fakeSink{}
	sender := sendqueue.NewSender(q, sink, nil)

	q.Push(base.AvFrame{Kind: base.AvFrameKindVideo, Payload: []byte{1}})

	go sender.Run()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, sink.count())

	q.SetMetadataInited()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, sink.count())

	q.Close()
}

func TestSender_OnSendFailedCalledOnce_ThenStops(t *testing.T) {
	q := sendqueue.New()
	q.SetMetadataInited()
	sink := &fakeSink{failAt: 1}

	var failedCount int32
	var mu sync.Mutex
	sender := sendqueue.NewSender(q, sink, func() {
		mu.Lock()
		failedCount++
		mu.Unlock()
	})

	q.Push(base.AvFrame{Kind: base.AvFrameKindVideo, Payload: []byte{1}})
	q.Push(base.AvFrame{Kind: base.AvFrameKindVideo, Payload: []byte{2}})

	done := make(chan struct{})
	go func() {
		sender.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender did not stop after send failure")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int32(1), failedCount)
	assert.Equal(t, 1, sink.count())
}
