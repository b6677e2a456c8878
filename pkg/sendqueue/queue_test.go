// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sendqueue_test

import (
	"testing"
	"time"

	"github.com/q191201771/naza/pkg/assert"

	"github.com/zrtmp/rtmpub/pkg/base"
	"github.com/zrtmp/rtmpub/pkg/sendqueue"
)

func TestQueue_PushPopWait_Fifo(t *testing.T) {
	q := sendqueue.New()
	q.Push(base.AvFrame{Kind: base.AvFrameKindVideo, PtsMs: 1})
	q.Push(base.AvFrame{Kind: base.AvFrameKindAudio, PtsMs: 2})

	f1, ok := q.PopWait()
	assert.Equal(t, true, ok)
	assert.Equal(t, base.AvFrameKindVideo, f1.Kind)

	f2, ok := q.PopWait()
	assert.Equal(t, true, ok)
	assert.Equal(t, base.AvFrameKindAudio, f2.Kind)
}

func TestQueue_PopWait_BlocksUntilPush(t *testing.T) {
	q := sendqueue.New()

	done := make(chan base.AvFrame, 1)
	go func() {
		frame, ok := q.PopWait()
		if ok {
			done <- frame
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push(base.AvFrame{Kind: base.AvFrameKindVideo, PtsMs: 9})

	select {
	case frame := <-done:
		assert.Equal(t, int64(9), frame.PtsMs)
	case <-time.After(time.Second):
		t.Fatal("PopWait did not unblock after Push")
	}
}

func TestQueue_Close_UnblocksWaiters(t *testing.T) {
	q := sendqueue.New()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.PopWait()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.Equal(t, false, ok)
	case <-time.After(time.Second):
		t.Fatal("PopWait did not unblock after Close")
	}
}

func TestQueue_MetadataInited(t *testing.T) {
	q := sendqueue.New()
	assert.Equal(t, false, q.IsMetadataInited())
	q.SetMetadataInited()
	assert.Equal(t, true, q.IsMetadataInited())
}
