// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lal
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base_test

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/zrtmp/rtmpub/pkg/base"
)

func TestParseRtmpUrl(t *testing.T) {
	_, err := base.ParseRtmpUrl("invalidurl")
	assert.IsNotNil(t, err)

	ctx, err := base.ParseRtmpUrl("rtmp://127.0.0.1/live/test110")
	assert.Equal(t, nil, err)
	assert.Equal(t, "rtmp", ctx.Scheme)
	assert.Equal(t, "127.0.0.1", ctx.Host)
	assert.Equal(t, 1935, ctx.Port)
	assert.Equal(t, "127.0.0.1:1935", ctx.HostWithPort)
	assert.Equal(t, "live", ctx.PathWithoutLastItem)
	assert.Equal(t, "test110", ctx.LastItemOfPath)

	ctx2, err := base.ParseRtmpUrl("rtmp://127.0.0.1:19350/live/test110?token=abc")
	assert.Equal(t, nil, err)
	assert.Equal(t, 19350, ctx2.Port)
	assert.Equal(t, "token=abc", ctx2.RawQuery)

	// ffmpeg推流时，没有streamName的case
	ctx3, err := base.ParseRtmpUrl("rtmp://127.0.0.1/test110")
	assert.Equal(t, nil, err)
	assert.Equal(t, "test110", ctx3.PathWithoutLastItem)
	assert.Equal(t, "", ctx3.LastItemOfPath)

	// 非rtmp scheme
	_, err = base.ParseRtmpUrl("http://127.0.0.1/live/test110")
	assert.IsNotNil(t, err)
}
