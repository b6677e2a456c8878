// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package flv_test

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"

	"github.com/zrtmp/rtmpub/pkg/aac"
	"github.com/zrtmp/rtmpub/pkg/base"
	"github.com/zrtmp/rtmpub/pkg/flv"
)

func TestBuildAacSeqHeaderPayload_RoundTripsAsc(t *testing.T) {
	payload := flv.BuildAacSeqHeaderPayload(44100, 2)

	assert.Equal(t, uint8(base.RtmpSoundFormatAac<<4|3<<2|1<<1|1), payload[0])
	assert.Equal(t, base.RtmpAacPacketTypeSeqHeader, int(payload[1]))

	ascCtx, err := aac.NewAscContext(payload[2:])
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(2), ascCtx.AudioObjectType) // AAC-LC
	assert.Equal(t, uint8(2), ascCtx.ChannelConfiguration)
}

func TestBuildAacSeqHeaderPayload_UnsupportedSampleRate_ReturnsNil(t *testing.T) {
	payload := flv.BuildAacSeqHeaderPayload(12345, 2)
	assert.Equal(t, true, payload == nil)
}
