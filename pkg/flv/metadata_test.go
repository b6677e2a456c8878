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

	"github.com/zrtmp/rtmpub/pkg/flv"
	"github.com/zrtmp/rtmpub/pkg/rtmp"
)

func TestBuildMetadata_VideoAndAudio(t *testing.T) {
	payload, err := flv.BuildMetadata(flv.MetadataInfo{
		HasVideo:        true,
		Width:           640,
		Height:          480,
		VideoFps:        25,
		HasAudio:        true,
		AudioSampleRate: 44100,
		AudioChannels:   2,
		AudioSampleSize: 16,
	})
	assert.Equal(t, nil, err)

	name, l, err := rtmp.AMF0.ReadString(payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, "onMetaData", name)

	opa, _, err := rtmp.AMF0.ReadObjectOrArray(payload[l:])
	assert.Equal(t, nil, err)

	assert.Equal(t, float64(640), opa.Find("width"))
	assert.Equal(t, float64(480), opa.Find("height"))
	assert.Equal(t, float64(25), opa.Find("framerate"))
	assert.Equal(t, float64(44100), opa.Find("audiosamplerate"))
	assert.Equal(t, float64(2), opa.Find("audiochannels"))
	assert.Equal(t, float64(16), opa.Find("audiosamplesize"))
}

func TestBuildMetadata_VideoOnly_OmitsAudioFields(t *testing.T) {
	payload, err := flv.BuildMetadata(flv.MetadataInfo{
		HasVideo: true,
		Width:    1280,
		Height:   720,
	})
	assert.Equal(t, nil, err)

	_, l, err := rtmp.AMF0.ReadString(payload)
	assert.Equal(t, nil, err)
	opa, _, err := rtmp.AMF0.ReadObjectOrArray(payload[l:])
	assert.Equal(t, nil, err)

	assert.Equal(t, float64(1280), opa.Find("width"))
	assert.Equal(t, nil, opa.Find("audiosamplerate"))
	assert.Equal(t, nil, opa.Find("audiocodecid"))
}
