// Copyright 2021, Chef.  All rights reserved.
// https://github.com/q191201771/lal
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"fmt"
)

// ----- 通用的 ---------------------------------------------------------------------------------------------------------

var (
	ErrShortBuffer  = errors.New("rtmpub: buffer too short")
	ErrFileNotExist = errors.New("rtmpub: file not exist")
)

// ----- pkg/pub ---------------------------------------------------------------------------------------------------------
//
// 错误类型划分对应规格 §7

var (
	ErrBadArgument        = errors.New("rtmpub.pub: bad argument")
	ErrInsufficientBuffer = errors.New("rtmpub.pub: insufficient buffer")
	ErrUnsupported        = errors.New("rtmpub.pub: unsupported")
	ErrConnectFailed      = errors.New("rtmpub.pub: connect failed")
	ErrWriteShort         = errors.New("rtmpub.pub: write short")
	ErrEncodeFailed       = errors.New("rtmpub.pub: encode failed")
	ErrNotConnected       = errors.New("rtmpub.pub: not connected")
	ErrIllegalState       = errors.New("rtmpub.pub: illegal state")
)

func NewErrWriteShort(want, actual int) error {
	return fmt.Errorf("%w. want=%d, actual=%d", ErrWriteShort, want, actual)
}

// ----- pkg/aac -------------------------------------------------------------------------------------------------------

var ErrSamplingFrequencyIndex = errors.New("rtmpub.aac: invalid sampling frequency index")
var ErrAac = errors.New("rtmpub.aac: fxxk")

// ----- pkg/avc -------------------------------------------------------------------------------------------------------

var ErrAvc = errors.New("rtmpub.avc: fxxk")

// ----- pkg/base ------------------------------------------------------------------------------------------------------

var ErrInvalidUrl = errors.New("rtmpub.base: invalid url")

// ----- pkg/rtmp ------------------------------------------------------------------------------------------------------

var (
	ErrAmfInvalidType = errors.New("rtmpub.rtmp: invalid amf0 type")
	ErrAmfTooShort    = errors.New("rtmpub.rtmp: too short to unmarshal amf0 data")
	ErrAmfNotExist    = errors.New("rtmpub.rtmp: not exist")

	ErrRtmpShortBuffer   = errors.New("rtmpub.rtmp: buffer too short")
	ErrRtmpUnexpectedMsg = errors.New("rtmpub.rtmp: unexpected msg")
)

func NewErrAmfInvalidType(b byte) error {
	return fmt.Errorf("%w. b=%d", ErrAmfInvalidType, b)
}

func NewErrRtmpShortBuffer(need, actual int, msg string) error {
	return fmt.Errorf("%w. need=%d, actual=%d, msg=%s", ErrRtmpShortBuffer, need, actual, msg)
}

// ----- pkg/flv -------------------------------------------------------------------------------------------------------

var ErrFlv = errors.New("rtmpub.flv: fxxk")

// ----- pkg/aacenc ----------------------------------------------------------------------------------------------------

var ErrAacEncNotAvailable = errors.New("rtmpub.aacenc: ffmpeg binary not available")
