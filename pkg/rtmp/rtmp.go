// Copyright 2019, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtmp

import "github.com/zrtmp/rtmpub/pkg/base"

// Log 指向base.Log，供package内部输出日志使用
var Log = base.Log

const (
	CsidAmf   = 5
	CsidAudio = 6
	CsidVideo = 7

	csidProtocolControl = 2
	csidOverConnection  = 3
	csidOverStream      = 5
)

const typeidCommandMessageAMF0 = uint8(20)

const (
	tidClientConnect      = 1
	tidClientCreateStream = 2
	tidClientPublish      = 3
)

// basic header(3) | message header(11) | extended ts(4)
const maxHeaderSize = 18

// rtmp头中3字节时间戳的最大值
const maxTimestampInMessageHeader uint32 = 0xFFFFFF

const defaultChunkSize = 128 // 未收到对端设置chunk size时的默认值

const (
	Msid1 = 1 // publish、onStatus 以及 音视频数据
)
