// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package pub

// Option 会话选项；前5个字段含义与pkg/rtmp.PushSessionOption对应，一路透传给底层PushSession，
// 后2个字段传给内部的aac编码适配器
type Option struct {
	PushTimeoutMs        int
	WriteAvTimeoutMs     int
	WriteBufSize         int
	WriteChanSize        int
	HandshakeComplexFlag bool

	AacFrameSize   int // 0表示使用aacenc包的默认值
	AacBitrateKbps int // 0表示使用aacenc包的默认值
}

var defaultOption = Option{
	PushTimeoutMs:        10000,
	WriteAvTimeoutMs:     0,
	WriteBufSize:         0,
	WriteChanSize:        0,
	HandshakeComplexFlag: false,
	AacFrameSize:         0,
	AacBitrateKbps:       0,
}

type ModOption func(option *Option)
