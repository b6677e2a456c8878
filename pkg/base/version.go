// Copyright 2020, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "strings"

// 版本信息相关，植入rtmp握手随机字符串以及connect信令中

const RtmpubVersion = "v0.1.0"

var (
	RtmpubLibraryName = "rtmpub"
	RtmpubGithubRepo  = "github.com/zrtmp/rtmpub"
	RtmpubGithubSite  = "https://github.com/zrtmp/rtmpub"

	// e.g. rtmpub v0.1.0 (github.com/zrtmp/rtmpub)
	RtmpubFullInfo string

	// e.g. 0.1.0
	RtmpubVersionDot string
)

var (
	// RtmpubRtmpHandshakeWaterMark 植入rtmp握手随机字符串中
	RtmpubRtmpHandshakeWaterMark string

	// RtmpubRtmpPushSessionConnectVersion 植入rtmp connect信令的flashVer字段
	RtmpubRtmpPushSessionConnectVersion string

	// RtmpubBuildMetadataEncoder encoder标识字符串；flv.BuildMetadata不写encoder字段，该值不会出现在onMetaData中
	RtmpubBuildMetadataEncoder string
)

func init() {
	RtmpubVersionDot = strings.TrimPrefix(RtmpubVersion, "v")
	RtmpubFullInfo = RtmpubLibraryName + " " + RtmpubVersion + " (" + RtmpubGithubRepo + ")"
	RtmpubRtmpHandshakeWaterMark = RtmpubFullInfo
	RtmpubRtmpPushSessionConnectVersion = RtmpubLibraryName + RtmpubVersionDot
	RtmpubBuildMetadataEncoder = RtmpubLibraryName + RtmpubVersionDot
}
