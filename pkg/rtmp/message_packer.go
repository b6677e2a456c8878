// Copyright 2019, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtmp

// message_packer.go
// @pure
// 打包并发送 rtmp 信令

import (
	"bytes"
	"io"

	"github.com/q191201771/naza/pkg/bele"
	"github.com/zrtmp/rtmpub/pkg/base"
)

type MessagePacker struct {
	// 1. 增加一层缓冲，避免 write 一个信令时发生多次系统调用
	// 2. 因为 bytes.Buffer.Write 返回的 error 永远为 nil，所以本文件中所有对 b 的写操作都不判断返回值
	b *bytes.Buffer
}

func NewMessagePacker() *MessagePacker {
	return &MessagePacker{
		b: &bytes.Buffer{},
	}
}

func (packer *MessagePacker) writeMessageHeader(csid int, bodyLen int, typeID int, streamID int) {
	// 目前这个函数只供发送信令时调用，信令的 csid 都是小于等于 63 的，如果传入的 csid 大于 63，直接 panic
	if csid > 63 {
		panic(csid)
	}

	fmt := 0
	// 0 0 0 是时间戳
	_, _ = packer.b.Write([]byte{uint8(fmt<<6 | csid), 0, 0, 0})
	_ = bele.WriteBeUint24(packer.b, uint32(bodyLen))
	_, _ = packer.b.Write([]byte{uint8(typeID)})
	_ = bele.WriteLe(packer.b, uint32(streamID))
}

func (packer *MessagePacker) writeProtocolControlMessage(writer io.Writer, typeID int, val int) error {
	packer.writeMessageHeader(csidProtocolControl, 4, typeID, 0)
	_ = bele.WriteBe(packer.b, uint32(val))
	_, err := packer.b.WriteTo(writer)
	return err
}

func (packer *MessagePacker) writeChunkSize(writer io.Writer, val int) error {
	return packer.writeProtocolControlMessage(writer, int(base.RtmpTypeIdSetChunkSize), val)
}

func (packer *MessagePacker) writeAcknowledgement(writer io.Writer, seqNum uint32) error {
	return packer.writeProtocolControlMessage(writer, int(base.RtmpTypeIdAck), int(seqNum))
}

// writePingResponse 回复服务端的 PingRequest user control message
func (packer *MessagePacker) writePingResponse(writer io.Writer, timestamp uint32) error {
	packer.writeMessageHeader(csidProtocolControl, 6, int(base.RtmpTypeIdUserControl), 0)
	_ = bele.WriteBe(packer.b, uint16(base.RtmpUserControlPingResponse))
	_ = bele.WriteBe(packer.b, timestamp)
	_, err := packer.b.WriteTo(writer)
	return err
}

func (packer *MessagePacker) writeConnect(writer io.Writer, appName, tcURL string) error {
	packer.writeMessageHeader(csidOverConnection, 0, int(typeidCommandMessageAMF0), 0)
	_ = AMF0.WriteString(packer.b, "connect")
	_ = AMF0.WriteNumber(packer.b, float64(tidClientConnect))

	objs := []ObjectPair{
		{Key: "app", Value: appName},
		{Key: "type", Value: "nonprivate"},
		{Key: "flashVer", Value: base.RtmpubRtmpPushSessionConnectVersion},
		{Key: "tcUrl", Value: tcURL},
	}
	_ = AMF0.WriteObject(packer.b, objs)
	raw := packer.b.Bytes()
	bele.BePutUint24(raw[4:], uint32(len(raw)-12))
	_, err := packer.b.WriteTo(writer)
	return err
}

func (packer *MessagePacker) writeCreateStream(writer io.Writer) error {
	// 25 = 15 + 9 + 1
	packer.writeMessageHeader(csidOverConnection, 25, int(typeidCommandMessageAMF0), 0)
	_ = AMF0.WriteString(packer.b, "createStream")
	_ = AMF0.WriteNumber(packer.b, float64(tidClientCreateStream))
	_ = AMF0.WriteNull(packer.b)
	_, err := packer.b.WriteTo(writer)
	return err
}

func (packer *MessagePacker) writePublish(writer io.Writer, appName string, streamName string, streamID int) error {
	packer.writeMessageHeader(csidOverStream, 0, int(typeidCommandMessageAMF0), streamID)
	_ = AMF0.WriteString(packer.b, "publish")
	_ = AMF0.WriteNumber(packer.b, float64(tidClientPublish))
	_ = AMF0.WriteNull(packer.b)
	_ = AMF0.WriteString(packer.b, streamName)
	_ = AMF0.WriteString(packer.b, appName)

	raw := packer.b.Bytes()
	bele.BePutUint24(raw[4:], uint32(len(raw)-12))
	_, err := packer.b.WriteTo(writer)
	return err
}
