// Copyright 2019, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtmp

import (
	"github.com/q191201771/naza/pkg/bele"
	"github.com/zrtmp/rtmpub/pkg/base"
)

// Message2Chunks 将一条完整的rtmp message切割成一个或多个chunk
//
// 注意，本端推流场景下每条message的首个chunk总是fmt0格式，不参考前一条message的头字段，其余chunk为fmt3，
// 这样实现简单，代价是多了几个字节的header开销，可忽略不计
func Message2Chunks(message []byte, header *base.RtmpHeader) []byte {
	chunkSize := LocalChunkSize

	numOfChunk := len(message) / chunkSize
	lastChunkSize := chunkSize
	if len(message)%chunkSize != 0 {
		numOfChunk++
		lastChunkSize = len(message) % chunkSize
	}
	if numOfChunk == 0 {
		numOfChunk = 1
		lastChunkSize = 0
	}

	maxNeededLen := (chunkSize + maxHeaderSize) * numOfChunk
	out := make([]byte, maxNeededLen)
	index := 0

	timestamp := header.TimestampAbs

	// fmt0: basic header | message header(11) | extended timestamp
	out[index] = 0<<6 | uint8(header.Csid)
	index++

	if timestamp > maxTimestampInMessageHeader {
		bele.BePutUint24(out[index:], maxTimestampInMessageHeader)
	} else {
		bele.BePutUint24(out[index:], timestamp)
	}
	index += 3

	bele.BePutUint24(out[index:], header.MsgLen)
	index += 3
	out[index] = header.MsgTypeId
	index++
	bele.LePutUint32(out[index:], uint32(header.MsgStreamId))
	index += 4

	if timestamp > maxTimestampInMessageHeader {
		bele.BePutUint32(out[index:], timestamp)
		index += 4
	}

	for i := 0; i < numOfChunk; i++ {
		if i != 0 {
			// fmt3: 只有basic header，沿用第一个chunk的message header
			out[index] = 0xc0 | uint8(header.Csid)
			index++
		}
		if i != numOfChunk-1 {
			copy(out[index:], message[i*chunkSize:i*chunkSize+chunkSize])
			index += chunkSize
		} else {
			copy(out[index:], message[i*chunkSize:i*chunkSize+lastChunkSize])
			index += lastChunkSize
		}
	}

	return out[:index]
}
