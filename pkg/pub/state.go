// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package pub

// State 会话的持久状态；CONNECT_FAILED/CONNECT_ABORT不是持久状态，只作为Notification出现
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StatePushing
	StateError
)

// Notification 状态回调的通知类型；除了5个持久状态外，额外包含2个仅用于通知的终态
type Notification uint8

const (
	NotifyConnecting Notification = iota
	NotifyConnected
	NotifyConnectFailed
	NotifyConnectAbort
	NotifyPushing
	NotifyError
	NotifyDisconnected
)

func (n Notification) String() string {
	switch n {
	case NotifyConnecting:
		return "CONNECTING"
	case NotifyConnected:
		return "CONNECTED"
	case NotifyConnectFailed:
		return "CONNECT_FAILED"
	case NotifyConnectAbort:
		return "CONNECT_ABORT"
	case NotifyPushing:
		return "PUSHING"
	case NotifyError:
		return "ERROR"
	case NotifyDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// StateCallback 状态迁移回调；调用方必须保证实现是非阻塞、可重入的——
// 回调总是在触发迁移的那个线程上同步执行（可能是Connect调用方线程，也可能是发送线程）
type StateCallback func(n Notification)
