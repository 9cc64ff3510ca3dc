package websocket

// WebSocket消息类型常量
const (
	// 系统消息类型
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
	MessageTypeError = "error"

	// 订阅控制
	MessageTypeSubscribe    = "subscribe"
	MessageTypeUnsubscribe  = "unsubscribe"
	MessageTypeSubscribed   = "subscribed"
	MessageTypeUnsubscribed = "unsubscribed"

	// 下行事件
	MessageTypeEvent = "event"
)

// 错误消息常量
const (
	ErrInvalidMessage     = "无效的消息格式"
	ErrUnknownMessageType = "未知的消息类型"
	ErrChannelRequired    = "频道名不能为空"
	ErrChannelForbidden   = "无权订阅该频道"
	ErrUserNotLoggedIn    = "用户未登录"
	ErrUpgradeFailed      = "WebSocket升级失败"
)

// 路由路径常量
const (
	RouteWebSocket = "/ws"
	RouteStats     = "/ws/stats"
	RouteHealth    = "/ws/health"
)
