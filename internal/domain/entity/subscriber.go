package entity

import "time"

// Platform tags the messaging channel a subscriber registered from.
type Platform string

const (
	PlatformQQ      Platform = "QQ"
	PlatformWeChat  Platform = "微信"
	PlatformLark    Platform = "飞书"
	PlatformSlack   Platform = "Slack"
	PlatformUnknown Platform = "未知"
)

// PlatformFromName maps a host adapter name to its platform tag.
func PlatformFromName(name string) Platform {
	switch name {
	case "aiocqhttp":
		return PlatformQQ
	case "wechatpadpro":
		return PlatformWeChat
	case "lark":
		return PlatformLark
	case "slack":
		return PlatformSlack
	default:
		return PlatformUnknown
	}
}

type Subscriber struct {
	ID             int64
	UserID         string
	Platform       Platform
	DeliveryTarget string
	Account        string
	Secret         string
	Enabled        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
