package notifications

type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	Total         int64          `json:"total"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
}

type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
