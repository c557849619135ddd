package adapter

import "context"

type NotificationLevel string

const (
	NotifyInfo    NotificationLevel = "info"
	NotifySuccess NotificationLevel = "success"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// Notification is user-facing feedback (a toast in a browser client).
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
