package models

import "time"

type NotificationKind string

const (
	NotificationUploadSucceeded       NotificationKind = "upload-succeeded"
	NotificationNoFileSelected        NotificationKind = "no-file-selected"
	NotificationLoadFailed            NotificationKind = "load-failed"
	NotificationUploadFailed          NotificationKind = "upload-failed"
	NotificationFavoriteLimitExceeded NotificationKind = "favorite-limit-exceeded"
	NotificationFavoriteSaveFailed    NotificationKind = "favorite-save-failed"
)

type Notification struct {
	Kind      NotificationKind
	Message   string
	CreatedAt time.Time
}

/*
IsError reports whether the notification should be shown as a failure.
*/
func (n Notification) IsError() bool {
	return n.Kind != NotificationUploadSucceeded
}
