package notification

import (
	"encoding/json"
	"time"
)

type Notification struct {
	ID               int       `json:"id"`
	Title            string    `json:"title,omitempty"`
	Message          string    `json:"message"`
	NotificationType string    `json:"notificationType"`
	CreatedAt        time.Time `json:"createdAt"`
	IsRead           bool      `json:"isRead"`
}

// UnmarshalJSON normalizes the two inbound read-flag spellings (`isRead`,
// `read`) into one canonical boolean at ingestion time.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type alias Notification
	aux := struct {
		*alias
		IsRead *bool `json:"isRead"`
		Read   *bool `json:"read"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.IsRead != nil:
		n.IsRead = *aux.IsRead
	case aux.Read != nil:
		n.IsRead = *aux.Read
	default:
		n.IsRead = false
	}
	return nil
}

// UnreadCount counts the notifications not yet read.
func UnreadCount(notifs []Notification) int {
	var count int
	for _, n := range notifs {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// ReadFilter selects notifications by read state.
type ReadFilter string

const (
	FilterAll    ReadFilter = "ALL"
	FilterRead   ReadFilter = "READ"
	FilterUnread ReadFilter = "UNREAD"
)

// Filter returns the notifications matching f, in snapshot order.
func Filter(notifs []Notification, f ReadFilter) []Notification {
	out := make([]Notification, 0, len(notifs))
	for _, n := range notifs {
		switch f {
		case FilterRead:
			if !n.IsRead {
				continue
			}
		case FilterUnread:
			if n.IsRead {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
