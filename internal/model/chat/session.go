package chat

import (
	"fmt"
	"time"
)

// Session status values. A session is active until a new chat replaces it
// or it is deleted.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Session captures one stored conversation.
type Session struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	MessageCount int       `json:"message_count"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Summary is the sidebar listing entry for a session. The formatted fields
// are computed server-side so every client shows identical labels.
type Summary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	MessageCount  int    `json:"message_count"`
	FormattedDate string `json:"formatted_date"`
	FormattedTime string `json:"formatted_time"`
	RelativeTime  string `json:"relative_time"`
}

// Summarize converts a session into its sidebar form relative to now.
func (s Session) Summarize(now time.Time) Summary {
	return Summary{
		ID:            s.ID,
		Title:         s.Title,
		Status:        s.Status,
		MessageCount:  s.MessageCount,
		FormattedDate: s.LastActivity.Format("January 2, 2006"),
		FormattedTime: s.LastActivity.Format("3:04 PM"),
		RelativeTime:  RelativeTime(s.LastActivity, now),
	}
}

// DefaultTitle names a fresh session after its creation time.
func DefaultTitle(t time.Time) string {
	return "Chat " + t.Format("Jan 2, 2006 at 3:04 PM")
}

// RelativeTime renders the "5m ago" style label used by the history sidebar.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		minutes := int(diff.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
