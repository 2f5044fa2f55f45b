package models

import "time"

// Event is a scheduled community activity.
type Event struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"communityId"`
	Title       string    `json:"title"`
	Date        string    `json:"date"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"createdAt"`
}
