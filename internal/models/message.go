package models

import "time"

// SystemSenderID marks messages generated by the server (e.g. dues reminders).
const SystemSenderID = "system"

// Message is one entry of a community's append-only chat log.
type Message struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"communityId"`
	Sender      string    `json:"sender"`
	SenderID    string    `json:"senderId"`
	Text        string    `json:"text"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RenderedMessage is a message annotated for display relative to a viewer.
type RenderedMessage struct {
	Message
	Own bool `json:"own"` // right-aligned when true
}
