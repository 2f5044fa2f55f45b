package models

import "time"

// FAQ answer sources.
const (
	FAQTypeAI    = "AI"
	FAQTypeHuman = "Human"
)

// FAQ statuses.
const (
	FAQStatusFinished = "Finished"
	FAQStatusOnHold   = "On Hold"
)

// FAQ is a question posted to a community.
type FAQ struct {
	ID          string     `json:"id"`
	CommunityID string     `json:"communityId"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	Asker       string     `json:"asker"`
	AskerID     string     `json:"askerId"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	AnsweredAt  *time.Time `json:"answeredAt,omitempty"`
}
