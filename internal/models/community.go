package models

import "time"

// Community is a user-created group with membership, chat, events, dues and Q&A.
type Community struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	PhotoURL        string    `json:"photoURL,omitempty"`
	CreatedBy       string    `json:"createdBy"`
	CreatedByName   string    `json:"createdByName"`
	Members         []string  `json:"members"`
	IsDuesMandatory bool      `json:"isDuesMandatory"`
	DuesAmount      string    `json:"duesAmount,omitempty"` // decimal string, e.g. "50000"
	DuesDate        int       `json:"duesDate,omitempty"`   // day of month
	CreatedAt       time.Time `json:"createdAt"`
}

// HasMember reports whether userID is in the community's member set.
func (c *Community) HasMember(userID string) bool {
	if c == nil {
		return false
	}
	for _, id := range c.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// Categories offered when creating a community.
var Categories = []string{
	"Gaming",
	"Teknologi & Coding",
	"Otomotif & Mesin",
	"Masak & Kuliner",
	"Traveling & Jalan-jalan",
	"Seni & Desain",
	"Olahraga & Kesehatan",
	"Musik & Film",
	"Bisnis & Keuangan",
	"Pendidikan & Buku",
}

// IsValidCategory reports whether category is one of Categories.
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
