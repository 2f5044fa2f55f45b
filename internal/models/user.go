package models

import (
	"encoding/json"
	"time"
)

// User represents a user account in the system.
type User struct {
	ID              string           `json:"uid"`
	Username        string           `json:"username"`
	Email           string           `json:"email"`
	City            string           `json:"city"`
	PhotoURL        string           `json:"photoURL,omitempty"`
	PasswordHash    string           `json:"-"` // Never expose this to the client
	JoinedCommIDs   []string         `json:"joinedCommIds"`
	CommunityGroups []CommunityGroup `json:"communityGroups"`
	CreatedAt       time.Time        `json:"createdAt"`

	// JSON string field for DB storage
	CommunityGroupsJSON string `json:"-"`
}

// CommunityGroup is a user-defined folder of joined communities.
type CommunityGroup struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CommunityIDs []string `json:"communityIds"`
}

// HasJoined reports whether the user's own mirror lists the community.
func (u *User) HasJoined(communityID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.JoinedCommIDs {
		if id == communityID {
			return true
		}
	}
	return false
}

// PrepareForSave marshals the group list into its JSON string for DB storage.
func (u *User) PrepareForSave() {
	groups := u.CommunityGroups
	if groups == nil {
		groups = []CommunityGroup{}
	}
	b, _ := json.Marshal(groups)
	u.CommunityGroupsJSON = string(b)
}

// PrepareForAPI unmarshals the stored group list and normalizes nil slices so
// clients always receive arrays.
func (u *User) PrepareForAPI() {
	if u.CommunityGroupsJSON != "" {
		json.Unmarshal([]byte(u.CommunityGroupsJSON), &u.CommunityGroups)
	}
	if u.CommunityGroups == nil {
		u.CommunityGroups = []CommunityGroup{}
	}
	if u.JoinedCommIDs == nil {
		u.JoinedCommIDs = []string{}
	}
	u.PasswordHash = ""
}

// StandaloneCommunityIDs returns joined communities that are not placed in any group.
func (u *User) StandaloneCommunityIDs() []string {
	grouped := make(map[string]bool)
	for _, g := range u.CommunityGroups {
		for _, id := range g.CommunityIDs {
			grouped[id] = true
		}
	}
	out := []string{}
	for _, id := range u.JoinedCommIDs {
		if !grouped[id] {
			out = append(out, id)
		}
	}
	return out
}
