package internal

import (
	"encoding/json"
	"strings"
)

// User is the persisted account record. Password holds the hex digest, never
// the plaintext; the JSON key stays "password" so existing users.json files load.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	CreatedAt string `json:"createdAt"`
	IsAdmin   bool   `json:"isAdmin,omitempty"`
}

// PublicUser is a User with the digest stripped.
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"`
	IsAdmin   bool   `json:"isAdmin"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt, IsAdmin: u.IsAdmin}
}

// HealthEntry is one mood record. Date is kept as the stored string so that
// malformed values survive a load and are skipped by readers.
type HealthEntry struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	Status   Status   `json:"status"`
	Rating   int      `json:"rating,omitempty"` // 1–5, derived from Status when absent
	Comment  string   `json:"comment,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Factor   string   `json:"factor,omitempty"`
	UserID   string   `json:"userId"`
	Edited   bool     `json:"edited,omitempty"`
	EditedAt string   `json:"editedAt,omitempty"`
}

// EffectiveRating returns Rating when it is in range, otherwise the rating
// implied by Status.
func (e HealthEntry) EffectiveRating() int {
	if e.Rating >= 1 && e.Rating <= 5 {
		return e.Rating
	}
	return e.Status.Rating()
}

// UnmarshalJSON accepts any JSON value for date. A non-string date, such as
// an epoch number, is kept as its literal text so readers can skip it.
func (e *HealthEntry) UnmarshalJSON(data []byte) error {
	type plain HealthEntry
	aux := struct {
		*plain
		Date json.RawMessage `json:"date"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Date = ""
	raw := strings.TrimSpace(string(aux.Date))
	if raw == "" || raw == "null" {
		return nil
	}
	var date string
	if err := json.Unmarshal(aux.Date, &date); err == nil {
		e.Date = date
		return nil
	}
	e.Date = raw
	return nil
}
