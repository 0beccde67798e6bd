package domain

import "time"

// Project belongs to exactly one client.
type Project struct {
	ID          string
	Name        string
	Description string
	ClientID    string
	Ownership
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
