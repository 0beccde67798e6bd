package domain

import "time"

// Client is a customer of a user or company.
type Client struct {
	ID           string
	Name         string
	ContactEmail string
	Phone        string
	Address      string
	Ownership
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
