package dto

import "time"

// ClientRequest payload for client create and update.
type ClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ClientResponse is the public view of a client.
type ClientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedBy string    `json:"created_by"`
	Company   string    `json:"company"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectRequest payload for project create and update.
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ClientID    string `json:"client"`
}

// ProjectResponse is the public view of a project.
type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ClientID    string    `json:"client"`
	CreatedBy   string    `json:"created_by"`
	Company     string    `json:"company"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
