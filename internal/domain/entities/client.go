package entities

import "time"

// Client is a borrower managed from the admin console.
type Client struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	LineUserID string    `json:"lineUserId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Connected reports whether a LINE account is linked.
func (c *Client) Connected() bool {
	return c.LineUserID != ""
}
