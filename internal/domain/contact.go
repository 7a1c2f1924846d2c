package domain

import (
	"strings"
	"time"
)

type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalidf("contact name is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return Invalidf("contact email %q is not an address", c.Email)
	}
	return nil
}
