package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/alexanderramin/dealboard/internal/repository"
	"github.com/google/uuid"
)

type contactService struct {
	contacts repository.ContactRepo
}

func NewContactService(contacts repository.ContactRepo) ContactService {
	return &contactService{contacts: contacts}
}

func (s *contactService) Create(ctx context.Context, c *domain.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if err := c.Validate(); err != nil {
		return err
	}
	c.CreatedAt = time.Now().UTC()
	return s.contacts.Create(ctx, c)
}

func (s *contactService) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	return s.contacts.GetByID(ctx, id)
}

func (s *contactService) List(ctx context.Context) ([]*domain.Contact, error) {
	return s.contacts.List(ctx)
}
