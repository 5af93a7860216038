package model

import (
	"time"

	"saas-subscription-backend/internal/domain"
)

// Project is a user-owned workspace with a flat member list. Mutations are
// restricted to the owner (or an administrator); members get read access.
type Project struct {
	ID          string // UUID
	Name        string
	Description string
	OwnerID     string
	Active      bool

	// MemberIDs excludes the owner.
	MemberIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProject(id, name, description, ownerID string) (*Project, error) {
	if id == "" || name == "" || ownerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Project{
		ID:          id,
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Project) HasMember(userID string) bool {
	if p.OwnerID == userID {
		return true
	}
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
