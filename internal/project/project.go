package project

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyName = errors.New("project name is required")
	ErrNotFound  = errors.New("project not found")
)

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewProject(name, description string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Project{
		Name:        name,
		Description: strings.TrimSpace(description),
		Active:      true,
	}, nil
}

func (p *Project) String() string {
	return p.Name
}
