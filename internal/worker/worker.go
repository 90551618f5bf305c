// Package worker defines account holders and the roles that gate what
// they may do.
package worker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrNotFound      = errors.New("worker not found")
)

// Role is an account's position in the organisation.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleHR    Role = "hr"
	RoleTech  Role = "tech"
	RoleUser  Role = "user"
)

var Roles = []Role{RoleAdmin, RoleHR, RoleTech, RoleUser}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q: must be one of %v", s, Roles)
}

// Capability is an action a façade checks before calling into the core.
type Capability int

const (
	ClockIn Capability = iota
	ViewReports
	ManageDirectory
	ManageProjects
)

func (c Capability) String() string {
	switch c {
	case ClockIn:
		return "clock in"
	case ViewReports:
		return "view reports"
	case ManageDirectory:
		return "manage directory"
	case ManageProjects:
		return "manage projects"
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

// Can reports whether the role grants c. Every role may record its own
// attendance; everything administrative is reserved to admins.
func (r Role) Can(c Capability) bool {
	switch c {
	case ClockIn:
		return true
	case ViewReports, ManageDirectory, ManageProjects:
		return r == RoleAdmin
	}
	return false
}

type Worker struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Role       Role      `json:"role"`
	Active     bool      `json:"active"`
	EmployeeID uuid.UUID `json:"employee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewWorker(username, email string, role Role) (*Worker, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if role == "" {
		role = RoleUser
	}
	return &Worker{
		Username:   username,
		Email:      strings.TrimSpace(email),
		Role:       role,
		Active:     true,
		EmployeeID: uuid.New(),
	}, nil
}

func (w *Worker) FullName() string {
	return strings.TrimSpace(w.FirstName + " " + w.LastName)
}

// Forbidden is returned when an acting worker lacks a capability.
type Forbidden struct {
	Username   string
	Capability Capability
}

func (e *Forbidden) Error() string {
	return fmt.Sprintf("%s is not allowed to %s", e.Username, e.Capability)
}

// Require returns a *Forbidden error unless w is active and its role
// grants c.
func (w *Worker) Require(c Capability) error {
	if !w.Active || !w.Role.Can(c) {
		return &Forbidden{Username: w.Username, Capability: c}
	}
	return nil
}
