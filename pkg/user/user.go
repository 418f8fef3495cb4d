package user

import (
	"time"

	"github.com/google/uuid"
)

// Role governs what a user may do. CSS users author fund requests, CGTSIM
// admins review them. The viewer role is recognized but carries no data
// access; services refuse it.
type Role string

const (
	RoleAdminCGTSIM Role = "admin_cgtsim"
	RoleUserCSS     Role = "user_css"
	RoleViewer      Role = "viewer"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdminCGTSIM, RoleUserCSS, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID
	Username  string
	FirstName string
	LastName  string
	Email     string
	Role      Role
	// CSSID binds a CSS user to the unit they request funds for. Nil for
	// admins and viewers.
	CSSID     *uuid.UUID
	CSSCode   string
	CSSName   string
	CreatedAt time.Time
}

func (u User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
