package directory

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Role is the closed set of roles the organization knows about. Parse
// instead of comparing raw strings: the employee role is stored with
// inconsistent casing in older records.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleDepartmentHead Role = "Department Head"
	RoleEmployee       Role = "Employee"
	RoleUnknown        Role = ""
)

// ParseRole normalizes a stored role string. "Employee" matching is
// case-insensitive; anything unrecognized maps to RoleUnknown.
func ParseRole(s string) Role {
	switch s {
	case "Admin":
		return RoleAdmin
	case "Department Head":
		return RoleDepartmentHead
	}
	if strings.EqualFold(s, "Employee") {
		return RoleEmployee
	}
	return RoleUnknown
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	EmployeeID     string    `json:"employee_id,omitempty"`
	Role           Role      `json:"role"`
	DepartmentID   string    `json:"department,omitempty"`
	DepartmentName string    `json:"department_name,omitempty"`
	AvatarURL      string    `json:"profile_photo,omitempty"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDepartmentNotFound = errors.New("department not found")
)

// RepositoryAPI is the data access surface for directory lookups.
type RepositoryAPI interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetPasswordForEmail(ctx context.Context, email string) (passwordHash string, userID string, err error)
	GetDepartment(ctx context.Context, id string) (*Department, error)
	DepartmentHeads(ctx context.Context, departmentID string) ([]*User, error)
	DepartmentEmployees(ctx context.Context, departmentID string) ([]*User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]*User, error)
}

// ServiceAPI is what the rest of the application sees of the directory.
type ServiceAPI interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetDepartment(ctx context.Context, id string) (*Department, error)
	Search(ctx context.Context, viewerID, query string, limit int) ([]*User, error)
	SuggestedContacts(ctx context.Context, viewer *User) ([]*User, error)
}
