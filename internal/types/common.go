package types

import "github.com/gofrs/uuid"

// HTTP Header Constants
const (
	HeaderUID           = "uid"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
)

// Authentication Constants
const (
	BearerPrefix = "Bearer "
)

// UserCtxName is the fiber Locals key holding the resolved UserContext
const UserCtxName = "user"

// Common Values
const (
	UserRole  = "user"
	AdminRole = "admin"
)

// UserContext is the resolved actor identity handed to every mutating operation.
// The zero value is the anonymous actor.
type UserContext struct {
	UserID      uuid.UUID `json:"uid"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	SystemRole  string    `json:"role"`
}

// Anonymous is the explicit "no actor" sentinel.
var Anonymous = UserContext{}

// IsAuthenticated reports whether the context carries a real user id.
func (u UserContext) IsAuthenticated() bool {
	return u.UserID != uuid.Nil
}

// IsAdmin reports whether the user holds the admin system role.
func (u UserContext) IsAdmin() bool {
	return u.IsAuthenticated() && u.SystemRole == AdminRole
}
