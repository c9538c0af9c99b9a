package auth

// Role is the capability level carried in a token
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Principal is the authenticated caller of a request. It is built from
// validated token claims and handed to services explicitly.
type Principal struct {
	UserID uint
	Email  string
	Role   Role
}

// IsAdmin reports whether the principal may perform admin operations.
// A nil principal is anonymous.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Owns reports whether the principal is the given user
func (p *Principal) Owns(userID *uint) bool {
	return p != nil && userID != nil && *userID == p.UserID
}
