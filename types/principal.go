package types

// Role identifies the kind of principal behind a request.
type Role string

// Supported roles.
const (
	RoleAnonymous Role = ""
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

// Principal is the caller identity attached to a request by the
// identity layer. The zero value is an anonymous caller.
type Principal struct {
	Role  Role
	ID    string
	Email string
}

// Anonymous returns the anonymous principal.
func Anonymous() Principal {
	return Principal{}
}

// IsAuthenticated reports whether the caller presented a valid identity.
func (p Principal) IsAuthenticated() bool {
	return p.Role != RoleAnonymous && p.ID != ""
}

// IsAdmin reports whether the caller is an administrator.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin && p.ID != ""
}

// IsUser reports whether the caller is a registered, non-admin user.
func (p Principal) IsUser() bool {
	return p.Role == RoleUser && p.ID != ""
}
