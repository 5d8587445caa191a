package auth

import "context"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleMember   Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleMember:
		return true
	}
	return false
}

// Claims is the caller identity carried by an access token.
type Claims struct {
	UserID   string
	TenantID string
	Role     Role
	// PersonID links a member account to the person it records for.
	PersonID *string
}

// CanAccessPerson reports whether the caller may read or write attendance
// for personID. Operators and admins see the whole tenant.
func (c Claims) CanAccessPerson(personID string) bool {
	if c.Role != RoleMember {
		return true
	}
	return c.PersonID != nil && *c.PersonID == personID
}

type claimsKey struct{}

func ContextWithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}
