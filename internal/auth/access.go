package auth

import "github.com/erauner12/genvault/internal/store"

// IsSuperuser reports whether u may manage every record
func IsSuperuser(u *store.User) bool {
	return u != nil && u.IsSuperuser
}

// CanAccess applies the owner-or-superuser rule
func CanAccess(u *store.User, ownerID string) bool {
	if u == nil {
		return false
	}
	return u.IsSuperuser || u.ID == ownerID
}
