package services

import (
	"strings"
)

// Actor is the authenticated user performing an operation
type Actor struct {
	UserID   uint
	Username string
	Role     string
}

// Authorize reports whether role is one of allowed. An empty role never passes.
func Authorize(role string, allowed ...string) bool {
	if role == "" {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// Require returns an AuthorizationError unless the actor holds one of the allowed roles
func (a Actor) Require(allowed ...string) error {
	if Authorize(a.Role, allowed...) {
		return nil
	}
	return &AuthorizationError{Message: DeniedMessage(allowed...)}
}

// DeniedMessage is the user facing text for a failed role check
func DeniedMessage(allowed ...string) string {
	return "Access denied. Required role: " + strings.Join(allowed, ", ")
}
