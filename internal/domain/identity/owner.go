// internal/domain/identity/owner.go
package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tells which identity owns a resource
type Kind string

const (
	KindUser  Kind = "user"
	KindGuest Kind = "guest"
)

// GuestPrefix starts every generated guest session id
const GuestPrefix = "guest_"

// Owner is either an authenticated user or an anonymous guest session.
// The zero value owns nothing; use UserOwner or GuestOwner.
type Owner struct {
	kind Kind
	id   string
}

// UserOwner returns the owner identity of an authenticated user
func UserOwner(userID uint) Owner {
	return Owner{kind: KindUser, id: strconv.FormatUint(uint64(userID), 10)}
}

// GuestOwner returns the owner identity of a guest session
func GuestOwner(sessionID string) Owner {
	return Owner{kind: KindGuest, id: sessionID}
}

// Parse rebuilds an Owner from its persisted kind and id
func Parse(kind, id string) (Owner, error) {
	switch Kind(kind) {
	case KindUser:
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil || n == 0 {
			return Owner{}, fmt.Errorf("invalid user owner id %q", id)
		}
		return UserOwner(uint(n)), nil
	case KindGuest:
		if strings.TrimSpace(id) == "" {
			return Owner{}, fmt.Errorf("empty guest session id")
		}
		return GuestOwner(id), nil
	default:
		return Owner{}, fmt.Errorf("unknown owner kind %q", kind)
	}
}

// Kind returns the owner kind
func (o Owner) Kind() Kind { return o.kind }

// ID returns the persisted owner id (decimal user id or guest session id)
func (o Owner) ID() string { return o.id }

// IsZero reports whether o identifies nobody
func (o Owner) IsZero() bool {
	return o.id == "" || (o.kind != KindUser && o.kind != KindGuest)
}

// IsUser reports whether o is an authenticated user
func (o Owner) IsUser() bool { return o.kind == KindUser && o.id != "" }

// IsGuest reports whether o is a guest session
func (o Owner) IsGuest() bool { return o.kind == KindGuest && o.id != "" }

// UserID returns the user id when o is a user
func (o Owner) UserID() (uint, bool) {
	if !o.IsUser() {
		return 0, false
	}
	n, err := strconv.ParseUint(o.id, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

// SessionID returns the guest session id when o is a guest
func (o Owner) SessionID() (string, bool) {
	if !o.IsGuest() {
		return "", false
	}
	return o.id, true
}

func (o Owner) String() string {
	return string(o.kind) + ":" + o.id
}
