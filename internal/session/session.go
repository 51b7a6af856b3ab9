// Package session keeps the marker of who is logged in. A marker is either
// the decimal id of a stored user or AdminMarker; nothing else about the
// identity is stored.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Key is the name the marker is stored under.
const Key = "balancete_session"

// AdminMarker stands for the built-in administrator.
const AdminMarker = "admin"

var ErrInvalidMarker = errors.New("invalid session marker")

// Storage holds the marker of a single session.
type Storage interface {
	// Get returns the marker, or ok=false when nobody is logged in.
	Get(ctx context.Context) (marker string, ok bool, err error)
	Set(ctx context.Context, marker string) error
	Clear(ctx context.Context) error
}

// UserMarker encodes a stored user id.
func UserMarker(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// ParseMarker decodes a marker into a user id or the admin flag.
func ParseMarker(marker string) (userID int64, admin bool, err error) {
	marker = strings.TrimSpace(marker)
	if marker == AdminMarker {
		return 0, true, nil
	}
	id, err := strconv.ParseInt(marker, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidMarker, marker)
	}
	return id, false, nil
}
