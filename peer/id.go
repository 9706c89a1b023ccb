package peer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID mints a peer identifier for an endpoint reachable at addr.
// Identifiers have the form "<uuid>@<host:port>"; the address part is what
// remote peers dial.
func NewID(addr string) string {
	return uuid.New().String() + "@" + addr
}

// CanonicalID validates id and returns it without surrounding whitespace.
// Registries key connections by this form.
func CanonicalID(id string) (string, error) {
	token, addr, err := ParseID(id)
	if err != nil {
		return "", err
	}
	return token + "@" + addr, nil
}

// ParseID splits an identifier into its token and dial address.
func ParseID(id string) (token, addr string, err error) {
	id = strings.TrimSpace(id)
	token, addr, found := strings.Cut(id, "@")
	if !found || token == "" || addr == "" {
		return "", "", fmt.Errorf("invalid peer id %q: expected <token>@<host:port>", id)
	}
	if _, err := uuid.Parse(token); err != nil {
		return "", "", fmt.Errorf("invalid peer id %q: %w", id, err)
	}
	if !strings.Contains(addr, ":") {
		return "", "", fmt.Errorf("invalid peer id %q: address needs a port", id)
	}
	return token, addr, nil
}
