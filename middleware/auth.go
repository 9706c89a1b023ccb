package middleware

import (
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/deemkeen/deckhand/util"
	gossh "golang.org/x/crypto/ssh"
)

// KeyAllowlist holds the public keys allowed to open a session. An empty
// allowlist admits every key.
type KeyAllowlist struct {
	keys []ssh.PublicKey
}

// NewKeyAllowlist parses authorized_keys style lines.
func NewKeyAllowlist(lines []string) (*KeyAllowlist, error) {
	a := &KeyAllowlist{}
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, _, _, _, err := gossh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("allowed key %d: %w", i+1, err)
		}
		a.keys = append(a.keys, key)
	}
	return a, nil
}

func (a *KeyAllowlist) Len() int {
	return len(a.keys)
}

func (a *KeyAllowlist) Allows(key ssh.PublicKey) bool {
	if len(a.keys) == 0 {
		return true
	}
	if key == nil {
		return false
	}
	for _, k := range a.keys {
		if ssh.KeysEqual(k, key) {
			return true
		}
	}
	return false
}

// PublicKeyHandler rejects disallowed keys during the handshake.
func (a *KeyAllowlist) PublicKeyHandler() ssh.PublicKeyHandler {
	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		if a.Allows(key) {
			return true
		}
		log.Printf("Rejected key %s for %s", util.PkToHash(util.PublicKeyToString(key))[:16], ctx.RemoteAddr())
		return false
	}
}

// AuthMiddleware closes sessions whose key is not on the allowlist and logs
// the ones that get through.
func AuthMiddleware(a *KeyAllowlist) wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			if !a.Allows(s.PublicKey()) {
				log.Printf("Blocked session from %s", s.RemoteAddr())
				wish.Println(s, "This deck only accepts its owner's keys.")
				s.Close()
				return
			}
			util.LogPublicKey(s)
			h(s)
		}
	}
}
