package middleware

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	gossh "golang.org/x/crypto/ssh"
)

func newKey(t *testing.T) (gossh.PublicKey, string) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return key, string(gossh.MarshalAuthorizedKey(key))
}

func TestKeyAllowlist(t *testing.T) {
	owner, ownerLine := newKey(t)
	stranger, _ := newKey(t)

	t.Run("empty admits everyone", func(t *testing.T) {
		a, err := NewKeyAllowlist(nil)
		if err != nil {
			t.Fatal(err)
		}
		if !a.Allows(stranger) {
			t.Error("Expected empty allowlist to admit any key")
		}
	})

	t.Run("only listed keys", func(t *testing.T) {
		a, err := NewKeyAllowlist([]string{"# laptop", ownerLine + " owner@laptop", ""})
		if err != nil {
			t.Fatal(err)
		}
		if a.Len() != 1 {
			t.Fatalf("Expected 1 key, got %d", a.Len())
		}
		if !a.Allows(owner) {
			t.Error("Expected owner key to be allowed")
		}
		if a.Allows(stranger) {
			t.Error("Expected stranger key to be rejected")
		}
		if a.Allows(nil) {
			t.Error("Expected missing key to be rejected")
		}
	})

	t.Run("malformed line", func(t *testing.T) {
		if _, err := NewKeyAllowlist([]string{ownerLine, "ssh-ed25519 not-base64"}); err == nil {
			t.Error("Expected parse error")
		}
	})
}
