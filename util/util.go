package util

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/ssh"
	"github.com/mattn/go-runewidth"
	gossh "golang.org/x/crypto/ssh"
)

//go:embed version.txt
var embeddedVersion string

func LogPublicKey(s ssh.Session) {
	log.Printf("%s@%s opened a new ssh-session..", s.User(), s.RemoteAddr())
}

func PublicKeyToString(s ssh.PublicKey) string {
	return strings.TrimSpace(string(gossh.MarshalAuthorizedKey(s)))
}

func PkToHash(pk string) string {
	h := sha256.New()
	h.Write([]byte(pk))
	return hex.EncodeToString(h.Sum(nil))
}

func GetVersion() string {
	return strings.TrimSpace(embeddedVersion)
}

func GetNameAndVersion() string {
	return fmt.Sprintf("%s / %s", Name, GetVersion())
}

// TruncateWidth cuts s to at most width terminal cells, appending an ellipsis
// when something was dropped. Wide runes (emoji, CJK) count as two cells.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// PadWidth right-pads s with spaces to exactly width cells.
func PadWidth(s string, width int) string {
	return runewidth.FillRight(TruncateWidth(s, width), width)
}
