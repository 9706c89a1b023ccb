package notify

import (
	"fmt"
	"strings"

	"github.com/deemkeen/deckhand/domain"
	"github.com/tidwall/gjson"
)

const maxBodyLen = 240

// FromMessage builds the notification for an inbound press. Payloads are
// opaque; common fields are probed so a {"message": "..."} payload reads
// naturally, and anything else is shown as raw JSON.
func FromMessage(msg domain.BroadcastMessage) Notification {
	n := Notification{
		Title: fmt.Sprintf("Deck: %s", msg.ButtonID),
		Tag:   msg.ButtonID,
		Time:  msg.Time(),
	}

	payload := gjson.ParseBytes(msg.Payload)
	switch {
	case payload.Type == gjson.String:
		n.Body = payload.String()
	case payload.IsObject():
		if t := payload.Get("title"); t.Exists() && t.String() != "" {
			n.Title = t.String()
		}
		for _, key := range []string{"message", "text", "body"} {
			if v := payload.Get(key); v.Exists() {
				n.Body = v.String()
				break
			}
		}
		if n.Body == "" {
			n.Body = payload.Raw
		}
	case payload.Exists() && payload.Type != gjson.Null:
		n.Body = payload.Raw
	}

	if n.Body == "" {
		n.Body = "Button pressed"
	}
	n.Body = clip(strings.TrimSpace(n.Body), maxBodyLen)
	return n
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// TestNotification is the fixed message sent by the manual test action.
func TestNotification() Notification {
	return Notification{
		Title: "deckhand test",
		Body:  "Test notification: if you can read this, alerts work.",
		Tag:   "test",
	}
}
