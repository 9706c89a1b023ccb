package web

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/util"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

const pageLogRows = 15

type IndexPageData struct {
	Title    string
	Version  string
	LocalID  string
	Ready    bool
	Alerts   bool
	Flash    string
	Guidance string
	Buttons  []ButtonView
	Peers    []PeerView
	Log      []LogView
}

type ButtonView struct {
	ID    string
	Label string
	Icon  string
	Color string
}

type PeerView struct {
	RemoteID string
	Open     bool
	SinceAgo string
}

type LogView struct {
	Icon     string
	Message  string
	Severity domain.Severity
	TimeAgo  string
}

func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		mins := int(duration.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

func loadTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
}

func HandleIndex(c *gin.Context, d Deck) {
	data := IndexPageData{
		Title:   util.Name,
		Version: util.GetVersion(),
		LocalID: d.LocalID(),
		Ready:   d.Ready(),
		Alerts:  d.AlertsEnabled(),
		Flash:   c.Query("msg"),
	}
	if p := clientPlatform(c); !p.Supported() {
		data.Guidance = p.Guidance()
	}

	for _, b := range d.Buttons() {
		data.Buttons = append(data.Buttons, ButtonView{ID: b.ID, Label: b.Label, Icon: b.Icon, Color: b.Color})
	}
	for _, p := range d.Peers() {
		data.Peers = append(data.Peers, PeerView{RemoteID: p.RemoteID, Open: p.Open, SinceAgo: formatTimeAgo(p.Since)})
	}
	for _, e := range d.Entries(pageLogRows) {
		data.Log = append(data.Log, LogView{Icon: e.Icon(), Message: e.Message, Severity: e.Severity, TimeAgo: formatTimeAgo(e.Time)})
	}

	c.HTML(http.StatusOK, "index.html", data)
}

// redirectHome sends a form post back to the page with a one-line flash.
func redirectHome(c *gin.Context, msg string) {
	c.Redirect(http.StatusSeeOther, "/?msg="+url.QueryEscape(msg))
}

func HandlePressForm(c *gin.Context, d Deck) {
	msg, err := d.Press(c.Param("id"))
	if err != nil {
		redirectHome(c, err.Error())
		return
	}
	label := msg.ButtonID
	if b, ok := d.Button(msg.ButtonID); ok {
		label = b.Label
	}
	redirectHome(c, fmt.Sprintf("Sent %s to %d peer(s)", label, len(d.Peers())))
}

func HandlePairForm(c *gin.Context, d Deck) {
	target := c.PostForm("peerId")
	if err := d.Connect(target); err != nil {
		log.Printf("[web] Pair with %q failed: %v", target, err)
		redirectHome(c, err.Error())
		return
	}
	redirectHome(c, "Connecting to "+target)
}

func HandleAlertsForm(c *gin.Context, d Deck) {
	on := c.PostForm("enabled") == "on"
	if err := d.SetAlerts(on); err != nil {
		redirectHome(c, err.Error())
		return
	}
	if on {
		redirectHome(c, "Alerts on")
		return
	}
	redirectHome(c, "Alerts off")
}
