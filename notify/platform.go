package notify

import "strings"

// Platform describes the client a notification is meant for. It only
// decides whether notifications can work there and which guidance to show.
type Platform struct {
	MobileSafari bool
	Standalone   bool
}

// DetectPlatform inspects a User-Agent and the display-mode hint. iOS
// browsers all run WebKit, so any iPhone/iPad agent counts as mobile Safari.
func DetectPlatform(userAgent string, standalone bool) Platform {
	ua := strings.ToLower(userAgent)
	mobile := strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ipod")
	return Platform{MobileSafari: mobile, Standalone: standalone}
}

// Supported is false for mobile Safari outside an installed app.
func (p Platform) Supported() bool {
	return !p.MobileSafari || p.Standalone
}

func (p Platform) Guidance() string {
	switch {
	case !p.Supported():
		return "Notifications need the app installed: tap Share, then \"Add to Home Screen\", and open deckhand from the home screen."
	case p.MobileSafari:
		return "Allow notifications when prompted. You can change this later in Settings > Notifications."
	default:
		return "Configure a push URL to get notified in the background, or keep an SSH session attached for in-terminal toasts."
	}
}
