package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deemkeen/deckhand/notify"
)

const defaultLogLimit = 20

// handleLog shows the activity log, newest first
func (h *Handler) handleLog(args []string) error {
	limit := defaultLogLimit

	for i := 0; i < len(args); i++ {
		if args[i] == "-n" && i+1 < len(args) {
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return h.fail(fmt.Errorf("invalid value for -n: %s", args[i+1]))
			}
			if n < 1 {
				return h.fail(fmt.Errorf("-n must be at least 1"))
			}
			limit = n
			i++
		}
	}

	entries := h.deck.Entries(limit)

	if h.output.IsJSON() {
		items := make([]LogItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, LogItem{Message: e.Message, Severity: string(e.Severity), CreatedAt: e.Time})
		}
		h.output.JSON(LogResponse{Entries: items, Count: len(items)})
		return nil
	}

	if len(entries) == 0 {
		h.output.Println("No activity yet.")
		return nil
	}
	for _, e := range entries {
		h.output.Print("%s %s (%s)\n", e.Icon(), e.Message, FormatTimeAgo(e.Time))
	}
	return nil
}

// handleAlerts shows the alerts flag, or sets it with on/off
func (h *Handler) handleAlerts(args []string) error {
	if len(args) > 0 {
		var on bool
		switch strings.ToLower(args[0]) {
		case "on", "true", "1":
			on = true
		case "off", "false", "0":
			on = false
		default:
			return h.fail(fmt.Errorf("usage: alerts [on|off]"))
		}
		if err := h.deck.SetAlerts(on); err != nil {
			return h.fail(err)
		}
	}

	enabled := h.deck.AlertsEnabled()
	if h.output.IsJSON() {
		h.output.JSON(AlertsResponse{Enabled: enabled})
	} else if enabled {
		h.output.Println("Alerts are on.")
	} else {
		h.output.Println("Alerts are off.")
	}
	return nil
}

// handleTestNotify runs a test notification through the same chain incoming
// presses use. A failed delivery is reported and returned as an error.
func (h *Handler) handleTestNotify(args []string) error {
	res := h.deck.TestNotify(h.ctx)

	if h.output.IsJSON() {
		resp := NotifyResponse{Outcome: string(res.Outcome), Channel: res.Channel, Guidance: res.Guidance}
		if res.Err != nil {
			resp.Error = res.Err.Error()
		}
		h.output.JSON(resp)
	} else {
		switch res.Outcome {
		case notify.OutcomePrimary:
			h.output.Success("Delivered via %s.\n", res.Channel)
		case notify.OutcomeFallback:
			h.output.Success("Delivered via %s (fallback: %v).\n", res.Channel, res.Err)
		case notify.OutcomeSkipped:
			h.output.Println("Alerts are off; nothing was sent.")
		case notify.OutcomeUnsupported:
			h.output.Println(res.Guidance)
		default:
			h.output.Print("Notification failed: %v\n", res.Err)
		}
	}

	if res.Outcome == notify.OutcomeFailed {
		return fmt.Errorf("test notification failed: %w", res.Err)
	}
	return nil
}
