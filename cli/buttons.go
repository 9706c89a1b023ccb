package cli

import (
	"errors"
	"fmt"

	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/util"
)

// handleButtons lists the deck in grid order
func (h *Handler) handleButtons(args []string) error {
	buttons := h.deck.Buttons()

	if h.output.IsJSON() {
		items := make([]ButtonItem, 0, len(buttons))
		for _, b := range buttons {
			items = append(items, ButtonItem{ID: b.ID, Label: b.Label, Icon: b.Icon, Color: b.Color, Payload: b.Payload})
		}
		h.output.JSON(ButtonsResponse{Buttons: items, Count: len(items)})
		return nil
	}

	if len(buttons) == 0 {
		h.output.Println("No buttons on this deck.")
		return nil
	}
	for _, b := range buttons {
		h.output.Print("%s  %s  %s\n", util.PadWidth(b.ID, 12), util.PadWidth(b.Label, 20), util.TruncateWidth(b.Payload, 40))
	}
	return nil
}

// handlePress broadcasts a press of the named button
func (h *Handler) handlePress(args []string) error {
	if len(args) == 0 {
		return h.fail(errors.New("usage: press <buttonId>"))
	}

	msg, err := h.deck.Press(args[0])
	if err != nil {
		if errors.Is(err, domain.ErrButtonNotFound) {
			err = fmt.Errorf("no button with id %s", args[0])
		}
		return h.fail(err)
	}

	peers := len(h.deck.Peers())
	if h.output.IsJSON() {
		h.output.JSON(PressResponse{
			ButtonID:  msg.ButtonID,
			Payload:   msg.Payload,
			Peers:     peers,
			Timestamp: msg.Time(),
		})
	} else {
		h.output.Success("Sent %s to %d peer(s)\n", msg.ButtonID, peers)
	}
	return nil
}
