package cli

import (
	"errors"
	"fmt"
)

func (h *Handler) handlePeers(args []string) error {
	conns := h.deck.Peers()

	if h.output.IsJSON() {
		items := make([]PeerItem, 0, len(conns))
		for _, c := range conns {
			items = append(items, PeerItem{ID: c.RemoteID, Open: c.Open, Since: c.Since})
		}
		h.output.JSON(PeersResponse{LocalID: h.deck.LocalID(), Peers: items, Count: len(items)})
		return nil
	}

	if len(conns) == 0 {
		h.output.Println("No peers connected.")
		return nil
	}
	for _, c := range conns {
		state := "open"
		if !c.Open {
			state = "pending"
		}
		h.output.Print("%s (%s, %s)\n", c.RemoteID, state, FormatTimeAgo(c.Since))
	}
	h.output.Print("(%d connected)\n", len(conns))
	return nil
}

// handleConnect dials a peer. The connection opens asynchronously; peers
// shows it once the data channel is up.
func (h *Handler) handleConnect(args []string) error {
	if len(args) == 0 {
		return h.fail(errors.New("usage: connect <peerId>"))
	}
	target := args[0]

	if err := h.deck.Connect(target); err != nil {
		return h.fail(fmt.Errorf("connect %s: %w", target, err))
	}

	if h.output.IsJSON() {
		h.output.JSON(StatusResponse{Status: "connecting", PeerID: target})
	} else {
		h.output.Success("Connecting to %s\n", target)
	}
	return nil
}

func (h *Handler) handleDisconnect(args []string) error {
	if len(args) == 0 {
		return h.fail(errors.New("usage: disconnect <peerId>"))
	}
	target := args[0]

	if !h.deck.Disconnect(target) {
		return h.fail(fmt.Errorf("not connected to %s", target))
	}

	if h.output.IsJSON() {
		h.output.JSON(StatusResponse{Status: "disconnected", PeerID: target})
	} else {
		h.output.Success("Disconnected from %s\n", target)
	}
	return nil
}

func (h *Handler) handleWhoami(args []string) error {
	id := h.deck.LocalID()

	if h.output.IsJSON() {
		h.output.JSON(WhoamiResponse{PeerID: id, Ready: h.deck.Ready()})
		return nil
	}
	if id == "" {
		h.output.Println("Not ready yet.")
		return nil
	}
	h.output.Println(id)
	return nil
}
