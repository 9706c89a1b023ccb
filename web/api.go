package web

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/deemkeen/deckhand/assist"
	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/notify"
	"github.com/deemkeen/deckhand/peer"
	"github.com/deemkeen/deckhand/util"
	"github.com/gin-gonic/gin"
)

const defaultLogLimit = 50

type pairRequest struct {
	PeerID string `json:"peerId"`
}

type alertsRequest struct {
	Enabled *bool `json:"enabled"`
}

type assistRequest struct {
	Description string `json:"description"`
}

// ResultResponse is the JSON shape of a notification dispatch.
type ResultResponse struct {
	Outcome  notify.Outcome `json:"outcome"`
	Channel  string         `json:"channel,omitempty"`
	Error    string         `json:"error,omitempty"`
	Guidance string         `json:"guidance,omitempty"`
}

func NewResultResponse(r notify.Result) ResultResponse {
	resp := ResultResponse{Outcome: r.Outcome, Channel: r.Channel, Guidance: r.Guidance}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}

func abortError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func handleHealth(c *gin.Context, d Deck) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"ready":   d.Ready(),
		"peerId":  d.LocalID(),
		"peers":   len(d.Peers()),
		"version": util.GetVersion(),
	})
}

func handleListButtons(c *gin.Context, d Deck) {
	c.JSON(http.StatusOK, d.Buttons())
}

func handleCreateButton(c *gin.Context, d Deck) {
	var b domain.ButtonConfig
	if err := c.ShouldBindJSON(&b); err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	saved, err := d.CreateButton(b)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func handleUpdateButton(c *gin.Context, d Deck) {
	var b domain.ButtonConfig
	if err := c.ShouldBindJSON(&b); err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	b.ID = c.Param("id")

	saved, err := d.UpdateButton(b)
	switch {
	case errors.Is(err, domain.ErrButtonNotFound):
		abortError(c, http.StatusNotFound, err)
	case err != nil:
		abortError(c, http.StatusBadRequest, err)
	default:
		c.JSON(http.StatusOK, saved)
	}
}

func handleDeleteButton(c *gin.Context, d Deck) {
	err := d.DeleteButton(c.Param("id"))
	switch {
	case errors.Is(err, domain.ErrButtonNotFound):
		abortError(c, http.StatusNotFound, err)
	case err != nil:
		abortError(c, http.StatusInternalServerError, err)
	default:
		c.Status(http.StatusNoContent)
	}
}

func handleResetButtons(c *gin.Context, d Deck) {
	if err := d.ResetButtons(); err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, d.Buttons())
}

func handlePress(c *gin.Context, d Deck) {
	msg, err := d.Press(c.Param("id"))
	if err != nil {
		abortError(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "peers": len(d.Peers())})
}

func handlePeers(c *gin.Context, d Deck) {
	c.JSON(http.StatusOK, gin.H{"localId": d.LocalID(), "peers": d.Peers()})
}

func handleDisconnect(c *gin.Context, d Deck) {
	id := c.Query("peerId")
	if id == "" {
		abortError(c, http.StatusBadRequest, errors.New("peerId is required"))
		return
	}
	if !d.Disconnect(id) {
		abortError(c, http.StatusNotFound, errors.New("not connected to "+id))
		return
	}
	c.Status(http.StatusNoContent)
}

func handlePair(c *gin.Context, d Deck) {
	var req pairRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PeerID == "" {
		abortError(c, http.StatusBadRequest, errors.New("peerId is required"))
		return
	}
	if err := d.Connect(req.PeerID); err != nil {
		abortError(c, connectStatus(err), err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"peerId": req.PeerID})
}

func connectStatus(err error) int {
	if errors.Is(err, peer.ErrNotReady) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func handleQR(c *gin.Context, d Deck) {
	png := d.QRPNG()
	if len(png) == 0 {
		abortError(c, http.StatusServiceUnavailable, peer.ErrNotReady)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/png", png)
}

func handleLog(c *gin.Context, d Deck) {
	limit := defaultLogLimit
	if raw := c.Query("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortError(c, http.StatusBadRequest, errors.New("n must be a non-negative integer"))
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, d.Entries(limit))
}

func handleGetAlerts(c *gin.Context, d Deck) {
	c.JSON(http.StatusOK, gin.H{"enabled": d.AlertsEnabled()})
}

func handleSetAlerts(c *gin.Context, d Deck) {
	var req alertsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		abortError(c, http.StatusBadRequest, errors.New("enabled is required"))
		return
	}
	if err := d.SetAlerts(*req.Enabled); err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": d.AlertsEnabled()})
}

// clientPlatform reads the caller's User-Agent and display-mode hint, sent
// either as ?display-mode=standalone or an X-Display-Mode header.
func clientPlatform(c *gin.Context) notify.Platform {
	mode := c.Query("display-mode")
	if mode == "" {
		mode = c.GetHeader("X-Display-Mode")
	}
	return notify.DetectPlatform(c.GetHeader("User-Agent"), mode == "standalone")
}

func handleTestNotify(c *gin.Context, d Deck) {
	res := d.TestNotifyOn(c.Request.Context(), clientPlatform(c))
	c.JSON(http.StatusOK, NewResultResponse(res))
}

func handleGuidance(c *gin.Context) {
	p := clientPlatform(c)
	c.JSON(http.StatusOK, gin.H{"supported": p.Supported(), "guidance": p.Guidance()})
}

func handleResetPermission(c *gin.Context, d Deck) {
	if err := d.ResetPushPermission(); err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func handleAssist(c *gin.Context, d Deck) {
	var req assistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}

	s, err := d.Suggest(c.Request.Context(), req.Description)
	switch {
	case errors.Is(err, assist.ErrMissingCredential):
		abortError(c, http.StatusServiceUnavailable, err)
	case errors.Is(err, assist.ErrMalformedResponse):
		abortError(c, http.StatusBadGateway, err)
	case err != nil:
		log.Printf("[web] Suggestion failed: %v", err)
		abortError(c, http.StatusBadGateway, err)
	default:
		c.JSON(http.StatusOK, s)
	}
}
