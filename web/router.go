package web

import (
	"context"
	"image"
	"net/http"

	"github.com/deemkeen/deckhand/assist"
	"github.com/deemkeen/deckhand/domain"
	"github.com/deemkeen/deckhand/notify"
	"github.com/deemkeen/deckhand/peer"
	"github.com/deemkeen/deckhand/registry"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	apiRate      = 10
	apiBurst     = 20
	maxJSONBytes = 64 * 1024
)

// Deck is what the HTTP API drives.
type Deck interface {
	LocalID() string
	Ready() bool
	Buttons() []domain.ButtonConfig
	Button(id string) (domain.ButtonConfig, bool)
	CreateButton(b domain.ButtonConfig) (domain.ButtonConfig, error)
	UpdateButton(b domain.ButtonConfig) (domain.ButtonConfig, error)
	DeleteButton(id string) error
	ResetButtons() error
	Press(buttonID string) (domain.BroadcastMessage, error)
	Peers() []registry.Connection
	Connect(target string) error
	Disconnect(remoteID string) bool
	QRPNG() []byte
	ScanAndConnect(img image.Image) (string, error)
	Entries(limit int) []domain.LogEntry
	AlertsEnabled() bool
	SetAlerts(on bool) error
	TestNotifyOn(ctx context.Context, p notify.Platform) notify.Result
	ResetPushPermission() error
	Suggest(ctx context.Context, description string) (assist.Suggestion, error)
}

// NewRouter builds the node's HTTP surface. peerHandler serves the data
// channel and is mounted uncompressed and unlimited.
func NewRouter(d Deck, peerHandler http.Handler) *gin.Engine {
	g := gin.New()
	g.Use(gin.Recovery())
	g.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{peer.Path})))

	if peerHandler != nil {
		g.GET(peer.Path, gin.WrapH(peerHandler))
	}

	g.SetHTMLTemplate(loadTemplates())
	g.GET("/", func(c *gin.Context) { HandleIndex(c, d) })

	forms := g.Group("/deck")
	forms.Use(RateLimitMiddleware(NewRateLimiter(rate.Limit(apiRate), apiBurst)), MaxBytesMiddleware(maxJSONBytes))
	{
		forms.POST("/press/:id", func(c *gin.Context) { HandlePressForm(c, d) })
		forms.POST("/pair", func(c *gin.Context) { HandlePairForm(c, d) })
		forms.POST("/alerts", func(c *gin.Context) { HandleAlertsForm(c, d) })
	}

	g.GET("/healthz", func(c *gin.Context) { handleHealth(c, d) })
	g.GET("/log.rss", func(c *gin.Context) { handleFeed(c, d) })

	api := g.Group("/api")
	api.Use(RateLimitMiddleware(NewRateLimiter(rate.Limit(apiRate), apiBurst)))

	limited := api.Group("")
	limited.Use(MaxBytesMiddleware(maxJSONBytes))
	{
		limited.GET("/buttons", func(c *gin.Context) { handleListButtons(c, d) })
		limited.POST("/buttons", func(c *gin.Context) { handleCreateButton(c, d) })
		limited.POST("/buttons/reset", func(c *gin.Context) { handleResetButtons(c, d) })
		limited.PUT("/buttons/:id", func(c *gin.Context) { handleUpdateButton(c, d) })
		limited.DELETE("/buttons/:id", func(c *gin.Context) { handleDeleteButton(c, d) })
		limited.POST("/buttons/:id/press", func(c *gin.Context) { handlePress(c, d) })

		limited.GET("/peers", func(c *gin.Context) { handlePeers(c, d) })
		limited.DELETE("/peers", func(c *gin.Context) { handleDisconnect(c, d) })
		limited.POST("/pair", func(c *gin.Context) { handlePair(c, d) })
		limited.GET("/pair/qr.png", func(c *gin.Context) { handleQR(c, d) })

		limited.GET("/log", func(c *gin.Context) { handleLog(c, d) })

		limited.GET("/alerts", func(c *gin.Context) { handleGetAlerts(c, d) })
		limited.PUT("/alerts", func(c *gin.Context) { handleSetAlerts(c, d) })
		limited.POST("/notify/test", func(c *gin.Context) { handleTestNotify(c, d) })
		limited.GET("/notify/guidance", handleGuidance)
		limited.DELETE("/notify/permission", func(c *gin.Context) { handleResetPermission(c, d) })

		limited.POST("/assist", func(c *gin.Context) { handleAssist(c, d) })
	}

	// Uploads get their own, larger cap.
	api.POST("/pair/scan", func(c *gin.Context) { handleScan(c, d) })

	return g
}
