package web

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/deemkeen/deckhand/util"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
)

const feedItems = 50

// handleFeed publishes the activity log as RSS so a feed reader can follow
// a headless node.
func handleFeed(c *gin.Context, d Deck) {
	entries := d.Entries(feedItems)

	link := fmt.Sprintf("http://%s/", c.Request.Host)
	feed := &feeds.Feed{
		Title:       fmt.Sprintf("%s activity", util.Name),
		Link:        &feeds.Link{Href: link},
		Description: fmt.Sprintf("Activity of node %s", d.LocalID()),
		Created:     time.Now(),
	}

	for i, e := range entries {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          fmt.Sprintf("%s#%d-%d", link, e.Time.UnixNano(), i),
			Title:       fmt.Sprintf("[%s] %s", e.Severity, util.TruncateWidth(e.Message, 60)),
			Link:        &feeds.Link{Href: link + "api/log"},
			Description: e.Message,
			Created:     e.Time,
		})
	}
	if len(entries) > 0 {
		feed.Updated = entries[0].Time
	}

	rss, err := feed.ToRss()
	if err != nil {
		log.Printf("[web] Failed to render feed: %v", err)
		c.String(http.StatusInternalServerError, "Failed to render feed")
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
