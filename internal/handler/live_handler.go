package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/novelhub/internal/middleware"
	"github.com/novelhub/internal/repository"
	"github.com/novelhub/internal/service"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LiveHandler streams view counts of a novel over WebSocket
type LiveHandler struct {
	feed      *service.ViewFeed
	novelRepo *repository.NovelRepository
}

// NewLiveHandler creates a new LiveHandler
func NewLiveHandler(feed *service.ViewFeed, novelRepo *repository.NovelRepository) *LiveHandler {
	return &LiveHandler{feed: feed, novelRepo: novelRepo}
}

// Views upgrades the connection and pushes {novelId, views} on every read
// GET /api/v1/novels/:id/views/live
func (h *LiveHandler) Views(c *gin.Context) {
	novelID, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}

	novel, err := h.novelRepo.GetByID(novelID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.LogError("[Live] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe(novelID)
	defer cancel()

	// Reader goroutine: handles pongs and notices the client going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					middleware.LogDebug("[Live] read error: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	if err := writeLive(conn, service.ViewUpdate{NovelID: novel.ID, Views: novel.Views}); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := writeLive(conn, update); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeLive(conn *websocket.Conn, update service.ViewUpdate) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteJSON(update)
}

// RegisterRoutes registers live feed routes
func (h *LiveHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/novels/:id/views/live", h.Views)
}
