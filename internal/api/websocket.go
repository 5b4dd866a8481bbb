package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/abdulachik/postcraft/internal/pipeline"
)

// EventBatchStatus is sent once when a websocket connects, carrying the
// stored state of the batch.
const EventBatchStatus = "batch_status"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// BatchWebSocket streams progress events for one batch until it finishes
// or the client goes away.
func (h *Handler) BatchWebSocket(c *gin.Context) {
	batchID := c.Param("batch_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "batch_id", batchID, "error", err)
		return
	}
	defer conn.Close()

	sub := h.hub.subscribe(batchID)
	defer h.hub.unsubscribe(sub)

	if status, err := h.pipeline.BatchStatus(c.Request.Context(), batchID); err == nil {
		snapshot := pipeline.Event{
			Type:      EventBatchStatus,
			BatchID:   batchID,
			Status:    status.Status,
			Completed: status.CompletedCount + status.FailedCount,
			Total:     status.TotalCount,
		}
		if err := writeJSON(conn, snapshot); err != nil {
			return
		}
		if status.Status != pipeline.StatusGenerating {
			closeNormal(conn)
			return
		}
	}

	// reads only serve pongs and notice the client leaving
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.send:
			if !ok {
				closeNormal(conn)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "batch finished")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
