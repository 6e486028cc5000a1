package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/calyxlabs/curator/internal/services"
	"github.com/calyxlabs/curator/internal/utils"
)

type WSHandler struct {
	docs     services.DocumentService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(docs services.DocumentService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		docs:  docs,
		redis: rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// DocumentProgressWS streams processing and review progress for one document.
// One-way: workers and the review service publish JSON to Redis, we forward.
func (h *WSHandler) DocumentProgressWS(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	docID := c.Param("id")
	if docID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.DocumentProgressWS", "missing document id", nil))
		return
	}

	// the document must exist and be visible to the caller
	if _, err := h.docs.Get(c.Request.Context(), p, docID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, services.ProgressChannel(docID))
	defer pubsub.Close()

	// reader: only pongs and close frames are expected from the client
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}
