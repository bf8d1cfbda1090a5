// internal/server/handlers/websocket.go

package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"tagpulse/internal/logging"
	"tagpulse/internal/metrics"
)

// Subscriber delivers analysis events to a callback until cancelled.
type Subscriber interface {
	Subscribe(fn func(data []byte)) (cancel func(), err error)
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamClient is one connected consumer of the analysis stream
type streamClient struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	cancel func()
	config WebSocketConfig
}

// AnalysisStreamHandler relays analysis events to WebSocket clients
func AnalysisStreamHandler(sub Subscriber, config WebSocketConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sub == nil {
			http.Error(w, "Analysis stream not available", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn().Err(err).Msg("failed to upgrade to WebSocket")
			return
		}

		client := &streamClient{
			conn:   conn,
			send:   make(chan []byte, 256),
			done:   make(chan struct{}),
			config: config,
		}

		cancel, err := sub.Subscribe(client.enqueue)
		if err != nil {
			logging.Error().Err(err).Msg("failed to subscribe to analysis events")
			conn.Close()
			return
		}
		client.cancel = cancel
		metrics.WebSocketClients.Inc()

		welcome, _ := json.Marshal(map[string]interface{}{
			"type": "welcome",
			"time": time.Now().UTC(),
		})
		client.enqueue(welcome)

		go client.writePump()
		go client.readPump()

		logging.Info().Str("remote", r.RemoteAddr).Msg("analysis stream client connected")
	}
}

// enqueue hands data to the write pump, dropping it for slow consumers
func (c *streamClient) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		logging.Debug().Msg("analysis stream client too slow, dropping event")
	}
}

// readPump drains the connection so control frames are processed
func (c *streamClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

// writePump pumps queued events to the WebSocket connection
func (c *streamClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close releases the subscription and the connection exactly once
func (c *streamClient) close() {
	c.once.Do(func() {
		close(c.done)
		if c.cancel != nil {
			c.cancel()
		}
		c.conn.Close()
		metrics.WebSocketClients.Dec()
		logging.Info().Msg("analysis stream client disconnected")
	})
}
