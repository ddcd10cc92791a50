package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"fridgetrack/internal/inventory"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

const (
	pingPeriod   = 30 * time.Second
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
)

// wsConnection streams store change events to one client.
type wsConnection struct {
	conn   *websocket.Conn
	events <-chan inventory.Event
	cancel func()
	log    zerolog.Logger
}

// handleEvents upgrades the connection and streams store change events
// until the client disconnects.
func (s *Server) handleEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	events, cancel := s.store.Subscribe()
	ws := &wsConnection{conn: conn, events: events, cancel: cancel, log: s.log}

	go ws.writePump()
	go ws.readPump()
}

// writePump forwards store events to the client and keeps the connection
// alive with pings.
func (ws *wsConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-ws.events:
			if !ok {
				ws.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			ws.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.conn.WriteJSON(ev); err != nil {
				ws.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			ws.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and tears the subscription down when
// the connection drops.
func (ws *wsConnection) readPump() {
	defer func() {
		ws.cancel()
		ws.conn.Close()
	}()

	ws.conn.SetReadLimit(512 * 1024) // 512KB
	ws.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	ws.conn.SetPongHandler(func(string) error {
		ws.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := ws.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ws.log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}
	}
}
