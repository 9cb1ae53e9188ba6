package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"airbnb-dashboard/crossfilter"
	"airbnb-dashboard/utils"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// selectionMessage is pushed to the browser after every selection change.
type selectionMessage struct {
	Type string                `json:"type"`
	Data crossfilter.Selection `json:"data"`
}

// socketClient relays one session's selection changes to one browser tab.
// send is never closed; done tells the write pump to stop.
type socketClient struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	session   string
	logger    *utils.Logger
}

func (s *Server) handleSelectionSocket(w http.ResponseWriter, r *http.Request) {
	state, ok := s.sessionState(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("[ws] Upgrade failed: %v", err)
		return
	}

	c := &socketClient{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		session: chi.URLParam(r, "id"),
		logger:  s.logger,
	}

	s.metrics.wsClients.Inc()
	defer s.metrics.wsClients.Dec()

	unsubscribe := state.Subscribe(c.push)
	defer unsubscribe()

	// First frame is the current state.
	c.push(state.Snapshot())

	go c.writePump()
	c.readPump()
	s.logger.Debug("[ws] Session %s client disconnected", c.session)
}

// push queues snap for the browser without blocking. When the buffer is full
// the update is dropped; the version field lets the client notice the gap.
func (c *socketClient) push(snap crossfilter.Selection) {
	msg, err := json.Marshal(selectionMessage{Type: "selection", Data: snap})
	if err != nil {
		c.logger.Error("[ws] Encode selection: %v", err)
		return
	}
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("[ws] Session %s client too slow, dropped version %d", c.session, snap.Version)
	}
}

func (c *socketClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump discards inbound frames but keeps the read deadline moving and
// notices when the browser goes away.
func (c *socketClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("[ws] Session %s read: %v", c.session, err)
			}
			return
		}
	}
}

func (c *socketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
