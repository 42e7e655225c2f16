package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"dedication-board/models"
)

const (
	wsWriteWait  = 5 * time.Second
	wsSendBuffer = 16
)

// wsClient ha una coda propria: solo writePump scrive sulla connessione
type wsClient struct {
	conn *websocket.Conn
	send chan models.WSMessage
}

// Hub tiene traccia dei client WebSocket connessi e inoltra loro gli eventi
type Hub struct {
	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // la board è pubblica
			},
		},
		log: log,
	}
}

// Len restituisce il numero di client connessi
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast accoda il messaggio per tutti i client senza bloccare.
// Un client con la coda piena viene scollegato.
func (h *Hub) Broadcast(messageType string, payload interface{}) {
	msg := models.WSMessage{
		Type:    messageType,
		Payload: payload,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Debug("Client WebSocket troppo lento, rimosso")
			h.removeLocked(c)
		}
	}
}

func (h *Hub) removeLocked(c *wsClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

// HandleWebSocket gestisce le connessioni WebSocket
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Upgrade WebSocket fallito")
		return
	}

	c := &wsClient{conn: conn, send: make(chan models.WSMessage, wsSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)

	// il feed è a senso unico, la lettura serve solo a vedere la chiusura
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	conn.Close()
}

func (h *Hub) writePump(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.log.WithError(err).Debug("Client WebSocket rimosso")
			h.remove(c)
			return
		}
	}
}

// Close scollega tutti i client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
		c.conn.Close()
	}
}
