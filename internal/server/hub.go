package server

import (
	"net/http"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/metrics"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSClient is a subscriber to one tip session's feedback events
type WSClient struct {
	conn   *websocket.Conn
	send   chan models.FeedbackEvent
	server *Server
	topic  string
}

type topicMessage struct {
	topic string
	event models.FeedbackEvent
}

// handleTipEvents upgrades the connection and streams confirmed feedback for
// the session until either side closes.
func (s *Server) handleTipEvents(c *gin.Context) {
	sess, ok := s.lookupTip(c)
	if !ok {
		return
	}

	conn, err := s.wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Error("WebSocket upgrade failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "WebSocket upgrade failed"})
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan models.FeedbackEvent, s.wsClientBufferSize),
		server: s,
		topic:  sess.id,
	}

	s.wsMu.Lock()
	if s.stopped {
		s.wsMu.Unlock()
		conn.Close()
		return
	}
	s.wsClients[client] = true
	s.wsMu.Unlock()

	metrics.WebSocketConnectionsTotal.Inc()
	metrics.WebSocketConnectionsActive.Inc()
	s.logger.WithField("client_addr", conn.RemoteAddr()).WithField("session_id", sess.id).Info("WebSocket client connected")

	go client.readPump()
	go client.writePump()
}

// onFeedback queues a confirmed feedback for the session's subscribers
func (s *Server) onFeedback(topic string, event models.FeedbackEvent) {
	s.wsMu.RLock()
	stopped := s.stopped
	s.wsMu.RUnlock()
	if stopped {
		return
	}

	select {
	case s.broadcast <- topicMessage{topic: topic, event: event}:
	default:
		s.logger.WithField("session_id", topic).Warn("Broadcast channel full, dropping feedback event")
	}
}

// broadcastLoop distributes feedback events to the subscribers of their session.
// Sends happen under wsMu so closeClient cannot close a channel mid-send.
func (s *Server) broadcastLoop() {
	for {
		select {
		case msg := <-s.broadcast:
			var slow []*WSClient
			s.wsMu.RLock()
			for client := range s.wsClients {
				if client.topic != msg.topic {
					continue
				}
				select {
				case client.send <- msg.event:
				default:
					slow = append(slow, client)
				}
			}
			s.wsMu.RUnlock()

			for _, client := range slow {
				s.closeClient(client)
			}
		case <-s.stopBroadcast:
			return
		}
	}
}

// closeTopic disconnects every subscriber of a session
func (s *Server) closeTopic(topic string) {
	s.wsMu.RLock()
	var clients []*WSClient
	for client := range s.wsClients {
		if client.topic == topic {
			clients = append(clients, client)
		}
	}
	s.wsMu.RUnlock()

	for _, client := range clients {
		s.closeClient(client)
	}
}

// closeClient closes a WebSocket client connection. Only the first call for a
// client has any effect.
func (s *Server) closeClient(client *WSClient) {
	s.wsMu.Lock()
	if _, ok := s.wsClients[client]; !ok {
		s.wsMu.Unlock()
		return
	}
	delete(s.wsClients, client)
	close(client.send)
	s.wsMu.Unlock()

	if client.conn == nil {
		return
	}
	metrics.WebSocketConnectionsActive.Dec()
	client.conn.Close()
	s.logger.WithField("client_addr", client.conn.RemoteAddr()).Info("WebSocket client disconnected")
}

func (s *Server) websocketClientCount() int {
	s.wsMu.RLock()
	defer s.wsMu.RUnlock()
	return len(s.wsClients)
}

// readPump reads messages from the WebSocket client
func (c *WSClient) readPump() {
	defer func() {
		c.server.closeClient(c)
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.WithError(err).Warn("WebSocket error")
			}
			break
		}
	}
}

// writePump writes messages to the WebSocket client
func (c *WSClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
