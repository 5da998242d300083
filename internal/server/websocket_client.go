package server

import (
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketClient wraps a WebSocket connection behind the Client interface.
type WebSocketClient struct {
	conn    *websocket.Conn
	readBuf []string // lines buffered when one message carried several

	readMu  sync.Mutex
	writeMu sync.Mutex // gorilla allows only one concurrent writer
}

// NewWebSocketClient creates a WebSocketClient from an upgraded connection.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// ReadLine reads one line from the connection (blocking). A message that
// contains multiple lines is buffered and returned line by line.
func (c *WebSocketClient) ReadLine() (string, error) {
	c.readMu.Lock()
	if len(c.readBuf) > 0 {
		line := c.readBuf[0]
		c.readBuf = c.readBuf[1:]
		c.readMu.Unlock()
		return line, nil
	}
	c.readMu.Unlock()

	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}

	var lines []string
	for _, line := range strings.Split(string(message), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return c.ReadLine()
	}

	c.readMu.Lock()
	c.readBuf = append(c.readBuf, lines[1:]...)
	c.readMu.Unlock()
	return lines[0], nil
}

// WriteLine sends one message to the client. Broadcasts and the session's
// own writes can race, hence the write lock.
func (c *WebSocketClient) WriteLine(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

// Close closes the underlying connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
