package gateway

import (
	"encoding/json"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/protocol"
)

const (
	maxMessageSize = 512 * 1024
	// pongs waiting for the writer; extra pings are dropped while it is busy
	pongBacklog = 4
)

// ServeWS handles GET /ws
func (h *Handler) ServeWS(c *gin.Context) {
	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, h.feed, h.logger)
	client.Start()
}

// ClientAdapter pumps one hub subscription onto a websocket connection.
// The writer owns the connection; the reader watches for close and liveness
// and hands ping payloads to the writer to answer.
type ClientAdapter struct {
	conn   net.Conn
	feed   Feed
	sub    *hub.Subscription
	logger *zap.Logger
	once   sync.Once
	pongs  chan []byte

	writeWait time.Duration
	pongWait  time.Duration
}

func NewClient(conn net.Conn, feed Feed, logger *zap.Logger) *ClientAdapter {
	return &ClientAdapter{
		conn:      conn,
		feed:      feed,
		logger:    logger,
		pongs:     make(chan []byte, pongBacklog),
		writeWait: 5 * time.Second,
		pongWait:  60 * time.Second,
	}
}

func (c *ClientAdapter) Start() {
	c.sub = c.feed.Subscribe()
	c.logger.Info("Websocket client connected", zap.Int64("id", c.sub.ID), zap.String("remote", c.ID()))

	go c.writePump()
	go c.readPump()
}

func (c *ClientAdapter) ID() string { return c.conn.RemoteAddr().String() }

// detach drops the subscription once; the writer sees its channel close and
// shuts the connection down.
func (c *ClientAdapter) detach() {
	c.once.Do(func() {
		c.feed.Unsubscribe(c.sub.ID)
	})
}

func (c *ClientAdapter) readPump() {
	defer c.detach()

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			return
		}

		if header.Length > int64(maxMessageSize) {
			c.logger.Warn("Msg too big", zap.Int64("size", header.Length))
			return
		}

		if header.OpCode == ws.OpPing {
			payload := make([]byte, header.Length)
			if _, err := io.ReadFull(c.conn, payload); err != nil {
				return
			}
			if header.Masked {
				ws.Cipher(payload, header.Mask, 0)
			}
			select {
			case c.pongs <- payload:
			default:
			}
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
			continue
		}

		// inbound payloads carry no commands; discard them
		if _, err := io.CopyN(io.Discard, c.conn, header.Length); err != nil {
			return
		}

		switch header.OpCode {
		case ws.OpClose:
			return
		case ws.OpPong, ws.OpText, ws.OpBinary, ws.OpContinuation:
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		}
	}
}

func (c *ClientAdapter) writePump() {
	defer func() {
		c.detach()
		c.conn.Close()
		c.logger.Info("Websocket client disconnected", zap.Int64("id", c.sub.ID))
	}()

	for {
		select {
		case payload := <-c.pongs:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpPong, payload); err != nil {
				return
			}

		case evt, ok := <-c.sub.Events:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
				c.conn.Write(ws.CompiledClose)
				return
			}
			if !c.write(evt) {
				return
			}
		}
	}
}

func (c *ClientAdapter) write(evt hub.Event) bool {
	c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))

	if evt.Name == protocol.EventHeartbeat {
		return wsutil.WriteServerMessage(c.conn, ws.OpPing, nil) == nil
	}

	msg, err := json.Marshal(protocol.WSMessage{Type: evt.Name, Data: evt.Payload})
	if err != nil {
		c.logger.Error("JSON Marshal Error", zap.Error(err), zap.String("event", evt.Name))
		return true
	}
	if err := wsutil.WriteServerText(c.conn, msg); err != nil {
		c.logger.Debug("Websocket write failed", zap.Int64("id", c.sub.ID), zap.Error(err))
		return false
	}
	return true
}
