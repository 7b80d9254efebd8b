package signaling

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/1ureka/p2pmsg/internal/peer"
	"github.com/1ureka/p2pmsg/internal/util"
)

// Client is the socket's view of the signalling service: outbound requests go
// in, inbound events come out. Events closes when the underlying connection
// is lost; Close is idempotent.
type Client interface {
	Send(req peer.Request)
	Events() <-chan peer.Event
	Close() error
}

// wsClient is a Client backed by a single gorilla/websocket connection,
// generalising the teacher's sender/receiver pair (one fixed Offer/Answer/
// Candidate exchange with one peer) into an arbitrary-length request/event
// stream addressed by peer id.
type wsClient struct {
	conn *websocket.Conn

	reqCh   chan peer.Request
	eventCh chan peer.Event

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the signalling service at url, which is expected to
// include whatever authentication the deployment requires as a query
// parameter, the same shape as the teacher's PIN-in-query-string WS URL.
func Dial(ctx context.Context, url string) (Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("signaling: failed to connect to signalling service: %w", err)
	}

	c := &wsClient{
		conn:    conn,
		reqCh:   make(chan peer.Request, 16),
		eventCh: make(chan peer.Event, 16),
		done:    make(chan struct{}),
	}
	go c.writeLoop()
	go c.readLoop()
	return c, nil
}

func (c *wsClient) Send(req peer.Request) {
	select {
	case c.reqCh <- req:
	case <-c.done:
	}
}

func (c *wsClient) Events() <-chan peer.Event { return c.eventCh }

func (c *wsClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *wsClient) writeLoop() {
	for {
		select {
		case req := <-c.reqCh:
			data, err := marshal(req)
			if err != nil {
				util.LogWarning("signaling: dropping unencodable request: %v", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				util.LogError("signaling: write failed: %v", err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsClient) readLoop() {
	defer close(c.eventCh)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		event, err := unmarshal(data)
		if err != nil {
			util.LogWarning("signaling: dropping unreadable message: %v", err)
			continue
		}
		select {
		case c.eventCh <- event:
		case <-c.done:
			return
		}
	}
}
