package marketclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Stream is an open subscription. Snapshot holds the first frame; Events
// yields the deltas and is closed when the server ends the stream or Close
// is called.
type Stream struct {
	Snapshot Event

	conn   *websocket.Conn
	events chan Event
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

func (s *Stream) Events() <-chan Event {
	return s.events
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *Stream) read() {
	defer close(s.events)
	defer s.Close()
	for {
		var ev Event
		if err := s.conn.ReadJSON(&ev); err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, websocket.ErrCloseSent) {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// Subscribe opens a stream at path (for example /api/listings/{id}/stream)
// and waits for the snapshot frame.
func (c *Client) Subscribe(ctx context.Context, sess Session, path string) (*Stream, error) {
	wsURL := c.baseURL + path
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	header := http.Header{}
	c.authorize(header, sess)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: err.Error()}
		}
		return nil, err
	}
	s := &Stream{conn: conn, events: make(chan Event, 64), done: make(chan struct{})}
	if err := conn.ReadJSON(&s.Snapshot); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if s.Snapshot.Type != "snapshot" {
		_ = conn.Close()
		return nil, fmt.Errorf("first frame is %q, want snapshot", s.Snapshot.Type)
	}
	go s.read()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

// SubscribeListing streams a listing with its visible offers.
func (c *Client) SubscribeListing(ctx context.Context, sess Session, listingID string) (*Stream, *ListingSnapshot, error) {
	s, err := c.Subscribe(ctx, sess, "/api/listings/"+esc(listingID)+"/stream")
	if err != nil {
		return nil, nil, err
	}
	var snap ListingSnapshot
	if err := json.Unmarshal(s.Snapshot.Data, &snap); err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	return s, &snap, nil
}

// SubscribeConversation streams the messages of a conversation.
func (c *Client) SubscribeConversation(ctx context.Context, sess Session, convID string) (*Stream, []Message, error) {
	s, err := c.Subscribe(ctx, sess, "/api/conversations/"+esc(convID)+"/stream")
	if err != nil {
		return nil, nil, err
	}
	var msgs []Message
	if err := json.Unmarshal(s.Snapshot.Data, &msgs); err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	return s, msgs, nil
}
