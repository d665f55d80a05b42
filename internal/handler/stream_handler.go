package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/fleamarket-backend/internal/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/realtime"
	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
	"github.com/shinyyama/fleamarket-backend/internal/session"
	"github.com/shinyyama/fleamarket-backend/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamHandler serves realtime subscriptions over WebSocket: one snapshot
// frame, then one frame per delta.
type StreamHandler struct {
	hub      *realtime.Hub
	offers   service.OfferService
	convs    service.ConversationService
	upgrader websocket.Upgrader
}

func NewStreamHandler(hub *realtime.Hub, offers service.OfferService, convs service.ConversationService, checkOrigin func(*http.Request) bool) *StreamHandler {
	return &StreamHandler{
		hub:    hub,
		offers: offers,
		convs:  convs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *StreamHandler) Listing(c echo.Context) error {
	sess := appmw.SessionFrom(c)
	listingID := c.Param("id")
	if _, err := h.offers.Snapshot(c.Request().Context(), sess, listingID); err != nil {
		return writeError(c, err, "failed to open stream")
	}
	return h.serve(c, sess, realtime.ListingTopic(listingID), func(ctx context.Context) (any, error) {
		return h.offers.Snapshot(ctx, sess, listingID)
	})
}

func (h *StreamHandler) Conversation(c echo.Context) error {
	sess := appmw.SessionFrom(c)
	convID := c.Param("id")
	if _, err := h.convs.Get(c.Request().Context(), sess, convID); err != nil {
		return writeError(c, err, "failed to open stream")
	}
	return h.serve(c, sess, realtime.ConversationTopic(convID), func(ctx context.Context) (any, error) {
		msgs, err := h.convs.History(ctx, sess, convID)
		if err != nil {
			return nil, err
		}
		return messageViews(msgs), nil
	})
}

func (h *StreamHandler) serve(c echo.Context, sess session.Session, topic string, load realtime.Loader) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return nil
	}
	defer conn.Close()

	rid := reqctx.RID(c.Request().Context())
	ctx, cancel := context.WithCancel(reqctx.WithRID(context.Background(), rid))
	defer cancel()

	sub, err := h.hub.Subscribe(ctx, sess.UID, topic, load)
	if err != nil {
		log.Printf("[stream] rid=%s stage=subscribe_fail topic=%s err=%v", rid, topic, err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"), time.Now().Add(writeWait))
		return nil
	}
	defer sub.Close()
	log.Printf("[stream] rid=%s stage=open topic=%s uid=%s", rid, topic, sess.UID)

	// reader: only control frames are expected; any error ends the stream
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber fell behind"))
				log.Printf("[stream] rid=%s stage=dropped topic=%s uid=%s", rid, topic, sess.UID)
				return nil
			}
			ev.Audience = nil
			if err := conn.WriteJSON(ev); err != nil {
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
