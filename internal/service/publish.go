package service

import (
	"context"
	"log"

	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/realtime"
	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
)

// Publisher receives change events after they are committed.
type Publisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

const (
	kindListing = "listing"
	kindOffer   = "offer"
	kindMessage = "message"
)

// publish is best-effort: failures are logged.
func publish(ctx context.Context, pub Publisher, topic string, typ realtime.EventType, kind, id string, payload any, audience ...string) {
	if pub == nil {
		return
	}
	ev, err := realtime.NewEvent(topic, typ, kind, id, payload, audience...)
	if err == nil {
		err = pub.Publish(ctx, ev)
	}
	if err != nil {
		log.Printf("[realtime] rid=%s stage=publish_fail topic=%s kind=%s id=%s err=%v", reqctx.RID(ctx), topic, kind, id, err)
	}
}

func publishOffer(ctx context.Context, pub Publisher, typ realtime.EventType, o *model.Offer) {
	publish(ctx, pub, realtime.ListingTopic(o.ListingID), typ, kindOffer, o.ID, NewOfferView(o), o.BuyerUID, o.SellerUID)
}

func publishListing(ctx context.Context, pub Publisher, typ realtime.EventType, l *model.Listing) {
	publish(ctx, pub, realtime.ListingTopic(l.ID), typ, kindListing, l.ID, NewListingView(l))
}

func publishMessage(ctx context.Context, pub Publisher, cv *model.Conversation, m *model.Message) {
	publish(ctx, pub, realtime.ConversationTopic(cv.ID), realtime.EventAdded, kindMessage, m.ID, NewMessageView(m), cv.ParticipantA, cv.ParticipantB)
}
