package service

import (
	"time"

	"github.com/shinyyama/fleamarket-backend/internal/model"
)

// Views are the JSON shapes shared by HTTP responses and realtime payloads.

type ListingView struct {
	ID              string   `json:"id"`
	SellerUID       string   `json:"sellerUid"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Price           string   `json:"price"`
	Category        string   `json:"category,omitempty"`
	ImageURLs       []string `json:"imageUrls"`
	IsSold          bool     `json:"isSold"`
	AcceptedOfferID *string  `json:"acceptedOfferId"`
	CreatedAt       string   `json:"createdAt"`
	UpdatedAt       string   `json:"updatedAt"`
}

func NewListingView(l *model.Listing) ListingView {
	return ListingView{
		ID:              l.ID,
		SellerUID:       l.SellerUID,
		Name:            l.Name,
		Description:     l.Description,
		Price:           l.Price.StringFixed(2),
		Category:        l.Category,
		ImageURLs:       l.ImageURLs(),
		IsSold:          l.IsSold,
		AcceptedOfferID: l.AcceptedOfferID,
		CreatedAt:       formatTime(l.CreatedAt),
		UpdatedAt:       formatTime(l.UpdatedAt),
	}
}

type OfferView struct {
	ID        string `json:"id"`
	ListingID string `json:"listingId"`
	BuyerUID  string `json:"buyerUid"`
	SellerUID string `json:"sellerUid"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func NewOfferView(o *model.Offer) OfferView {
	return OfferView{
		ID:        o.ID,
		ListingID: o.ListingID,
		BuyerUID:  o.BuyerUID,
		SellerUID: o.SellerUID,
		Amount:    o.Amount.StringFixed(2),
		Status:    string(o.Status),
		CreatedAt: formatTime(o.CreatedAt),
		UpdatedAt: formatTime(o.UpdatedAt),
	}
}

type MessageView struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversationId"`
	SenderUID      string  `json:"senderUid"`
	Body           string  `json:"body"`
	System         bool    `json:"system"`
	OfferID        *string `json:"offerId,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

func NewMessageView(m *model.Message) MessageView {
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderUID:      m.SenderUID,
		Body:           m.Body,
		System:         m.System,
		OfferID:        m.OfferID,
		CreatedAt:      formatTime(m.CreatedAt),
	}
}

// ListingSnapshot is the initial state of a listing stream.
type ListingSnapshot struct {
	Listing ListingView `json:"listing"`
	Offers  []OfferView `json:"offers"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
