package docstore

import (
	"strings"
	"time"

	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shopspring/decimal"
)

// Prices and amounts are stored as fixed two-decimal strings.

type listingDoc struct {
	ID              string    `firestore:"id"`
	SellerUID       string    `firestore:"sellerUid"`
	Name            string    `firestore:"name"`
	NameLower       string    `firestore:"nameLower"`
	Description     string    `firestore:"description"`
	Price           string    `firestore:"price"`
	Category        string    `firestore:"category"`
	Images          []string  `firestore:"images"`
	IsSold          bool      `firestore:"isSold"`
	AcceptedOfferID *string   `firestore:"acceptedOfferId"`
	CreatedAt       time.Time `firestore:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

func toListingDoc(l *model.Listing) listingDoc {
	d := listingDoc{
		ID:              l.ID,
		SellerUID:       l.SellerUID,
		Name:            l.Name,
		Description:     l.Description,
		Price:           l.Price.StringFixed(2),
		Category:        l.Category,
		Images:          l.ImageURLs(),
		IsSold:          l.IsSold,
		AcceptedOfferID: l.AcceptedOfferID,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
	d.NameLower = strings.ToLower(l.Name)
	return d
}

func (d listingDoc) model() model.Listing {
	price, _ := decimal.NewFromString(d.Price)
	l := model.Listing{
		ID:              d.ID,
		SellerUID:       d.SellerUID,
		Name:            d.Name,
		Description:     d.Description,
		Price:           price,
		Category:        d.Category,
		IsSold:          d.IsSold,
		AcceptedOfferID: d.AcceptedOfferID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for i, url := range d.Images {
		l.Images = append(l.Images, model.ListingImage{
			ID:        uint64(i + 1),
			ListingID: d.ID,
			ImageURL:  url,
			Position:  i,
		})
	}
	return l
}

type offerDoc struct {
	ID        string    `firestore:"id"`
	ListingID string    `firestore:"listingId"`
	BuyerUID  string    `firestore:"buyerUid"`
	SellerUID string    `firestore:"sellerUid"`
	Amount    string    `firestore:"amount"`
	Status    string    `firestore:"status"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func toOfferDoc(o *model.Offer) offerDoc {
	return offerDoc{
		ID:        o.ID,
		ListingID: o.ListingID,
		BuyerUID:  o.BuyerUID,
		SellerUID: o.SellerUID,
		Amount:    o.Amount.StringFixed(2),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func (d offerDoc) model() model.Offer {
	amount, _ := decimal.NewFromString(d.Amount)
	return model.Offer{
		ID:        d.ID,
		ListingID: d.ListingID,
		BuyerUID:  d.BuyerUID,
		SellerUID: d.SellerUID,
		Amount:    amount,
		Status:    model.OfferStatus(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type offerEventDoc struct {
	Seq       int64     `firestore:"seq"`
	OfferID   string    `firestore:"offerId"`
	ListingID string    `firestore:"listingId"`
	OldStatus string    `firestore:"oldStatus"`
	NewStatus string    `firestore:"newStatus"`
	ChangedBy string    `firestore:"changedBy"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func (d offerEventDoc) model() model.OfferEvent {
	return model.OfferEvent{
		ID:        uint64(d.Seq),
		OfferID:   d.OfferID,
		ListingID: d.ListingID,
		OldStatus: model.OfferStatus(d.OldStatus),
		NewStatus: model.OfferStatus(d.NewStatus),
		ChangedBy: d.ChangedBy,
		CreatedAt: d.CreatedAt,
	}
}

type conversationDoc struct {
	ID                 string                    `firestore:"id"`
	Participants       []string                  `firestore:"participants"`
	ParticipantA       string                    `firestore:"participantA"`
	ParticipantB       string                    `firestore:"participantB"`
	ParticipantDetails map[string]participantDoc `firestore:"participantDetails"`
	LastMessage        string                    `firestore:"lastMessage"`
	LastSenderUID      string                    `firestore:"lastSenderUid"`
	LastMessageAt      *time.Time                `firestore:"lastMessageAt"`
	CreatedAt          time.Time                 `firestore:"createdAt"`
	UpdatedAt          time.Time                 `firestore:"updatedAt"`
}

type participantDoc struct {
	DisplayName string `firestore:"displayName"`
	PhotoURL    string `firestore:"photoUrl"`
}

func (d conversationDoc) model() model.Conversation {
	details := make(model.ParticipantDetails, len(d.ParticipantDetails))
	for uid, p := range d.ParticipantDetails {
		details[uid] = model.ParticipantDetail{DisplayName: p.DisplayName, PhotoURL: p.PhotoURL}
	}
	cv := model.NewConversation(d.ParticipantA, d.ParticipantB, details)
	cv.ID = d.ID
	cv.LastMessage = d.LastMessage
	cv.LastSenderUID = d.LastSenderUID
	cv.LastMessageAt = d.LastMessageAt
	cv.CreatedAt = d.CreatedAt
	cv.UpdatedAt = d.UpdatedAt
	return *cv
}

type messageDoc struct {
	ID             string    `firestore:"id"`
	ConversationID string    `firestore:"conversationId"`
	SenderUID      string    `firestore:"senderUid"`
	Body           string    `firestore:"body"`
	System         bool      `firestore:"system"`
	OfferID        *string   `firestore:"offerId"`
	CreatedAt      time.Time `firestore:"createdAt"`
}

func toMessageDoc(m *model.Message) messageDoc {
	return messageDoc{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderUID:      m.SenderUID,
		Body:           m.Body,
		System:         m.System,
		OfferID:        m.OfferID,
		CreatedAt:      m.CreatedAt,
	}
}

func (d messageDoc) model() model.Message {
	return model.Message{
		ID:             d.ID,
		ConversationID: d.ConversationID,
		SenderUID:      d.SenderUID,
		Body:           d.Body,
		System:         d.System,
		OfferID:        d.OfferID,
		CreatedAt:      d.CreatedAt,
	}
}

type reviewDoc struct {
	ID          string    `firestore:"id"`
	SellerUID   string    `firestore:"sellerUid"`
	ReviewerUID string    `firestore:"reviewerUid"`
	ListingID   *string   `firestore:"listingId"`
	Rating      int       `firestore:"rating"`
	Comment     string    `firestore:"comment"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

func (d reviewDoc) model() model.Review {
	return model.Review{
		ID:          d.ID,
		SellerUID:   d.SellerUID,
		ReviewerUID: d.ReviewerUID,
		ListingID:   d.ListingID,
		Rating:      d.Rating,
		Comment:     d.Comment,
		CreatedAt:   d.CreatedAt,
	}
}

// ratingDoc is the aggregate part of users/{uid}.
type ratingDoc struct {
	RatingSum     int64     `firestore:"ratingSum"`
	RatingCount   int64     `firestore:"ratingCount"`
	AverageRating float64   `firestore:"averageRating"`
	UpdatedAt     time.Time `firestore:"ratingUpdatedAt"`
}

type edgeDoc struct {
	UID       string    `firestore:"uid"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type wishDoc struct {
	ListingID string    `firestore:"listingId"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type notificationDoc struct {
	ID             string     `firestore:"id"`
	UserUID        string     `firestore:"userUid"`
	Type           string     `firestore:"type"`
	Title          string     `firestore:"title"`
	Body           string     `firestore:"body"`
	ListingID      *string    `firestore:"listingId"`
	OfferID        *string    `firestore:"offerId"`
	ConversationID *string    `firestore:"conversationId"`
	ReadAt         *time.Time `firestore:"readAt"`
	CreatedAt      time.Time  `firestore:"createdAt"`
}

func (d notificationDoc) model() model.Notification {
	return model.Notification{
		ID:             d.ID,
		UserUID:        d.UserUID,
		Type:           d.Type,
		Title:          d.Title,
		Body:           d.Body,
		ListingID:      d.ListingID,
		OfferID:        d.OfferID,
		ConversationID: d.ConversationID,
		ReadAt:         d.ReadAt,
		CreatedAt:      d.CreatedAt,
	}
}
