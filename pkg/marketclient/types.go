package marketclient

import "encoding/json"

type Listing struct {
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

type NewListing struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Category    string   `json:"category,omitempty"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
}

type ListingQuery struct {
	Query    string
	Category string
	Limit    int
	Offset   int
}

type ListingPage struct {
	Listings []Listing `json:"listings"`
	Total    int64     `json:"total"`
}

type Offer struct {
	ID        string `json:"id"`
	ListingID string `json:"listingId"`
	BuyerUID  string `json:"buyerUid"`
	SellerUID string `json:"sellerUid"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Acceptance struct {
	Listing  Listing `json:"listing"`
	Offer    Offer   `json:"offer"`
	Rejected []Offer `json:"rejected"`
}

type OfferEvent struct {
	OldStatus string `json:"oldStatus,omitempty"`
	NewStatus string `json:"newStatus"`
	ChangedBy string `json:"changedBy"`
	CreatedAt string `json:"createdAt"`
}

type Advice struct {
	Action  string  `json:"action"`
	Counter *string `json:"counter,omitempty"`
}

type Participant struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

type Conversation struct {
	ID                 string                 `json:"id"`
	Participants       []string               `json:"participants"`
	ParticipantDetails map[string]Participant `json:"participantDetails"`
	LastMessage        string                 `json:"lastMessage,omitempty"`
	LastSenderUID      string                 `json:"lastSenderUid,omitempty"`
	LastMessageAt      *string                `json:"lastMessageAt,omitempty"`
}

type Message struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversationId"`
	SenderUID      string  `json:"senderUid"`
	Body           string  `json:"body"`
	System         bool    `json:"system"`
	OfferID        *string `json:"offerId,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

type Rating struct {
	SellerUID     string  `json:"sellerUid"`
	RatingSum     int64   `json:"ratingSum"`
	RatingCount   int64   `json:"ratingCount"`
	AverageRating float64 `json:"averageRating"`
}

type Review struct {
	ID          string  `json:"id"`
	SellerUID   string  `json:"sellerUid"`
	ReviewerUID string  `json:"reviewerUid"`
	ListingID   *string `json:"listingId,omitempty"`
	Rating      int     `json:"rating"`
	Comment     string  `json:"comment"`
	CreatedAt   string  `json:"createdAt"`
}

type Notification struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	Body           string  `json:"body"`
	ListingID      *string `json:"listingId,omitempty"`
	OfferID        *string `json:"offerId,omitempty"`
	ConversationID *string `json:"conversationId,omitempty"`
	Read           bool    `json:"read"`
	CreatedAt      string  `json:"createdAt"`
}

// Event is one frame of a stream: a snapshot or an added/modified/removed delta.
type Event struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Kind  string          `json:"kind,omitempty"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ListingSnapshot struct {
	Listing Listing `json:"listing"`
	Offers  []Offer `json:"offers"`
}
