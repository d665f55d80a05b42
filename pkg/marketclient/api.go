package marketclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) CreateListing(ctx context.Context, sess Session, in NewListing) (*Listing, error) {
	var out Listing
	if err := c.do(ctx, sess, http.MethodPost, "/api/listings", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetListing(ctx context.Context, sess Session, id string) (*Listing, error) {
	var out Listing
	if err := c.do(ctx, sess, http.MethodGet, "/api/listings/"+esc(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListListings(ctx context.Context, sess Session, q ListingQuery) (*ListingPage, error) {
	v := url.Values{}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	path := "/api/listings"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out ListingPage
	if err := c.do(ctx, sess, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func offerPath(listingID, offerID, action string) string {
	return "/api/listings/" + esc(listingID) + "/offers/" + esc(offerID) + "/" + action
}

// SubmitOffer offers amount (a decimal string) on the listing. announce
// controls the system chat message to the seller.
func (c *Client) SubmitOffer(ctx context.Context, sess Session, listingID, amount string, announce bool) (*Offer, error) {
	in := map[string]any{"amount": amount, "announce": announce}
	var out Offer
	if err := c.do(ctx, sess, http.MethodPost, "/api/listings/"+esc(listingID)+"/offers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AcceptOffer(ctx context.Context, sess Session, listingID, offerID string) (*Acceptance, error) {
	var out Acceptance
	if err := c.do(ctx, sess, http.MethodPost, offerPath(listingID, offerID, "accept"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RejectOffer(ctx context.Context, sess Session, listingID, offerID string) (*Offer, error) {
	var out Offer
	if err := c.do(ctx, sess, http.MethodPost, offerPath(listingID, offerID, "reject"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) WithdrawOffer(ctx context.Context, sess Session, listingID, offerID string) (*Offer, error) {
	var out Offer
	if err := c.do(ctx, sess, http.MethodPost, offerPath(listingID, offerID, "withdraw"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OfferHistory(ctx context.Context, sess Session, listingID, offerID string) ([]OfferEvent, error) {
	var out struct {
		History []OfferEvent `json:"history"`
	}
	if err := c.do(ctx, sess, http.MethodGet, offerPath(listingID, offerID, "history"), nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

func (c *Client) OfferAdvice(ctx context.Context, sess Session, listingID, offerID, strategy string) (*Advice, error) {
	var out Advice
	in := map[string]string{"strategy": strategy}
	if err := c.do(ctx, sess, http.MethodPost, offerPath(listingID, offerID, "advice"), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOffers(ctx context.Context, sess Session, listingID string) ([]Offer, error) {
	var out struct {
		Offers []Offer `json:"offers"`
	}
	if err := c.do(ctx, sess, http.MethodGet, "/api/listings/"+esc(listingID)+"/offers", nil, &out); err != nil {
		return nil, err
	}
	return out.Offers, nil
}

func (c *Client) MyOffers(ctx context.Context, sess Session) ([]Offer, error) {
	var out struct {
		Offers []Offer `json:"offers"`
	}
	if err := c.do(ctx, sess, http.MethodGet, "/api/me/offers", nil, &out); err != nil {
		return nil, err
	}
	return out.Offers, nil
}

func (c *Client) OpenConversation(ctx context.Context, sess Session, participantUID string) (*Conversation, error) {
	var out Conversation
	in := map[string]string{"participantUid": participantUID}
	if err := c.do(ctx, sess, http.MethodPost, "/api/conversations", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Conversations(ctx context.Context, sess Session) ([]Conversation, error) {
	var out struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.do(ctx, sess, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

func (c *Client) Messages(ctx context.Context, sess Session, convID string) ([]Message, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.do(ctx, sess, http.MethodGet, "/api/conversations/"+esc(convID)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) SendMessage(ctx context.Context, sess Session, convID, body string) (*Message, error) {
	var out Message
	in := map[string]string{"body": body}
	if err := c.do(ctx, sess, http.MethodPost, "/api/conversations/"+esc(convID)+"/messages", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitReview(ctx context.Context, sess Session, sellerUID string, rating int, comment, listingID string) (*Review, *Rating, error) {
	in := map[string]any{"rating": rating, "comment": comment, "listingId": listingID}
	var out struct {
		Review Review `json:"review"`
		Rating Rating `json:"rating"`
	}
	if err := c.do(ctx, sess, http.MethodPost, "/api/users/"+esc(sellerUID)+"/reviews", in, &out); err != nil {
		return nil, nil, err
	}
	return &out.Review, &out.Rating, nil
}

func (c *Client) Rating(ctx context.Context, sess Session, sellerUID string) (*Rating, error) {
	var out Rating
	if err := c.do(ctx, sess, http.MethodGet, "/api/users/"+esc(sellerUID)+"/rating", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Follow(ctx context.Context, sess Session, uid string) error {
	return c.do(ctx, sess, http.MethodPost, "/api/users/"+esc(uid)+"/follow", nil, nil)
}

func (c *Client) Unfollow(ctx context.Context, sess Session, uid string) error {
	return c.do(ctx, sess, http.MethodDelete, "/api/users/"+esc(uid)+"/follow", nil, nil)
}

func (c *Client) Following(ctx context.Context, sess Session, uid string) ([]string, error) {
	var out struct {
		UIDs []string `json:"uids"`
	}
	if err := c.do(ctx, sess, http.MethodGet, "/api/users/"+esc(uid)+"/following", nil, &out); err != nil {
		return nil, err
	}
	return out.UIDs, nil
}

func (c *Client) AddToWishlist(ctx context.Context, sess Session, listingID string) error {
	return c.do(ctx, sess, http.MethodPost, "/api/me/wishlist/"+esc(listingID), nil, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, sess Session, listingID string) error {
	return c.do(ctx, sess, http.MethodDelete, "/api/me/wishlist/"+esc(listingID), nil, nil)
}

func (c *Client) Wishlist(ctx context.Context, sess Session) ([]Listing, error) {
	var out struct {
		Listings []Listing `json:"listings"`
	}
	if err := c.do(ctx, sess, http.MethodGet, "/api/me/wishlist", nil, &out); err != nil {
		return nil, err
	}
	return out.Listings, nil
}

// Notifications returns the inbox and the unread count.
func (c *Client) Notifications(ctx context.Context, sess Session, unreadOnly bool) ([]Notification, int64, error) {
	var out struct {
		Notifications []Notification `json:"notifications"`
		UnreadCount   int64          `json:"unreadCount"`
	}
	path := "/api/me/notifications?unread_only=" + strconv.FormatBool(unreadOnly)
	if err := c.do(ctx, sess, http.MethodGet, path, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Notifications, out.UnreadCount, nil
}

func (c *Client) MarkNotificationsRead(ctx context.Context, sess Session) error {
	return c.do(ctx, sess, http.MethodPost, "/api/me/notifications/read", nil, nil)
}
