package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shinyyama/fleamarket-backend/internal/identity"
	appmw "github.com/shinyyama/fleamarket-backend/internal/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/repository/repotest"
	"github.com/shinyyama/fleamarket-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t *testing.T
	h http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	srv := New(Deps{
		Repos:              repository.NewGormSet(repotest.Open(t)),
		Auth:               appmw.NewHeaderAuth(),
		Directory:          identity.NewStaticDirectory(),
		Uploader:           storage.NewMemoryUploader("test-bucket"),
		CORSOriginSuffixes: []string{"vercel.app"},
		GitSHA:             "abc123",
	})
	return &testServer{t: t, h: srv.Handler()}
}

func (s *testServer) call(method, path, uid string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("X-User-ID", uid)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type idView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount string `json:"amount"`
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.call(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "abc123", body["git_sha"])
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	rec := s.call(http.MethodPost, "/api/listings", "", map[string]string{"name": "x", "price": "1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOriginAllower(t *testing.T) {
	allow := originAllower([]string{"vercel.app"})
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://127.0.0.1:5173", true},
		{"https://fleamarket.vercel.app", true},
		{"https://evil.example.com", false},
		{"ftp://fleamarket.vercel.app", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, allow(tt.origin), tt.origin)
	}
}

// Seller S lists L at 100.00; C offers 40.00, then B offers 50.00; S accepts
// B's offer.
func TestOfferLifecycleEndToEnd(t *testing.T) {
	s := newTestServer(t)

	rec := s.call(http.MethodPost, "/api/listings", "seller", map[string]string{
		"name": "Road bike", "description": "54cm", "price": "100.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var listing struct {
		ID     string `json:"id"`
		Price  string `json:"price"`
		IsSold bool   `json:"isSold"`
	}
	decode(t, rec, &listing)
	assert.Equal(t, "100.00", listing.Price)

	offersPath := "/api/listings/" + listing.ID + "/offers"

	rec = s.call(http.MethodPost, offersPath, "buyer-c", map[string]any{"amount": "40.00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var offerC idView
	decode(t, rec, &offerC)

	rec = s.call(http.MethodPost, offersPath, "buyer-b", map[string]any{"amount": "50", "announce": true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var offerB idView
	decode(t, rec, &offerB)
	assert.Equal(t, "50.00", offerB.Amount)
	assert.Equal(t, "pending", offerB.Status)

	rec = s.call(http.MethodPost, offersPath, "buyer-b", map[string]any{"amount": "55"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.call(http.MethodPost, offersPath, "buyer-d", map[string]any{"amount": "0.001"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decode(t, rec, &errBody)
	assert.Equal(t, "invalid_amount", errBody.Error.Code)

	rec = s.call(http.MethodPost, offersPath, "buyer-d", map[string]any{"amount": 1e15})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &errBody)
	assert.Equal(t, "invalid_amount", errBody.Error.Code)

	rec = s.call(http.MethodPost, offersPath+"/"+offerB.ID+"/accept", "buyer-b", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.call(http.MethodPost, offersPath+"/"+offerB.ID+"/accept", "seller", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var accepted struct {
		Listing struct {
			IsSold          bool    `json:"isSold"`
			AcceptedOfferID *string `json:"acceptedOfferId"`
		} `json:"listing"`
		Offer    idView   `json:"offer"`
		Rejected []idView `json:"rejected"`
	}
	decode(t, rec, &accepted)
	assert.True(t, accepted.Listing.IsSold)
	require.NotNil(t, accepted.Listing.AcceptedOfferID)
	assert.Equal(t, offerB.ID, *accepted.Listing.AcceptedOfferID)
	assert.Equal(t, "accepted", accepted.Offer.Status)
	require.Len(t, accepted.Rejected, 1)
	assert.Equal(t, offerC.ID, accepted.Rejected[0].ID)

	rec = s.call(http.MethodPost, offersPath+"/"+offerC.ID+"/accept", "seller", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.call(http.MethodPost, offersPath+"/"+offerC.ID+"/reject", "seller", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.call(http.MethodGet, offersPath, "seller", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all struct {
		Offers []idView `json:"offers"`
	}
	decode(t, rec, &all)
	statuses := map[string]string{}
	for _, o := range all.Offers {
		statuses[o.ID] = o.Status
	}
	assert.Equal(t, map[string]string{offerB.ID: "accepted", offerC.ID: "rejected"}, statuses)

	rec = s.call(http.MethodGet, offersPath+"/"+offerC.ID+"/history", "buyer-c", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		History []struct {
			NewStatus string `json:"newStatus"`
		} `json:"history"`
	}
	decode(t, rec, &hist)
	require.Len(t, hist.History, 2)
	assert.Equal(t, "rejected", hist.History[1].NewStatus)

	convID := model.ConversationID("seller", "buyer-b")
	rec = s.call(http.MethodGet, "/api/conversations/"+convID+"/messages", "buyer-b", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var msgs struct {
		Messages []struct {
			SenderUID string `json:"senderUid"`
			Body      string `json:"body"`
			System    bool   `json:"system"`
		} `json:"messages"`
	}
	decode(t, rec, &msgs)
	require.Len(t, msgs.Messages, 2)
	assert.Equal(t, "Offer of 50.00 submitted on Road bike", msgs.Messages[0].Body)
	assert.Equal(t, "Your offer of 50.00 on Road bike was accepted", msgs.Messages[1].Body)
	for _, m := range msgs.Messages {
		assert.True(t, m.System)
		assert.Equal(t, model.SystemSenderUID, m.SenderUID)
	}

	rec = s.call(http.MethodGet, "/api/me/notifications", "buyer-c", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox struct {
		Notifications []struct {
			Type string `json:"type"`
		} `json:"notifications"`
		UnreadCount int64 `json:"unreadCount"`
	}
	decode(t, rec, &inbox)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, model.NotificationOfferRejected, inbox.Notifications[0].Type)

	rec = s.call(http.MethodPost, "/api/me/notifications/read", "buyer-c", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.call(http.MethodGet, "/api/me/notifications", "buyer-c", nil)
	decode(t, rec, &inbox)
	assert.Empty(t, inbox.Notifications)
	assert.Equal(t, int64(0), inbox.UnreadCount)
}

func TestReviewsAndProfile(t *testing.T) {
	s := newTestServer(t)
	for _, r := range []int{5, 3, 4} {
		rec := s.call(http.MethodPost, "/api/users/seller/reviews", "buyer", map[string]any{"rating": r, "comment": "fine"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec := s.call(http.MethodPost, "/api/users/seller/reviews", "buyer", map[string]any{"rating": 0, "comment": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.call(http.MethodPost, "/api/users/seller/reviews", "seller", map[string]any{"rating": 5, "comment": "me"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.call(http.MethodGet, "/api/users/seller/rating", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rating struct {
		RatingSum     int64   `json:"ratingSum"`
		RatingCount   int64   `json:"ratingCount"`
		AverageRating float64 `json:"averageRating"`
	}
	decode(t, rec, &rating)
	assert.Equal(t, int64(12), rating.RatingSum)
	assert.Equal(t, int64(3), rating.RatingCount)
	assert.Equal(t, 4.0, rating.AverageRating)

	rec = s.call(http.MethodPost, "/api/users/seller/follow", "buyer", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.call(http.MethodGet, "/api/users/seller/public", "buyer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		Followers   int64 `json:"followers"`
		IsFollowing bool  `json:"isFollowing"`
		Rating      struct {
			RatingCount int64 `json:"ratingCount"`
		} `json:"rating"`
	}
	decode(t, rec, &profile)
	assert.Equal(t, int64(1), profile.Followers)
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, int64(3), profile.Rating.RatingCount)

	rec = s.call(http.MethodGet, "/api/users/seller/public", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &profile)
	assert.False(t, profile.IsFollowing)
}

func TestWishlist(t *testing.T) {
	s := newTestServer(t)
	rec := s.call(http.MethodPost, "/api/listings", "seller", map[string]string{"name": "Lamp", "price": "12.5"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var l idView
	decode(t, rec, &l)

	rec = s.call(http.MethodPost, "/api/me/wishlist/"+l.ID, "buyer", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.call(http.MethodPost, "/api/me/wishlist/missing", "buyer", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.call(http.MethodGet, "/api/me/wishlist", "buyer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var wl struct {
		Listings []idView `json:"listings"`
	}
	decode(t, rec, &wl)
	require.Len(t, wl.Listings, 1)
	assert.Equal(t, l.ID, wl.Listings[0].ID)

	rec = s.call(http.MethodDelete, "/api/me/wishlist/"+l.ID, "buyer", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
