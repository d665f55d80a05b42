package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/fleamarket-backend/internal/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/service"
)

type UserHandler struct {
	reviews service.ReviewService
	social  service.SocialService
}

func NewUserHandler(reviews service.ReviewService, social service.SocialService) *UserHandler {
	return &UserHandler{reviews: reviews, social: social}
}

type RatingResponse struct {
	SellerUID     string  `json:"sellerUid"`
	RatingSum     int64   `json:"ratingSum"`
	RatingCount   int64   `json:"ratingCount"`
	AverageRating float64 `json:"averageRating"`
}

type PublicUserResponse struct {
	UID         string         `json:"uid"`
	DisplayName string         `json:"displayName"`
	PhotoURL    *string        `json:"photoURL"`
	Rating      RatingResponse `json:"rating"`
	Followers   int64          `json:"followers"`
	Following   int64          `json:"following"`
	IsFollowing bool           `json:"isFollowing"`
}

type ReviewRequest struct {
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	ListingID string `json:"listingId"`
}

type ReviewResponse struct {
	ID          string  `json:"id"`
	SellerUID   string  `json:"sellerUid"`
	ReviewerUID string  `json:"reviewerUid"`
	ListingID   *string `json:"listingId,omitempty"`
	Rating      int     `json:"rating"`
	Comment     string  `json:"comment"`
	CreatedAt   string  `json:"createdAt"`
}

func toRatingResponse(r *model.SellerRating) RatingResponse {
	return RatingResponse{
		SellerUID:     r.SellerUID,
		RatingSum:     r.RatingSum,
		RatingCount:   r.RatingCount,
		AverageRating: r.AverageRating,
	}
}

func toReviewResponse(r *model.Review) ReviewResponse {
	return ReviewResponse{
		ID:          r.ID,
		SellerUID:   r.SellerUID,
		ReviewerUID: r.ReviewerUID,
		ListingID:   r.ListingID,
		Rating:      r.Rating,
		Comment:     r.Comment,
		CreatedAt:   r.CreatedAt.UTC().Format(timeLayout),
	}
}

func (h *UserHandler) GetPublic(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return badRequest(c, "invalid uid")
	}
	p, err := h.social.Profile(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err, "failed to fetch user")
	}
	following, err := h.social.IsFollowing(c.Request().Context(), appmw.SessionFrom(c), uid)
	if err != nil {
		return writeError(c, err, "failed to fetch user")
	}
	return c.JSON(http.StatusOK, PublicUserResponse{
		UID:         p.UID,
		DisplayName: p.DisplayName,
		PhotoURL:    strPtrOrNil(p.PhotoURL),
		Rating:      toRatingResponse(&p.Rating),
		Followers:   p.Followers,
		Following:   p.Following,
		IsFollowing: following,
	})
}

func (h *UserHandler) GetRating(c echo.Context) error {
	r, err := h.reviews.GetRating(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return writeError(c, err, "failed to fetch rating")
	}
	return c.JSON(http.StatusOK, toRatingResponse(r))
}

func (h *UserHandler) CreateReview(c echo.Context) error {
	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	rv, agg, err := h.reviews.Submit(c.Request().Context(), appmw.SessionFrom(c), service.ReviewInput{
		SellerUID: c.Param("uid"),
		Rating:    req.Rating,
		Comment:   req.Comment,
		ListingID: req.ListingID,
	})
	if err != nil {
		return writeError(c, err, "failed to create review")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"review": toReviewResponse(rv),
		"rating": toRatingResponse(agg),
	})
}

func (h *UserHandler) ListReviews(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := h.reviews.ListForSeller(c.Request().Context(), c.Param("uid"), limit)
	if err != nil {
		return writeError(c, err, "failed to fetch reviews")
	}
	resp := make([]ReviewResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toReviewResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"reviews": resp})
}

func (h *UserHandler) Follow(c echo.Context) error {
	if err := h.social.Follow(c.Request().Context(), appmw.SessionFrom(c), c.Param("uid")); err != nil {
		return writeError(c, err, "failed to follow")
	}
	return c.JSON(http.StatusOK, map[string]bool{"following": true})
}

func (h *UserHandler) Unfollow(c echo.Context) error {
	if err := h.social.Unfollow(c.Request().Context(), appmw.SessionFrom(c), c.Param("uid")); err != nil {
		return writeError(c, err, "failed to unfollow")
	}
	return c.JSON(http.StatusOK, map[string]bool{"following": false})
}

func (h *UserHandler) Followers(c echo.Context) error {
	uids, err := h.social.Followers(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return writeError(c, err, "failed to fetch followers")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"uids": nonNil(uids)})
}

func (h *UserHandler) Following(c echo.Context) error {
	uids, err := h.social.Following(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return writeError(c, err, "failed to fetch following")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"uids": nonNil(uids)})
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
