package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/ai"
	"github.com/shinyyama/fleamarket-backend/internal/handler"
	"github.com/shinyyama/fleamarket-backend/internal/identity"
	appmw "github.com/shinyyama/fleamarket-backend/internal/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/realtime"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/service"
	"github.com/shinyyama/fleamarket-backend/internal/storage"
)

// Deps are the backend-specific pieces the server is assembled from.
type Deps struct {
	Repos     repository.Set
	Auth      *appmw.AuthMiddleware
	Directory identity.Directory
	Uploader  storage.Uploader
	Hub       *realtime.Hub
	Advisor   ai.OfferAdvisor

	CORSOriginSuffixes []string
	GitSHA             string
	BuildTime          string
}

type Server struct {
	e   *echo.Echo
	hub *realtime.Hub
}

func New(d Deps) *Server {
	if d.Hub == nil {
		d.Hub = realtime.NewHub(nil)
	}
	allowOrigin := originAllower(d.CORSOriginSuffixes)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(appmw.RequestContext)
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-User-ID", "X-User-Name", echo.HeaderXRequestID},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			return allowOrigin(origin), nil
		},
	}))

	notifySvc := service.NewNotificationService(d.Repos.Notifications)
	listingSvc := service.NewListingService(d.Repos.Listings, d.Uploader, d.Hub)
	offerSvc := service.NewOfferService(service.OfferDeps{
		Listings:      d.Repos.Listings,
		Offers:        d.Repos.Offers,
		Conversations: d.Repos.Conversations,
		Directory:     d.Directory,
		Notifier:      notifySvc,
		Publisher:     d.Hub,
		Advisor:       d.Advisor,
	})
	convSvc := service.NewConversationService(d.Repos.Conversations, d.Directory, d.Hub)
	reviewSvc := service.NewReviewService(d.Repos.Reviews)
	socialSvc := service.NewSocialService(d.Repos.Follows, d.Repos.Reviews, d.Directory)
	wishlistSvc := service.NewWishlistService(d.Repos.Wishlist, d.Repos.Listings)

	listingHandler := handler.NewListingHandler(listingSvc)
	offerHandler := handler.NewOfferHandler(offerSvc)
	convHandler := handler.NewConversationHandler(convSvc)
	userHandler := handler.NewUserHandler(reviewSvc, socialSvc)
	wishlistHandler := handler.NewWishlistHandler(wishlistSvc)
	notificationHandler := handler.NewNotificationHandler(notifySvc)
	streamHandler := handler.NewStreamHandler(d.Hub, offerSvc, convSvc, func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowOrigin(origin)
	})

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.GitSHA,
			"build_time": d.BuildTime,
		})
	})

	auth := d.Auth.RequireAuth
	api := e.Group("/api")

	api.GET("/listings", listingHandler.List)
	api.GET("/listings/:id", listingHandler.Get)
	api.POST("/listings", listingHandler.Create, auth)
	api.POST("/listings/:id/images", listingHandler.UploadImage, auth)
	api.GET("/me/listings", listingHandler.ListMine, auth)

	api.POST("/listings/:id/offers", offerHandler.Submit, auth)
	api.GET("/listings/:id/offers", offerHandler.ListForListing, auth)
	api.POST("/listings/:id/offers/:offerId/accept", offerHandler.Accept, auth)
	api.POST("/listings/:id/offers/:offerId/reject", offerHandler.Reject, auth)
	api.POST("/listings/:id/offers/:offerId/withdraw", offerHandler.Withdraw, auth)
	api.POST("/listings/:id/offers/:offerId/advice", offerHandler.Advice, auth)
	api.GET("/listings/:id/offers/:offerId/history", offerHandler.History, auth)
	api.GET("/listings/:id/stream", streamHandler.Listing, auth)
	api.GET("/me/offers", offerHandler.ListMine, auth)

	api.GET("/conversations", convHandler.List, auth)
	api.POST("/conversations", convHandler.Open, auth)
	api.GET("/conversations/:id/messages", convHandler.ListMessages, auth)
	api.POST("/conversations/:id/messages", convHandler.CreateMessage, auth)
	api.GET("/conversations/:id/stream", streamHandler.Conversation, auth)

	api.POST("/users/:uid/reviews", userHandler.CreateReview, auth)
	api.GET("/users/:uid/reviews", userHandler.ListReviews)
	api.GET("/users/:uid/rating", userHandler.GetRating)
	api.GET("/users/:uid/public", userHandler.GetPublic, d.Auth.OptionalAuth)
	api.POST("/users/:uid/follow", userHandler.Follow, auth)
	api.DELETE("/users/:uid/follow", userHandler.Unfollow, auth)
	api.GET("/users/:uid/followers", userHandler.Followers)
	api.GET("/users/:uid/following", userHandler.Following)

	api.GET("/me/wishlist", wishlistHandler.List, auth)
	api.POST("/me/wishlist/:listingId", wishlistHandler.Add, auth)
	api.DELETE("/me/wishlist/:listingId", wishlistHandler.Remove, auth)

	api.GET("/me/notifications", notificationHandler.List, auth)
	api.POST("/me/notifications/read", notificationHandler.MarkAllRead, auth)

	return &Server{e: e, hub: d.Hub}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.e.Shutdown(ctx)
	if herr := s.hub.Close(); err == nil {
		err = herr
	}
	return err
}

// originAllower accepts localhost on any port and hosts ending in one of suffixes.
func originAllower(suffixes []string) func(string) bool {
	return func(origin string) bool {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false
		}
		host := u.Hostname()
		for _, s := range suffixes {
			s = strings.TrimSpace(s)
			if s != "" && strings.HasSuffix(host, s) {
				return true
			}
		}
		return false
	}
}
