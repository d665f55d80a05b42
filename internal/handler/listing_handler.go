package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/fleamarket-backend/internal/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/service"
	"github.com/shinyyama/fleamarket-backend/internal/storage"
)

type ListingHandler struct {
	svc service.ListingService
}

func NewListingHandler(svc service.ListingService) *ListingHandler {
	return &ListingHandler{svc: svc}
}

type ListingListResponse struct {
	Listings []service.ListingView `json:"listings"`
	Total    int64                 `json:"total"`
}

type CreateListingRequest struct {
	Name        string      `json:"name" validate:"required,max=120"`
	Description string      `json:"description"`
	Price       AmountField `json:"price" validate:"required"`
	Category    string      `json:"category" validate:"max=64"`
	ImageURLs   []string    `json:"imageUrls" validate:"max=10,dive,url"`
}

func (h *ListingHandler) Create(c echo.Context) error {
	var req CreateListingRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	l, err := h.svc.Create(c.Request().Context(), appmw.SessionFrom(c), service.CreateListingInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       string(req.Price),
		Category:    req.Category,
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		return writeError(c, err, "failed to create listing")
	}
	return c.JSON(http.StatusCreated, service.NewListingView(l))
}

func (h *ListingHandler) Get(c echo.Context) error {
	l, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err, "failed to fetch listing")
	}
	return c.JSON(http.StatusOK, service.NewListingView(l))
}

func (h *ListingHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	includeSold, _ := strconv.ParseBool(c.QueryParam("includeSold"))
	list, total, err := h.svc.List(c.Request().Context(), service.ListingQuery{
		Limit:       limit,
		Offset:      offset,
		Category:    c.QueryParam("category"),
		Query:       c.QueryParam("q"),
		IncludeSold: includeSold,
	})
	if err != nil {
		return writeError(c, err, "failed to fetch listings")
	}
	return c.JSON(http.StatusOK, ListingListResponse{Listings: listingViews(list), Total: total})
}

func (h *ListingHandler) ListMine(c echo.Context) error {
	list, err := h.svc.ListMine(c.Request().Context(), appmw.SessionFrom(c))
	if err != nil {
		return writeError(c, err, "failed to fetch listings")
	}
	return c.JSON(http.StatusOK, ListingListResponse{Listings: listingViews(list), Total: int64(len(list))})
}

func (h *ListingHandler) UploadImage(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "image file is required")
	}
	if fh.Size > storage.MaxUploadBytes {
		return badRequest(c, storage.ErrTooLarge.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "unreadable upload")
	}
	defer f.Close()

	img, err := h.svc.AttachImage(c.Request().Context(), appmw.SessionFrom(c), c.Param("id"),
		fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		return writeError(c, err, "failed to upload image")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"imageUrl": img.ImageURL,
		"position": img.Position,
	})
}

func listingViews(list []model.Listing) []service.ListingView {
	out := make([]service.ListingView, 0, len(list))
	for i := range list {
		out = append(out, service.NewListingView(&list[i]))
	}
	return out
}
