package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/fleamarket-backend/internal/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/service"
)

type WishlistHandler struct {
	svc service.WishlistService
}

func NewWishlistHandler(svc service.WishlistService) *WishlistHandler {
	return &WishlistHandler{svc: svc}
}

func (h *WishlistHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context(), appmw.SessionFrom(c))
	if err != nil {
		return writeError(c, err, "failed to fetch wishlist")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"listings": listingViews(list)})
}

func (h *WishlistHandler) Add(c echo.Context) error {
	if err := h.svc.Add(c.Request().Context(), appmw.SessionFrom(c), c.Param("listingId")); err != nil {
		return writeError(c, err, "failed to add to wishlist")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WishlistHandler) Remove(c echo.Context) error {
	if err := h.svc.Remove(c.Request().Context(), appmw.SessionFrom(c), c.Param("listingId")); err != nil {
		return writeError(c, err, "failed to remove from wishlist")
	}
	return c.NoContent(http.StatusNoContent)
}
