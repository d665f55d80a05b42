package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/fleamarket-backend/internal/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
	"github.com/shinyyama/fleamarket-backend/internal/service"
)

type OfferHandler struct {
	svc service.OfferService
}

func NewOfferHandler(svc service.OfferService) *OfferHandler {
	return &OfferHandler{svc: svc}
}

type SubmitOfferRequest struct {
	Amount   AmountField `json:"amount" validate:"required"`
	Announce *bool       `json:"announce"`
}

type AcceptResponse struct {
	Listing  service.ListingView `json:"listing"`
	Offer    service.OfferView   `json:"offer"`
	Rejected []service.OfferView `json:"rejected"`
}

type OfferEventResponse struct {
	OldStatus string `json:"oldStatus,omitempty"`
	NewStatus string `json:"newStatus"`
	ChangedBy string `json:"changedBy"`
	CreatedAt string `json:"createdAt"`
}

type AdviceRequest struct {
	Strategy string `json:"strategy" validate:"omitempty,oneof=balanced firm quick-sale"`
}

type AdviceResponse struct {
	Action  string  `json:"action"`
	Counter *string `json:"counter,omitempty"`
}

func (h *OfferHandler) Submit(c echo.Context) error {
	var req SubmitOfferRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	announce := true
	if req.Announce != nil {
		announce = *req.Announce
	}
	o, err := h.svc.Submit(h.ctx(c), appmw.SessionFrom(c), c.Param("id"), string(req.Amount), announce)
	if err != nil {
		return writeError(c, err, "failed to submit offer")
	}
	return c.JSON(http.StatusCreated, service.NewOfferView(o))
}

func (h *OfferHandler) Accept(c echo.Context) error {
	res, err := h.svc.Accept(h.ctx(c), appmw.SessionFrom(c), c.Param("id"), c.Param("offerId"))
	if err != nil {
		return writeError(c, err, "failed to accept offer")
	}
	return c.JSON(http.StatusOK, AcceptResponse{
		Listing:  service.NewListingView(res.Listing),
		Offer:    service.NewOfferView(res.Offer),
		Rejected: offerViews(res.Rejected),
	})
}

func (h *OfferHandler) Reject(c echo.Context) error {
	o, err := h.svc.Reject(h.ctx(c), appmw.SessionFrom(c), c.Param("id"), c.Param("offerId"))
	if err != nil {
		return writeError(c, err, "failed to reject offer")
	}
	return c.JSON(http.StatusOK, service.NewOfferView(o))
}

func (h *OfferHandler) Withdraw(c echo.Context) error {
	o, err := h.svc.Withdraw(h.ctx(c), appmw.SessionFrom(c), c.Param("id"), c.Param("offerId"))
	if err != nil {
		return writeError(c, err, "failed to withdraw offer")
	}
	return c.JSON(http.StatusOK, service.NewOfferView(o))
}

func (h *OfferHandler) ListForListing(c echo.Context) error {
	list, err := h.svc.ListForListing(h.ctx(c), appmw.SessionFrom(c), c.Param("id"))
	if err != nil {
		return writeError(c, err, "failed to fetch offers")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"offers": offerViews(list)})
}

func (h *OfferHandler) ListMine(c echo.Context) error {
	list, err := h.svc.ListMine(c.Request().Context(), appmw.SessionFrom(c))
	if err != nil {
		return writeError(c, err, "failed to fetch offers")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"offers": offerViews(list)})
}

func (h *OfferHandler) History(c echo.Context) error {
	events, err := h.svc.History(h.ctx(c), appmw.SessionFrom(c), c.Param("id"), c.Param("offerId"))
	if err != nil {
		return writeError(c, err, "failed to fetch history")
	}
	resp := make([]OfferEventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, OfferEventResponse{
			OldStatus: string(ev.OldStatus),
			NewStatus: string(ev.NewStatus),
			ChangedBy: ev.ChangedBy,
			CreatedAt: ev.CreatedAt.UTC().Format(timeLayout),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"history": resp})
}

func (h *OfferHandler) Advice(c echo.Context) error {
	var req AdviceRequest
	if c.Request().ContentLength > 0 {
		if msg, ok := bindAndValidate(c, &req); !ok {
			return badRequest(c, msg)
		}
	}
	adv, err := h.svc.Advise(h.ctx(c), appmw.SessionFrom(c), c.Param("id"), c.Param("offerId"), req.Strategy)
	if err != nil {
		return writeError(c, err, "failed to get advice")
	}
	resp := AdviceResponse{Action: string(adv.Action)}
	if adv.Counter != nil {
		s := adv.Counter.StringFixed(2)
		resp.Counter = &s
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OfferHandler) ctx(c echo.Context) context.Context {
	return reqctx.WithListingID(c.Request().Context(), c.Param("id"))
}

func offerViews(list []model.Offer) []service.OfferView {
	out := make([]service.OfferView, 0, len(list))
	for i := range list {
		out = append(out, service.NewOfferView(&list[i]))
	}
	return out
}
