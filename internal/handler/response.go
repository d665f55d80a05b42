package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/fleamarket-backend/internal/ai"
	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
	"github.com/shinyyama/fleamarket-backend/internal/service"
)

const timeLayout = time.RFC3339

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrUnauthenticated, http.StatusUnauthorized, "unauthorized"},
	{service.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{service.ErrInvalidRating, http.StatusBadRequest, "invalid_rating"},
	{service.ErrCommentRequired, http.StatusBadRequest, "comment_required"},
	{service.ErrSelfOffer, http.StatusBadRequest, "self_offer"},
	{service.ErrSelfReview, http.StatusBadRequest, "self_review"},
	{service.ErrSelfFollow, http.StatusBadRequest, "self_follow"},
	{service.ErrInvalidInput, http.StatusBadRequest, "bad_request"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrListingSold, http.StatusConflict, "listing_sold"},
	{service.ErrOfferNotPending, http.StatusConflict, "offer_not_pending"},
	{service.ErrDuplicateOffer, http.StatusConflict, "duplicate_offer"},
	{service.ErrConflict, http.StatusConflict, "conflict"},
	{ai.ErrNotConfigured, http.StatusServiceUnavailable, "ai_unavailable"},
	{ai.ErrParseFailed, http.StatusBadGateway, "ai_parse_failed"},
}

// writeError maps service errors to the error envelope. Unknown errors are
// logged and reported as internal_error with fallback as the message.
func writeError(c echo.Context, err error, fallback string) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return c.JSON(m.status, NewErrorResponse(m.code, err.Error()))
		}
	}
	log.Printf("[http] rid=%s path=%s err=%v", reqctx.RID(c.Request().Context()), c.Path(), err)
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", fallback))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", message))
}

// Validator adapts validator/v10 to echo.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// bindAndValidate decodes the body into req and validates its tags.
func bindAndValidate(c echo.Context, req interface{}) (string, bool) {
	if err := c.Bind(req); err != nil {
		return "invalid json", false
	}
	if err := c.Validate(req); err != nil {
		return err.Error(), false
	}
	return "", true
}
