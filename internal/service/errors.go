package service

import (
	"errors"

	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/session"
)

var (
	ErrNotFound        = repository.ErrNotFound
	ErrListingSold     = repository.ErrListingSold
	ErrOfferNotPending = repository.ErrOfferNotPending
	ErrConflict        = repository.ErrConflict
	ErrUnauthenticated = session.ErrUnauthenticated

	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid_input")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrSelfOffer       = errors.New("cannot make an offer on your own listing")
	ErrDuplicateOffer  = errors.New("a pending offer already exists for this listing")
	ErrSelfReview      = errors.New("cannot review yourself")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrCommentRequired = errors.New("comment is required")
	ErrSelfFollow      = errors.New("cannot follow yourself")
)
