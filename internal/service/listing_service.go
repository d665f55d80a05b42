package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/realtime"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
	"github.com/shinyyama/fleamarket-backend/internal/session"
	"github.com/shinyyama/fleamarket-backend/internal/storage"
	"github.com/shopspring/decimal"
)

const (
	MaxListingNameLength = 120
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

type CreateListingInput struct {
	Name        string
	Description string
	Price       string
	Category    string
	ImageURLs   []string
}

type ListingQuery struct {
	Limit       int
	Offset      int
	Category    string
	Query       string
	IncludeSold bool
}

type ListingService interface {
	Create(ctx context.Context, sess session.Session, in CreateListingInput) (*model.Listing, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	List(ctx context.Context, q ListingQuery) ([]model.Listing, int64, error)
	ListMine(ctx context.Context, sess session.Session) ([]model.Listing, error)
	AttachImage(ctx context.Context, sess session.Session, listingID, filename, contentType string, r io.Reader) (*model.ListingImage, error)
}

type listingService struct {
	repo     repository.ListingRepository
	uploader storage.Uploader
	pub      Publisher
}

func NewListingService(repo repository.ListingRepository, uploader storage.Uploader, pub Publisher) ListingService {
	return &listingService{repo: repo, uploader: uploader, pub: pub}
}

func (s *listingService) Create(ctx context.Context, sess session.Session, in CreateListingInput) (*model.Listing, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxListingNameLength {
		return nil, fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, MaxListingNameLength)
	}
	price, err := ParseAmount(in.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: price must be a positive amount", ErrInvalidInput)
	}
	l := &model.Listing{
		SellerUID:   sess.UID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		Category:    strings.TrimSpace(in.Category),
	}
	for _, u := range in.ImageURLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(u), "data:") {
			return nil, fmt.Errorf("%w: image urls must not be data URIs", ErrInvalidInput)
		}
		l.Images = append(l.Images, model.ListingImage{ImageURL: u})
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	log.Printf("[listing] rid=%s stage=created listing=%s seller=%s", reqctx.RID(ctx), l.ID, l.SellerUID)
	return l, nil
}

func (s *listingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *listingService) List(ctx context.Context, q ListingQuery) ([]model.Listing, int64, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.repo.List(ctx, repository.ListingFilter{
		Limit:       q.Limit,
		Offset:      q.Offset,
		Category:    strings.TrimSpace(q.Category),
		Query:       strings.TrimSpace(q.Query),
		IncludeSold: q.IncludeSold,
	})
}

func (s *listingService) ListMine(ctx context.Context, sess session.Session) ([]model.Listing, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	list, _, err := s.repo.List(ctx, repository.ListingFilter{
		Limit:       MaxListLimit,
		SellerUID:   sess.UID,
		IncludeSold: true,
	})
	return list, err
}

func (s *listingService) AttachImage(ctx context.Context, sess session.Session, listingID, filename, contentType string, r io.Reader) (*model.ListingImage, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if err := storage.CheckContentType(contentType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	l, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.SellerUID != sess.UID {
		return nil, ErrForbidden
	}
	objectPath := fmt.Sprintf("listings/%s/%s%s", l.ID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	url, err := s.uploader.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrUnsupportedType) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		log.Printf("[listing] rid=%s stage=upload_fail listing=%s err=%v", reqctx.RID(ctx), l.ID, err)
		return nil, err
	}
	img, err := s.repo.AddImage(ctx, l.ID, url)
	if err != nil {
		return nil, err
	}
	l.Images = append(l.Images, *img)
	publishListing(ctx, s.pub, realtime.EventModified, l)
	return img, nil
}

// MaxAmount is the largest value a decimal(12,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// ParseAmount reads a money amount, rounds it to cents and requires it to be
// positive and at most MaxAmount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() || d.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
