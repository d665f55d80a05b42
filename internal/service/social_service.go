package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shinyyama/fleamarket-backend/internal/identity"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/session"
)

// PublicProfile is what anyone can see about a user.
type PublicProfile struct {
	UID         string
	DisplayName string
	PhotoURL    string
	Rating      model.SellerRating
	Followers   int64
	Following   int64
}

type SocialService interface {
	Follow(ctx context.Context, sess session.Session, uid string) error
	Unfollow(ctx context.Context, sess session.Session, uid string) error
	IsFollowing(ctx context.Context, sess session.Session, uid string) (bool, error)
	Followers(ctx context.Context, uid string) ([]string, error)
	Following(ctx context.Context, uid string) ([]string, error)
	Profile(ctx context.Context, uid string) (*PublicProfile, error)
}

type socialService struct {
	follows repository.FollowRepository
	reviews repository.ReviewRepository
	dir     identity.Directory
}

func NewSocialService(follows repository.FollowRepository, reviews repository.ReviewRepository, dir identity.Directory) SocialService {
	return &socialService{follows: follows, reviews: reviews, dir: dir}
}

func (s *socialService) Follow(ctx context.Context, sess session.Session, uid string) error {
	if err := sess.Require(); err != nil {
		return err
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return fmt.Errorf("%w: uid is required", ErrInvalidInput)
	}
	if uid == sess.UID {
		return ErrSelfFollow
	}
	return s.follows.Follow(ctx, sess.UID, uid)
}

func (s *socialService) Unfollow(ctx context.Context, sess session.Session, uid string) error {
	if err := sess.Require(); err != nil {
		return err
	}
	if uid == sess.UID {
		return ErrSelfFollow
	}
	return s.follows.Unfollow(ctx, sess.UID, uid)
}

func (s *socialService) IsFollowing(ctx context.Context, sess session.Session, uid string) (bool, error) {
	if !sess.Valid() {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, sess.UID, uid)
}

func (s *socialService) Followers(ctx context.Context, uid string) ([]string, error) {
	return s.follows.ListFollowers(ctx, uid)
}

func (s *socialService) Following(ctx context.Context, uid string) ([]string, error) {
	return s.follows.ListFollowing(ctx, uid)
}

func (s *socialService) Profile(ctx context.Context, uid string) (*PublicProfile, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrInvalidInput)
	}
	p := &PublicProfile{UID: uid, DisplayName: uid}
	if s.dir != nil {
		prof, err := s.dir.Lookup(ctx, uid)
		if err != nil {
			if errors.Is(err, identity.ErrUserNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		p.DisplayName = prof.DisplayName
		p.PhotoURL = prof.PhotoURL
	}
	rating, err := s.reviews.GetRating(ctx, uid)
	if err != nil {
		return nil, err
	}
	p.Rating = *rating
	counts, err := s.follows.Counts(ctx, uid)
	if err != nil {
		return nil, err
	}
	p.Followers = counts.Followers
	p.Following = counts.Following
	return p, nil
}
