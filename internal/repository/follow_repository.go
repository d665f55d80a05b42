package repository

import (
	"context"

	"github.com/shinyyama/fleamarket-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowCounts struct {
	Followers int64
	Following int64
}

type FollowRepository interface {
	Follow(ctx context.Context, followerUID, followeeUID string) error
	Unfollow(ctx context.Context, followerUID, followeeUID string) error
	IsFollowing(ctx context.Context, followerUID, followeeUID string) (bool, error)
	ListFollowers(ctx context.Context, uid string) ([]string, error)
	ListFollowing(ctx context.Context, uid string) ([]string, error)
	Counts(ctx context.Context, uid string) (FollowCounts, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Follow is idempotent.
func (r *followRepository) Follow(ctx context.Context, followerUID, followeeUID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Follow{FollowerUID: followerUID, FolloweeUID: followeeUID}).Error
}

func (r *followRepository) Unfollow(ctx context.Context, followerUID, followeeUID string) error {
	return r.db.WithContext(ctx).
		Where("follower_uid = ? AND followee_uid = ?", followerUID, followeeUID).
		Delete(&model.Follow{}).Error
}

func (r *followRepository) IsFollowing(ctx context.Context, followerUID, followeeUID string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_uid = ? AND followee_uid = ?", followerUID, followeeUID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, uid string) ([]string, error) {
	var uids []string
	if err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("followee_uid = ?", uid).
		Order("created_at DESC").
		Pluck("follower_uid", &uids).Error; err != nil {
		return nil, err
	}
	return uids, nil
}

func (r *followRepository) ListFollowing(ctx context.Context, uid string) ([]string, error) {
	var uids []string
	if err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_uid = ?", uid).
		Order("created_at DESC").
		Pluck("followee_uid", &uids).Error; err != nil {
		return nil, err
	}
	return uids, nil
}

func (r *followRepository) Counts(ctx context.Context, uid string) (FollowCounts, error) {
	var c FollowCounts
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Follow{}).Where("followee_uid = ?", uid).Count(&c.Followers).Error; err != nil {
		return c, err
	}
	if err := db.Model(&model.Follow{}).Where("follower_uid = ?", uid).Count(&c.Following).Error; err != nil {
		return c, err
	}
	return c, nil
}
