package docstore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
)

type followStore struct {
	fs *firestore.Client
}

func (s *followStore) edges(uid, col string) *firestore.CollectionRef {
	return userDoc(s.fs, uid).Collection(col)
}

// Follow writes both directions of the edge together.
func (s *followStore) Follow(ctx context.Context, followerUID, followeeUID string) error {
	now := time.Now().UTC()
	b := s.fs.Batch()
	b.Set(s.edges(followerUID, colFollowing).Doc(followeeUID), edgeDoc{UID: followeeUID, CreatedAt: now})
	b.Set(s.edges(followeeUID, colFollowers).Doc(followerUID), edgeDoc{UID: followerUID, CreatedAt: now})
	_, err := b.Commit(ctx)
	return err
}

func (s *followStore) Unfollow(ctx context.Context, followerUID, followeeUID string) error {
	b := s.fs.Batch()
	b.Delete(s.edges(followerUID, colFollowing).Doc(followeeUID))
	b.Delete(s.edges(followeeUID, colFollowers).Doc(followerUID))
	_, err := b.Commit(ctx)
	return err
}

func (s *followStore) IsFollowing(ctx context.Context, followerUID, followeeUID string) (bool, error) {
	_, err := s.edges(followerUID, colFollowing).Doc(followeeUID).Get(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *followStore) list(ctx context.Context, uid, col string) ([]string, error) {
	snaps, err := s.edges(uid, col).OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snap.Ref.ID)
	}
	return out, nil
}

func (s *followStore) ListFollowers(ctx context.Context, uid string) ([]string, error) {
	return s.list(ctx, uid, colFollowers)
}

func (s *followStore) ListFollowing(ctx context.Context, uid string) ([]string, error) {
	return s.list(ctx, uid, colFollowing)
}

func (s *followStore) Counts(ctx context.Context, uid string) (repository.FollowCounts, error) {
	followers, err := s.edges(uid, colFollowers).DocumentRefs(ctx).GetAll()
	if err != nil {
		return repository.FollowCounts{}, err
	}
	following, err := s.edges(uid, colFollowing).DocumentRefs(ctx).GetAll()
	if err != nil {
		return repository.FollowCounts{}, err
	}
	return repository.FollowCounts{
		Followers: int64(len(followers)),
		Following: int64(len(following)),
	}, nil
}

type wishlistStore struct {
	fs *firestore.Client
}

func (s *wishlistStore) items(uid string) *firestore.CollectionRef {
	return userDoc(s.fs, uid).Collection(colWishlist)
}

func (s *wishlistStore) Add(ctx context.Context, uid, listingID string) error {
	ref := s.items(uid).Doc(listingID)
	_, err := ref.Create(ctx, wishDoc{ListingID: listingID, CreatedAt: time.Now().UTC()})
	if isAlreadyExists(err) {
		return nil
	}
	return err
}

func (s *wishlistStore) Remove(ctx context.Context, uid, listingID string) error {
	_, err := s.items(uid).Doc(listingID).Delete(ctx)
	return err
}

func (s *wishlistStore) ListIDs(ctx context.Context, uid string) ([]string, error) {
	snaps, err := s.items(uid).OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		ids = append(ids, snap.Ref.ID)
	}
	return ids, nil
}
