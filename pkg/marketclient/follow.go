package marketclient

import (
	"context"
	"sync"

	"github.com/shinyyama/fleamarket-backend/pkg/marketclient/optimistic"
)

// FollowTracker keeps the session user's following set and updates it
// optimistically.
type FollowTracker struct {
	client *Client
	sess   Session

	mu        sync.RWMutex
	following map[string]bool
}

func NewFollowTracker(client *Client, sess Session) *FollowTracker {
	return &FollowTracker{client: client, sess: sess, following: map[string]bool{}}
}

// Load replaces the local set with the server's.
func (t *FollowTracker) Load(ctx context.Context) error {
	uids, err := t.client.Following(ctx, t.sess, t.sess.UID)
	if err != nil {
		return err
	}
	set := make(map[string]bool, len(uids))
	for _, uid := range uids {
		set[uid] = true
	}
	t.mu.Lock()
	t.following = set
	t.mu.Unlock()
	return nil
}

func (t *FollowTracker) IsFollowing(uid string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.following[uid]
}

func (t *FollowTracker) set(uid string, v bool) func() {
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if v {
			t.following[uid] = true
		} else {
			delete(t.following, uid)
		}
	}
}

func (t *FollowTracker) Follow(ctx context.Context, uid string) error {
	was := t.IsFollowing(uid)
	return optimistic.Run(ctx, optimistic.Command{
		Apply:  t.set(uid, true),
		Remote: func(ctx context.Context) error { return t.client.Follow(ctx, t.sess, uid) },
		Revert: t.set(uid, was),
	})
}

func (t *FollowTracker) Unfollow(ctx context.Context, uid string) error {
	was := t.IsFollowing(uid)
	return optimistic.Run(ctx, optimistic.Command{
		Apply:  t.set(uid, false),
		Remote: func(ctx context.Context) error { return t.client.Unfollow(ctx, t.sess, uid) },
		Revert: t.set(uid, was),
	})
}
