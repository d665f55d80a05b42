// Package docstore implements the repository interfaces on Cloud Firestore.
//
// Layout:
//
//	listings/{id}
//	listings/{id}/offers/{offerId}
//	listings/{id}/offers/{offerId}/history/{seq}
//	conversations/{pairId}
//	conversations/{pairId}/messages/{msgId}
//	reviews/{id}
//	users/{uid}                      rating aggregate
//	users/{uid}/following/{uid}
//	users/{uid}/followers/{uid}
//	users/{uid}/wishlist/{listingId}
//	users/{uid}/notifications/{id}
package docstore

import (
	"cloud.google.com/go/firestore"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	colListings      = "listings"
	colOffers        = "offers"
	colHistory       = "history"
	colConversations = "conversations"
	colMessages      = "messages"
	colReviews       = "reviews"
	colUsers         = "users"
	colFollowing     = "following"
	colFollowers     = "followers"
	colWishlist      = "wishlist"
	colNotifications = "notifications"
)

// NewSet returns the Firestore-backed repositories.
func NewSet(client *firestore.Client) repository.Set {
	return repository.Set{
		Listings:      &listingStore{fs: client},
		Offers:        &offerStore{fs: client},
		Conversations: &conversationStore{fs: client},
		Reviews:       &reviewStore{fs: client},
		Follows:       &followStore{fs: client},
		Wishlist:      &wishlistStore{fs: client},
		Notifications: &notificationStore{fs: client},
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

func translate(err error) error {
	if isNotFound(err) {
		return repository.ErrNotFound
	}
	return err
}

func userDoc(fs *firestore.Client, uid string) *firestore.DocumentRef {
	return fs.Collection(colUsers).Doc(uid)
}
