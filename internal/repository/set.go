package repository

import "gorm.io/gorm"

// Set groups the repositories of one storage backend.
type Set struct {
	Listings      ListingRepository
	Offers        OfferRepository
	Conversations ConversationRepository
	Reviews       ReviewRepository
	Follows       FollowRepository
	Wishlist      WishlistRepository
	Notifications NotificationRepository
}

func NewGormSet(db *gorm.DB) Set {
	return Set{
		Listings:      NewListingRepository(db),
		Offers:        NewOfferRepository(db),
		Conversations: NewConversationRepository(db),
		Reviews:       NewReviewRepository(db),
		Follows:       NewFollowRepository(db),
		Wishlist:      NewWishlistRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}
