package domain

import "time"

var (
	ErrReviewExists   = &Error{Kind: KindConflict, Message: "Review already exist"}
	ErrReviewNotFound = &Error{Kind: KindNotFound, Message: "Review not found"}
)

type Review struct {
	ID      string
	Rating  int
	Text    string
	OwnerID string
	Owner   *Owner // populated on the public list

	CreatedAt time.Time
	UpdatedAt time.Time
}
