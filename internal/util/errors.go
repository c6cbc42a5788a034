package util

import "errors"

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrProfileNotFound = errors.New("profile not found")

	ErrCommentTooLong    = errors.New("comment exceeds maximum length")
	ErrNotCommentAuthor  = errors.New("comment can only be changed by its author")
	ErrNoPendingProfile  = errors.New("no pending profile for user")
	ErrNoSpotlightPapers = errors.New("no papers available for spotlight")
)
