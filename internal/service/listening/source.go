// internal/service/listening/source.go

package listening

import (
	"context"
	"errors"

	"tagpulse/internal/domain/thread"
	"tagpulse/internal/domain/trend"
)

// ErrSourceUnavailable is returned by content sources that cannot be reached.
var ErrSourceUnavailable = errors.New("content source unavailable")

// ErrInvalidPostID is returned for post identifiers a source cannot address.
var ErrInvalidPostID = errors.New("invalid post id")

// ContentSource supplies already-fetched snapshots to the engines.
type ContentSource interface {
	// ListItems returns every labelled item of the current snapshot
	ListItems(ctx context.Context) ([]trend.Item, error)

	// ListComments returns the flat comment records of one post
	ListComments(ctx context.Context, postID string) ([]thread.CommentRecord, error)

	// ListPostIDs returns the posts whose threads can be analysed
	ListPostIDs(ctx context.Context) ([]string, error)
}

// Publisher delivers analysis results to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}
