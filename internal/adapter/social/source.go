// internal/adapter/social/source.go

package social

import (
	"context"

	"tagpulse/internal/domain/thread"
	"tagpulse/internal/domain/trend"
)

// RedditSource serves the hot listing of one subreddit as a content source.
type RedditSource struct {
	client    *RedditClient
	subreddit string
	limit     int
}

// NewRedditSource creates a source over the given subreddit
func NewRedditSource(client *RedditClient, subreddit string, limit int) *RedditSource {
	return &RedditSource{
		client:    client,
		subreddit: subreddit,
		limit:     limit,
	}
}

// ListItems fetches the hot posts and labels them with title keywords.
func (s *RedditSource) ListItems(ctx context.Context) ([]trend.Item, error) {
	posts, err := s.client.FetchHotPosts(ctx, s.subreddit, s.limit)
	if err != nil {
		return nil, err
	}
	return ItemsFromPosts(posts), nil
}

// ListComments fetches the flattened comment tree of a post.
func (s *RedditSource) ListComments(ctx context.Context, postID string) ([]thread.CommentRecord, error) {
	return s.client.FetchComments(ctx, postID)
}

// ListPostIDs returns the IDs of the current hot posts.
func (s *RedditSource) ListPostIDs(ctx context.Context) ([]string, error) {
	posts, err := s.client.FetchHotPosts(ctx, s.subreddit, s.limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids, nil
}
