// internal/adapter/storage/content_store.go

package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4/pgxpool"

	"tagpulse/internal/domain/thread"
	"tagpulse/internal/domain/trend"
	"tagpulse/internal/service/listening"
)

// ErrInvalidID is returned for identifiers that are not database keys.
var ErrInvalidID = listening.ErrInvalidPostID

// ContentStore reads posts, hashtags and comments from Postgres
type ContentStore struct {
	db *pgxpool.Pool
}

// NewContentStore creates a new content store
func NewContentStore(db *pgxpool.Pool) *ContentStore {
	return &ContentStore{
		db: db,
	}
}

// ListItems returns every post with its hashtags in attachment order.
// Posts without hashtags are returned with an empty label list.
func (s *ContentStore) ListItems(ctx context.Context) ([]trend.Item, error) {
	query := `
		SELECT p.id, h.tag
		FROM posts p
		LEFT JOIN post_hashtags ph ON ph.post_id = p.id
		LEFT JOIN hashtags h ON h.id = ph.hashtag_id
		ORDER BY p.id, ph.position
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var items []trend.Item
	for rows.Next() {
		var postID int64
		var tag *string

		if err := rows.Scan(&postID, &tag); err != nil {
			return nil, fmt.Errorf("error scanning item: %w", err)
		}

		items = appendLabel(items, strconv.FormatInt(postID, 10), tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// appendLabel folds one (post, tag) row into items. Rows of the same post
// must be adjacent.
func appendLabel(items []trend.Item, id string, tag *string) []trend.Item {
	if n := len(items); n == 0 || items[n-1].ID != id {
		items = append(items, trend.Item{ID: id, Labels: []string{}})
	}
	if tag != nil {
		last := &items[len(items)-1]
		last.Labels = append(last.Labels, *tag)
	}
	return items
}

// ListComments returns the comments of a post in creation order
func (s *ContentStore) ListComments(ctx context.Context, postID string) ([]thread.CommentRecord, error) {
	id, err := parseID(postID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, content, author_id, post_id, parent_id
		FROM comments
		WHERE post_id = $1
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	comments := []thread.CommentRecord{}
	for rows.Next() {
		var commentID, authorID, post int64
		var parentID *int64
		var c thread.CommentRecord

		if err := rows.Scan(&commentID, &c.Content, &authorID, &post, &parentID); err != nil {
			return nil, fmt.Errorf("error scanning comment: %w", err)
		}

		c.ID = strconv.FormatInt(commentID, 10)
		c.AuthorID = strconv.FormatInt(authorID, 10)
		c.PostID = strconv.FormatInt(post, 10)
		if parentID != nil {
			p := strconv.FormatInt(*parentID, 10)
			c.ParentID = &p
		}

		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

// ListPostIDs returns the IDs of all posts
func (s *ContentStore) ListPostIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM posts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning post id: %w", err)
		}
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post ids: %w", err)
	}

	return ids, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}
