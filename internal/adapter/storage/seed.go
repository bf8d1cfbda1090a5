// internal/adapter/storage/seed.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type demoPost struct {
	content string
	author  string
	tags    []string
}

type demoComment struct {
	content string
	author  string
	post    int
	parent  int // index into the comment list, -1 for top level
}

var (
	demoUsers = []string{"Alice", "Bob"}
	demoTags  = []string{"sports", "music", "news", "football", "concert"}
	demoPosts = []demoPost{
		{content: "Great match today! #sports #football", author: "Alice", tags: []string{"sports", "football"}},
		{content: "Loved the concert last night. #music #concert", author: "Bob", tags: []string{"music", "concert"}},
		{content: "Breaking: big news today. #news #sports", author: "Alice", tags: []string{"news", "sports"}},
	}
	demoComments = []demoComment{
		{content: "Wow!", author: "Bob", post: 0, parent: -1},
		{content: "Indeed!", author: "Alice", post: 0, parent: 0},
		{content: "Agree", author: "Bob", post: 0, parent: 1},
	}
)

// SeedDemo replaces all content with a small demo dataset: three tagged
// posts and one three-level comment thread.
func SeedDemo(ctx context.Context, db *pgxpool.Pool) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE comments, post_hashtags, hashtags, posts, users RESTART IDENTITY CASCADE`); err != nil {
		return fmt.Errorf("error clearing content: %w", err)
	}

	users := make(map[string]int64, len(demoUsers))
	for _, name := range demoUsers {
		id, err := insertReturningID(ctx, tx, `INSERT INTO users (name) VALUES ($1) RETURNING id`, name)
		if err != nil {
			return fmt.Errorf("error seeding user %s: %w", name, err)
		}
		users[name] = id
	}

	tags := make(map[string]int64, len(demoTags))
	for _, tag := range demoTags {
		id, err := insertReturningID(ctx, tx, `INSERT INTO hashtags (tag) VALUES ($1) RETURNING id`, tag)
		if err != nil {
			return fmt.Errorf("error seeding hashtag %s: %w", tag, err)
		}
		tags[tag] = id
	}

	posts := make([]int64, len(demoPosts))
	for i, p := range demoPosts {
		id, err := insertReturningID(ctx, tx,
			`INSERT INTO posts (content, author_id) VALUES ($1, $2) RETURNING id`,
			p.content, users[p.author])
		if err != nil {
			return fmt.Errorf("error seeding post %d: %w", i, err)
		}
		posts[i] = id

		for pos, tag := range p.tags {
			if _, err := tx.Exec(ctx,
				`INSERT INTO post_hashtags (post_id, hashtag_id, position) VALUES ($1, $2, $3)`,
				id, tags[tag], pos); err != nil {
				return fmt.Errorf("error tagging post %d: %w", i, err)
			}
		}
	}

	comments := make([]int64, len(demoComments))
	for i, c := range demoComments {
		var parent *int64
		if c.parent >= 0 {
			parent = &comments[c.parent]
		}

		id, err := insertReturningID(ctx, tx,
			`INSERT INTO comments (content, author_id, post_id, parent_id) VALUES ($1, $2, $3, $4) RETURNING id`,
			c.content, users[c.author], posts[c.post], parent)
		if err != nil {
			return fmt.Errorf("error seeding comment %d: %w", i, err)
		}
		comments[i] = id
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing seed: %w", err)
	}
	return nil
}

func insertReturningID(ctx context.Context, tx pgx.Tx, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
