// internal/domain/thread/model.go

package thread

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"tagpulse/internal/domain/ident"
)

// CommentRecord is a flat comment as supplied by a content source. A nil
// ParentID marks a top-level comment.
type CommentRecord struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	AuthorID string  `json:"authorId"`
	PostID   string  `json:"postId"`
	ParentID *string `json:"parentId,omitempty"`
}

// UnmarshalJSON accepts numeric or string identifiers and reads the parent
// from either "parentId" or "parent". A parent of the wrong shape decodes as
// no parent.
func (c *CommentRecord) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID       ident.ID        `json:"id"`
		Content  string          `json:"content"`
		AuthorID ident.ID        `json:"authorId"`
		PostID   ident.ID        `json:"postId"`
		ParentID json.RawMessage `json:"parentId"`
		Parent   json.RawMessage `json:"parent"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*c = CommentRecord{
		ID:       string(aux.ID),
		Content:  aux.Content,
		AuthorID: string(aux.AuthorID),
		PostID:   string(aux.PostID),
	}
	raw := aux.ParentID
	if len(raw) == 0 {
		raw = aux.Parent
	}
	if parent, ok := ident.Parse(raw); ok && parent != "" {
		c.ParentID = &parent
	}
	return nil
}

// HasParent reports whether the record references a parent comment.
func (c CommentRecord) HasParent() bool {
	return c.ParentID != nil && *c.ParentID != ""
}

// CommentNode is a record together with its direct replies in the order
// they were supplied.
type CommentNode struct {
	CommentRecord
	Replies []*CommentNode `json:"replies"`
}

// UnmarshalJSON decodes a node and its replies.
func (n *CommentNode) UnmarshalJSON(data []byte) error {
	if err := n.CommentRecord.UnmarshalJSON(data); err != nil {
		return err
	}

	var aux struct {
		Replies []*CommentNode `json:"replies"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Replies = aux.Replies
	if n.Replies == nil {
		n.Replies = []*CommentNode{}
	}
	return nil
}

// IsLeaf reports whether the node has no replies.
func (n *CommentNode) IsLeaf() bool {
	return len(n.Replies) == 0
}

// Forest is the ordered set of root nodes of a comment batch.
type Forest []*CommentNode

// ChainLink summarises one comment on a viral chain.
type ChainLink struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Chain is a root-first path ending at a leaf.
type Chain []ChainLink

// RootDepth pairs a root with the depth of its tree.
type RootDepth struct {
	RootID string `json:"rootId"`
	Depth  int    `json:"depth"`
}

// OrphanPolicy decides what happens to comments whose parent is not part of
// the batch.
type OrphanPolicy int

const (
	// OrphanAsRoot promotes the orphan to a root of its own tree.
	OrphanAsRoot OrphanPolicy = iota
	// OrphanDrop discards the orphan together with its replies.
	OrphanDrop
	// OrphanDefer holds the orphan back so a later batch can attach it.
	OrphanDefer
)

func (p OrphanPolicy) String() string {
	switch p {
	case OrphanAsRoot:
		return "root"
	case OrphanDrop:
		return "drop"
	case OrphanDefer:
		return "defer"
	default:
		return fmt.Sprintf("OrphanPolicy(%d)", int(p))
	}
}

// ParseOrphanPolicy parses the names produced by OrphanPolicy.String.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "root":
		return OrphanAsRoot, nil
	case "drop":
		return OrphanDrop, nil
	case "defer":
		return OrphanDefer, nil
	default:
		return OrphanAsRoot, fmt.Errorf("unknown orphan policy: %q", s)
	}
}
