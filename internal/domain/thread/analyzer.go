// internal/domain/thread/analyzer.go

package thread

// DefaultMinDepth is the chain length a reply thread needs to count as viral.
const DefaultMinDepth = 3

// BuildTree links comments to their parents and returns the roots in the
// order they were first seen. Comments whose parent is not in the batch
// become roots.
//
// Parent references must form a forest. Cyclic records are never reachable
// from a root and therefore silently disappear from the result.
func BuildTree(comments []CommentRecord) Forest {
	forest, _ := BuildForest(comments, OrphanAsRoot)
	return forest
}

// BuildForest is BuildTree with an explicit orphan policy. Under
// OrphanDefer the orphaned records are returned as pending, in input order;
// their replies stay attached to them and are not returned separately.
//
// A repeated ID keeps the position of its first occurrence and the fields of
// its last.
func BuildForest(comments []CommentRecord, policy OrphanPolicy) (Forest, []CommentRecord) {
	byID := make(map[string]*CommentNode, len(comments))
	order := make([]string, 0, len(comments))

	for _, c := range comments {
		if n, ok := byID[c.ID]; ok {
			n.CommentRecord = c
			continue
		}
		byID[c.ID] = &CommentNode{CommentRecord: c, Replies: []*CommentNode{}}
		order = append(order, c.ID)
	}

	roots := Forest{}
	var pending []CommentRecord
	for _, id := range order {
		node := byID[id]
		if !node.HasParent() {
			roots = append(roots, node)
			continue
		}

		if parent, ok := byID[*node.ParentID]; ok {
			parent.Replies = append(parent.Replies, node)
			continue
		}

		switch policy {
		case OrphanDrop:
		case OrphanDefer:
			pending = append(pending, node.CommentRecord)
		default:
			roots = append(roots, node)
		}
	}

	return roots, pending
}

// MaxDepth returns the number of levels in the tree rooted at node; a node
// without replies has depth 1. The tree is walked level by level so very
// deep threads do not grow the call stack.
//
// node must not be part of a reply cycle.
func MaxDepth(node *CommentNode) int {
	if node == nil {
		return 0
	}

	depth := 0
	level := []*CommentNode{node}
	for len(level) > 0 {
		depth++
		var next []*CommentNode
		for _, n := range level {
			next = append(next, n.Replies...)
		}
		level = next
	}
	return depth
}

// RootDepths returns the depth of every tree in the forest.
func RootDepths(roots Forest) []RootDepth {
	depths := make([]RootDepth, 0, len(roots))
	for _, r := range roots {
		depths = append(depths, RootDepth{RootID: r.ID, Depth: MaxDepth(r)})
	}
	return depths
}

// FindViralChains returns every root-to-leaf path that is at least minDepth
// comments long. Paths are produced in depth-first order: roots as given,
// replies in insertion order. Only leaves end a chain.
func FindViralChains(roots Forest, minDepth int) []Chain {
	if minDepth < 1 {
		minDepth = DefaultMinDepth
	}

	type frame struct {
		node  *CommentNode
		depth int
	}

	chains := []Chain{}
	var path []*CommentNode
	var stack []frame

	for _, root := range roots {
		stack = append(stack[:0], frame{node: root})
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			path = append(path[:f.depth], f.node)

			if f.node.IsLeaf() {
				if len(path) >= minDepth {
					chains = append(chains, summarize(path))
				}
				continue
			}

			// reversed so the first reply is visited first
			for i := len(f.node.Replies) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: f.node.Replies[i], depth: f.depth + 1})
			}
		}
	}

	return chains
}

func summarize(path []*CommentNode) Chain {
	chain := make(Chain, len(path))
	for i, n := range path {
		chain[i] = ChainLink{ID: n.ID, Content: n.Content}
	}
	return chain
}
