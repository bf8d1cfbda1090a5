// internal/server/handlers/comments.go

package handlers

import (
	"net/http"

	"tagpulse/internal/domain/ident"
	"tagpulse/internal/domain/thread"
	"tagpulse/internal/service/listening"
)

// defaultPostID is analysed when no postId is given.
const defaultPostID = "1"

// CommentHandler handles comment thread analysis requests
type CommentHandler struct {
	analyzer *listening.Analyzer
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(analyzer *listening.Analyzer) *CommentHandler {
	return &CommentHandler{
		analyzer: analyzer,
	}
}

type analyzeCommentsRequest struct {
	PostID   ident.ID               `json:"postId"`
	Comments []thread.CommentRecord `json:"comments" validate:"required"`
}

// AnalyzeThread reports per-root depths and viral chains of a stored post
func (h *CommentHandler) AnalyzeThread(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("postId")
	if postID == "" {
		postID = defaultPostID
	}

	minDepth, err := intParam(r, "min_depth")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid min_depth parameter", err)
		return
	}

	report, err := h.analyzer.AnalyzeThread(r.Context(), postID, minDepth)
	if err != nil {
		respondWithSourceError(w, "Failed to analyze comments", err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// AnalyzeComments analyses a flat comment list posted by the caller
func (h *CommentHandler) AnalyzeComments(w http.ResponseWriter, r *http.Request) {
	minDepth, err := intParam(r, "min_depth")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid min_depth parameter", err)
		return
	}

	var req analyzeCommentsRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.analyzer.AnalyzeComments(string(req.PostID), req.Comments, minDepth))
}
