package controllers

import (
	"errors"
	"net/http"

	"blogapi/app/models"
	"blogapi/app/services"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	commentService *services.CommentService
	strictNotFound bool
}

// NewCommentController creates a new CommentController. With strictNotFound
// unset, updates of missing comments answer 500 rather than 404.
func NewCommentController(commentService *services.CommentService, strictNotFound bool) *CommentController {
	return &CommentController{commentService: commentService, strictNotFound: strictNotFound}
}

type createCommentRequest struct {
	PostSlug string `json:"postSlug"`
	Author   string `json:"author"`
	Content  string `json:"content"`
}

type updateCommentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Index handles listing all comments for a post
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postSlug := r.URL.Query().Get("postSlug")
	if postSlug == "" {
		sendError(w, http.StatusBadRequest, "Post slug is required", "")
		return
	}

	comments, err := cc.commentService.ListComments(r.Context(), postSlug)
	if err != nil {
		cc.fail(w, err, "Failed to fetch comments")
		return
	}
	sendJSON(w, http.StatusOK, comments)
}

// Create handles creating a new comment
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeBody(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.PostSlug == "" || req.Author == "" || req.Content == "" {
		sendError(w, http.StatusBadRequest, "Missing required fields", "")
		return
	}

	comment, err := cc.commentService.CreateComment(r.Context(), req.PostSlug, req.Author, req.Content)
	if err != nil {
		cc.fail(w, err, "Failed to create comment")
		return
	}
	sendJSON(w, http.StatusCreated, comment)
}

// Update handles editing an existing comment
func (cc *CommentController) Update(w http.ResponseWriter, r *http.Request) {
	id, postSlug := r.URL.Query().Get("id"), r.URL.Query().Get("postSlug")
	if id == "" || postSlug == "" {
		sendError(w, http.StatusBadRequest, "Comment ID and post slug are required", "")
		return
	}

	var req updateCommentRequest
	if err := decodeBody(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Author == "" || req.Content == "" {
		sendError(w, http.StatusBadRequest, "Missing required fields", "")
		return
	}

	comment, err := cc.commentService.UpdateComment(r.Context(), postSlug, id, req.Author, req.Content)
	if err != nil {
		cc.fail(w, err, "Failed to update comment")
		return
	}
	sendJSON(w, http.StatusOK, comment)
}

// Delete handles deleting a comment
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	id, postSlug := r.URL.Query().Get("id"), r.URL.Query().Get("postSlug")
	if id == "" || postSlug == "" {
		sendError(w, http.StatusBadRequest, "Comment ID and post slug are required", "")
		return
	}

	if err := cc.commentService.DeleteComment(r.Context(), postSlug, id); err != nil {
		cc.fail(w, err, "Failed to delete comment")
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (cc *CommentController) fail(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		sendError(w, http.StatusBadRequest, "Invalid comment", err.Error())
	case errors.Is(err, models.ErrNotFound) && cc.strictNotFound:
		sendError(w, http.StatusNotFound, "Comment not found", "")
	default:
		sendError(w, http.StatusInternalServerError, message, "")
	}
}
