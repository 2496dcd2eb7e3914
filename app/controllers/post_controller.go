package controllers

import (
	"errors"
	"net/http"

	"blogapi/app/models"
	"blogapi/app/services"

	"github.com/gorilla/mux"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	postService *services.PostService
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService) *PostController {
	return &PostController{postService: postService}
}

// Index handles listing posts with optional filters and ordering
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := models.PostQuery{
		Search:    params.Get("search"),
		Author:    params.Get("author"),
		StartDate: params.Get("startDate"),
		EndDate:   params.Get("endDate"),
		SortField: models.SortField(params.Get("sort")),
		SortOrder: models.SortOrder(params.Get("order")),
	}

	list, err := pc.postService.ListPosts(r.Context(), q)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to fetch posts", err.Error())
		return
	}
	sendJSON(w, http.StatusOK, list)
}

// Show handles displaying a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	post, err := pc.postService.GetPost(r.Context(), mux.Vars(r)["slug"])
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrValidation):
		sendError(w, http.StatusNotFound, "Post not found", "")
	case err != nil:
		sendError(w, http.StatusInternalServerError, "Failed to fetch post", err.Error())
	default:
		sendJSON(w, http.StatusOK, post)
	}
}
