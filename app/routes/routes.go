package routes

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"blogapi/app/controllers"
	"blogapi/app/middleware"
	"blogapi/app/services"

	"github.com/gorilla/mux"
)

const apiPrefix = "/api"

// Options tune the HTTP surface.
type Options struct {
	APIKey         string
	StrictNotFound bool
	Compress       bool
	Logger         *slog.Logger
}

// SetupRoutes defines the application's routes and returns the root handler.
// Middleware wraps the router rather than being attached with Use, so that
// unmatched paths and methods under /api still pass the key check.
func SetupRoutes(postService *services.PostService, commentService *services.CommentService, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	router.HandleFunc("/healthz", controllers.Health).Methods("GET")

	postController := controllers.NewPostController(postService)
	commentController := controllers.NewCommentController(commentService, opts.StrictNotFound)

	api := router.PathPrefix(apiPrefix).Subrouter()
	api.HandleFunc("/posts", postController.Index).Methods("GET")
	api.HandleFunc("/posts/{slug}", postController.Show).Methods("GET")

	api.HandleFunc("/comments", commentController.Index).Methods("GET")
	api.HandleFunc("/comments", commentController.Create).Methods("POST")
	api.HandleFunc("/comments", commentController.Update).Methods("PUT")
	api.HandleFunc("/comments", commentController.Delete).Methods("DELETE")

	// Applied innermost first
	var handler http.Handler = router
	handler = onAPI(middleware.ContentTypeJSON)(handler)
	handler = onAPI(middleware.APIKey(opts.APIKey))(handler)
	if opts.Compress {
		handler = middleware.Compress(handler)
	}
	handler = middleware.Logger(log)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recoverer(log)(handler)
	return handler
}

// onAPI applies mw only to requests under the /api prefix.
func onAPI(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == apiPrefix || strings.HasPrefix(r.URL.Path, apiPrefix+"/") {
				guarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
