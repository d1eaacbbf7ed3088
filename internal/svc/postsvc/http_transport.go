package postsvc

import (
	"fmt"
	"net/http"

	"github.com/mkrupp/publishing/internal/infra/logging"
	http_ "github.com/mkrupp/publishing/internal/infra/transport/http"
)

type postRequest struct {
	Title string  `json:"title" validate:"required"`
	Text  string  `json:"text"  validate:"required"`
	Image *string `json:"image" validate:"omitempty,url"`
}

// HTTPTransport exposes PostService under /posts.
type HTTPTransport struct {
	postSvc *PostService
	log     logging.Logger
	cfg     http_.HTTPTransportConfig
	mux     *http.ServeMux
}

var (
	_ http_.HTTPTransport = (*HTTPTransport)(nil)
	_ http_.Mounter       = (*HTTPTransport)(nil)
)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
func NewHTTPTransport(postSvc *PostService, cfg http_.HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		postSvc: postSvc,
		log:     logging.GetLogger("svc.postsvc.http_transport"),
		cfg:     cfg,
		mux:     http.NewServeMux(),
	}

	ht.Mount(ht.mux)

	return ht
}

// Mount registers the post routes on mux:
// - POST /posts: Create a post
// - GET /posts: List all posts
// - GET /posts/{id}: Fetch one post
// - PUT /posts/{id}: Replace a post
// - DELETE /posts/{id}: Remove a post.
func (ht *HTTPTransport) Mount(mux *http.ServeMux) {
	mux.HandleFunc("POST /posts", ht.HandleCreate)
	mux.HandleFunc("GET /posts", ht.HandleFindAll)
	mux.HandleFunc("GET /posts/{id}", ht.HandleFindOne)
	mux.HandleFunc("PUT /posts/{id}", ht.HandleUpdate)
	mux.HandleFunc("DELETE /posts/{id}", ht.HandleRemove)
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// HandleCreate processes post creation requests.
// Expects a JSON body {title, text, image?}; answers 201 with the stored post.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	err := ht.handleCreate(w, r)
	http_.LogResult(ht.log, r, "post create", err)
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req postRequest
	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodySize, &req); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("decode request: %w", err)
	}

	post, err := ht.postSvc.Create(r.Context(), req.Title, req.Text, req.Image)
	if err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("create post: %w", err)
	}

	return http_.WriteJSON(w, http.StatusCreated, post)
}

// HandleFindAll lists all posts.
func (ht *HTTPTransport) HandleFindAll(w http.ResponseWriter, r *http.Request) {
	err := ht.handleFindAll(w, r)
	http_.LogResult(ht.log, r, "post list", err)
}

func (ht *HTTPTransport) handleFindAll(w http.ResponseWriter, r *http.Request) error {
	posts, err := ht.postSvc.FindAll(r.Context())
	if err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("find post: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, posts)
}

// HandleFindOne fetches the post named by the {id} path value.
func (ht *HTTPTransport) HandleFindOne(w http.ResponseWriter, r *http.Request) {
	err := ht.handleFindOne(w, r)
	http_.LogResult(ht.log, r, "post fetch", err)
}

func (ht *HTTPTransport) handleFindOne(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.RespondError(w, err)

		return err
	}

	post, err := ht.postSvc.FindOne(r.Context(), id)
	if err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("find post: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, post)
}

// HandleUpdate replaces the post named by {id}; answers 204.
func (ht *HTTPTransport) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	err := ht.handleUpdate(w, r)
	http_.LogResult(ht.log, r, "post update", err)
}

func (ht *HTTPTransport) handleUpdate(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.RespondError(w, err)

		return err
	}

	var req postRequest
	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodySize, &req); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("decode request: %w", err)
	}

	if err := ht.postSvc.Update(r.Context(), id, req.Title, req.Text, req.Image); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("update post: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// HandleRemove deletes the post named by {id}; answers 204.
func (ht *HTTPTransport) HandleRemove(w http.ResponseWriter, r *http.Request) {
	err := ht.handleRemove(w, r)
	http_.LogResult(ht.log, r, "post remove", err)
}

func (ht *HTTPTransport) handleRemove(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.RespondError(w, err)

		return err
	}

	if err := ht.postSvc.Remove(r.Context(), id); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("remove post: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
