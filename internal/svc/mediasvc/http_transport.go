package mediasvc

import (
	"fmt"
	"net/http"

	"github.com/mkrupp/publishing/internal/infra/logging"
	http_ "github.com/mkrupp/publishing/internal/infra/transport/http"
)

type mediaRequest struct {
	Title    string `json:"title"    validate:"required"`
	Username string `json:"username" validate:"required"`
}

// HTTPTransport exposes MediaService under /medias.
type HTTPTransport struct {
	mediaSvc *MediaService
	log      logging.Logger
	cfg      http_.HTTPTransportConfig
	mux      *http.ServeMux
}

var (
	_ http_.HTTPTransport = (*HTTPTransport)(nil)
	_ http_.Mounter       = (*HTTPTransport)(nil)
)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
func NewHTTPTransport(mediaSvc *MediaService, cfg http_.HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		mediaSvc: mediaSvc,
		log:      logging.GetLogger("svc.mediasvc.http_transport"),
		cfg:      cfg,
		mux:      http.NewServeMux(),
	}

	ht.Mount(ht.mux)

	return ht
}

// Mount registers the media routes on mux:
// - POST /medias: Create a media
// - GET /medias: List all media
// - GET /medias/{id}: Fetch one media
// - PUT /medias/{id}: Replace a media
// - DELETE /medias/{id}: Remove a media.
func (ht *HTTPTransport) Mount(mux *http.ServeMux) {
	mux.HandleFunc("POST /medias", ht.HandleCreate)
	mux.HandleFunc("GET /medias", ht.HandleFindAll)
	mux.HandleFunc("GET /medias/{id}", ht.HandleFindOne)
	mux.HandleFunc("PUT /medias/{id}", ht.HandleUpdate)
	mux.HandleFunc("DELETE /medias/{id}", ht.HandleRemove)
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// HandleCreate processes media creation requests.
// Expects a JSON body {title, username}; answers 201 with the stored media.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	err := ht.handleCreate(w, r)
	http_.LogResult(ht.log, r, "media create", err)
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req mediaRequest
	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodySize, &req); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("decode request: %w", err)
	}

	media, err := ht.mediaSvc.Create(r.Context(), req.Title, req.Username)
	if err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("create media: %w", err)
	}

	return http_.WriteJSON(w, http.StatusCreated, media)
}

// HandleFindAll lists all media.
func (ht *HTTPTransport) HandleFindAll(w http.ResponseWriter, r *http.Request) {
	err := ht.handleFindAll(w, r)
	http_.LogResult(ht.log, r, "media list", err)
}

func (ht *HTTPTransport) handleFindAll(w http.ResponseWriter, r *http.Request) error {
	medias, err := ht.mediaSvc.FindAll(r.Context())
	if err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("find media: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, medias)
}

// HandleFindOne fetches the media named by the {id} path value.
func (ht *HTTPTransport) HandleFindOne(w http.ResponseWriter, r *http.Request) {
	err := ht.handleFindOne(w, r)
	http_.LogResult(ht.log, r, "media fetch", err)
}

func (ht *HTTPTransport) handleFindOne(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.RespondError(w, err)

		return err
	}

	media, err := ht.mediaSvc.FindOne(r.Context(), id)
	if err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("find media: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, media)
}

// HandleUpdate replaces the media named by {id}; answers 204.
func (ht *HTTPTransport) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	err := ht.handleUpdate(w, r)
	http_.LogResult(ht.log, r, "media update", err)
}

func (ht *HTTPTransport) handleUpdate(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.RespondError(w, err)

		return err
	}

	var req mediaRequest
	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodySize, &req); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("decode request: %w", err)
	}

	if err := ht.mediaSvc.Update(r.Context(), id, req.Title, req.Username); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("update media: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// HandleRemove deletes the media named by {id}; answers 204.
func (ht *HTTPTransport) HandleRemove(w http.ResponseWriter, r *http.Request) {
	err := ht.handleRemove(w, r)
	http_.LogResult(ht.log, r, "media remove", err)
}

func (ht *HTTPTransport) handleRemove(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.RespondError(w, err)

		return err
	}

	if err := ht.mediaSvc.Remove(r.Context(), id); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("remove media: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
