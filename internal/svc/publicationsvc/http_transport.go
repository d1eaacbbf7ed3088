package publicationsvc

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mkrupp/publishing/internal/domain"
	"github.com/mkrupp/publishing/internal/infra/logging"
	http_ "github.com/mkrupp/publishing/internal/infra/transport/http"
)

const (
	ReasonInvalidPublished = "published must be a boolean value"
	ReasonInvalidAfter     = "after must be a valid ISO 8601 date string"
)

// afterLayouts are the accepted forms of the after filter. Values without
// a zone are read as UTC.
//
//nolint:gochecknoglobals
var afterLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type publicationRequest struct {
	MediaID int64     `json:"mediaId" validate:"required,gt=0"`
	PostID  int64     `json:"postId"  validate:"required,gt=0"`
	Date    time.Time `json:"date"    validate:"required"`
}

// HTTPTransport exposes PublicationService under /publications.
type HTTPTransport struct {
	publicationSvc *PublicationService
	log            logging.Logger
	cfg            http_.HTTPTransportConfig
	mux            *http.ServeMux
}

var (
	_ http_.HTTPTransport = (*HTTPTransport)(nil)
	_ http_.Mounter       = (*HTTPTransport)(nil)
)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
func NewHTTPTransport(publicationSvc *PublicationService, cfg http_.HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		publicationSvc: publicationSvc,
		log:            logging.GetLogger("svc.publicationsvc.http_transport"),
		cfg:            cfg,
		mux:            http.NewServeMux(),
	}

	ht.Mount(ht.mux)

	return ht
}

// Mount registers the publication routes on mux:
// - POST /publications: Schedule a post on a media
// - GET /publications?published=&after=: List publications
// - GET /publications/{id}: Fetch one publication
// - PUT /publications/{id}: Replace a publication whose date has not passed
// - DELETE /publications/{id}: Remove a publication.
func (ht *HTTPTransport) Mount(mux *http.ServeMux) {
	mux.HandleFunc("POST /publications", ht.HandleCreate)
	mux.HandleFunc("GET /publications", ht.HandleFindAll)
	mux.HandleFunc("GET /publications/{id}", ht.HandleFindOne)
	mux.HandleFunc("PUT /publications/{id}", ht.HandleUpdate)
	mux.HandleFunc("DELETE /publications/{id}", ht.HandleRemove)
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// ParseQuery reads the published and after filters from the query string.
// Absent or empty parameters leave the filter unset.
func ParseQuery(values url.Values) (Query, error) {
	var q Query

	if raw := values.Get("published"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			return Query{}, domain.NewReasonError(domain.ErrBadInput, ReasonInvalidPublished)
		}

		q.Published = published
	}

	if raw := values.Get("after"); raw != "" {
		after, err := parseAfter(raw)
		if err != nil {
			return Query{}, err
		}

		q.After = &after
	}

	return q, nil
}

func parseAfter(raw string) (time.Time, error) {
	for _, layout := range afterLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, domain.NewReasonError(domain.ErrBadInput, ReasonInvalidAfter)
}

// HandleCreate processes publication creation requests.
// Expects a JSON body {mediaId, postId, date}; answers 201 with the stored publication.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	err := ht.handleCreate(w, r)
	http_.LogResult(ht.log, r, "publication create", err)
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req publicationRequest
	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodySize, &req); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("decode request: %w", err)
	}

	publication, err := ht.publicationSvc.Create(r.Context(), req.MediaID, req.PostID, req.Date)
	if err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("create publication: %w", err)
	}

	return http_.WriteJSON(w, http.StatusCreated, publication)
}

// HandleFindAll lists publications, optionally filtered by published and after.
func (ht *HTTPTransport) HandleFindAll(w http.ResponseWriter, r *http.Request) {
	err := ht.handleFindAll(w, r)
	http_.LogResult(ht.log, r, "publication list", err)
}

func (ht *HTTPTransport) handleFindAll(w http.ResponseWriter, r *http.Request) error {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("parse query: %w", err)
	}

	publications, err := ht.publicationSvc.FindAll(r.Context(), q)
	if err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("find publications: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, publications)
}

// HandleFindOne fetches the publication named by the {id} path value.
func (ht *HTTPTransport) HandleFindOne(w http.ResponseWriter, r *http.Request) {
	err := ht.handleFindOne(w, r)
	http_.LogResult(ht.log, r, "publication fetch", err)
}

func (ht *HTTPTransport) handleFindOne(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.RespondError(w, err)

		return err
	}

	publication, err := ht.publicationSvc.FindOne(r.Context(), id)
	if err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("find publication: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, publication)
}

// HandleUpdate replaces the publication named by {id}; answers 204.
func (ht *HTTPTransport) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	err := ht.handleUpdate(w, r)
	http_.LogResult(ht.log, r, "publication update", err)
}

func (ht *HTTPTransport) handleUpdate(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.RespondError(w, err)

		return err
	}

	var req publicationRequest
	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodySize, &req); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("decode request: %w", err)
	}

	if err := ht.publicationSvc.Update(r.Context(), id, req.MediaID, req.PostID, req.Date); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("update publication: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// HandleRemove deletes the publication named by {id}; answers 204.
func (ht *HTTPTransport) HandleRemove(w http.ResponseWriter, r *http.Request) {
	err := ht.handleRemove(w, r)
	http_.LogResult(ht.log, r, "publication remove", err)
}

func (ht *HTTPTransport) handleRemove(w http.ResponseWriter, r *http.Request) error {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.RespondError(w, err)

		return err
	}

	if err := ht.publicationSvc.Remove(r.Context(), id); err != nil {
		http_.RespondError(w, err)

		return fmt.Errorf("remove publication: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
