package http

import (
	"context"
	"net/http"

	"github.com/mkrupp/publishing/internal/infra/logging"
)

// Mounter is implemented by transports that register their routes on a shared mux.
type Mounter interface {
	Mount(mux *http.ServeMux)
}

// NewMux returns a mux carrying the routes of all mounters.
func NewMux(mounters ...Mounter) *http.ServeMux {
	mux := http.NewServeMux()

	for _, m := range mounters {
		m.Mount(mux)
	}

	return mux
}

// LogResult logs the outcome of the handler operation op. Client errors are
// logged as warnings, anything that answered 500 as an error.
func LogResult(log logging.Logger, r *http.Request, op string, err error) {
	ctx := r.Context()
	log = log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	switch {
	case err == nil:
		log.DebugContext(ctx, op+" done")
	case StatusFromError(err) == http.StatusInternalServerError:
		log.ErrorContext(ctx, op+" failed", "error", err)
	default:
		log.WarnContext(ctx, op+" rejected", "error", err)
	}
}

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthTransport serves GET /health.
type HealthTransport struct {
	pinger Pinger
	log    logging.Logger
}

var _ Mounter = (*HealthTransport)(nil)

// NewHealthTransport creates a HealthTransport reporting the state of pinger.
func NewHealthTransport(pinger Pinger) *HealthTransport {
	return &HealthTransport{
		pinger: pinger,
		log:    logging.GetLogger("infra.transport.http.health"),
	}
}

// Mount implements Mounter.
func (ht *HealthTransport) Mount(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", ht.HandleHealth)
}

// HandleHealth answers 200 {"status":"ok"} or 503 when the ping fails.
func (ht *HealthTransport) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := ht.pinger.Ping(r.Context()); err != nil {
		ht.log.ErrorContext(r.Context(), "health check failed", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "")

		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
