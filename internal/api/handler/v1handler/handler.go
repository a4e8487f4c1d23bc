// Package v1handler implements the version 1 JSON API over the domain tracker.
package v1handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"sitepaths/internal/tracker"
	"sitepaths/pkg/logger"
	"sitepaths/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

const (
	// DefaultDomainsLimit is the page size of the domain listing when none is given.
	DefaultDomainsLimit = 5
	// DefaultPathsLimit is the page size of the path listing when none is given.
	DefaultPathsLimit = 10
)

type Deps struct {
	Tracker tracker.Tracker
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string
	Message string
}

// ErrorStatusCode pairs an ErrorResponse with its HTTP status.
type ErrorStatusCode struct {
	StatusCode int
	Response   ErrorResponse
}

var defaultMessages = map[serrors.Kind]string{
	serrors.ErrNotFound:      "resource not found",
	serrors.ErrUnauthorized:  "unauthorized",
	serrors.ErrForbidden:     "forbidden",
	serrors.ErrBadRequest:    "bad request",
	serrors.ErrConflict:      "conflict",
	serrors.ErrAlreadyExists: "already exists",
	serrors.ErrTimeout:       "request timed out",
	serrors.ErrUnavailable:   "service unavailable",
	serrors.ErrInternal:      "internal error",
}

func statusOf(k serrors.Kind) int {
	switch k {
	case serrors.ErrNotFound:
		return http.StatusNotFound
	case serrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case serrors.ErrForbidden:
		return http.StatusForbidden
	case serrors.ErrBadRequest:
		return http.StatusBadRequest
	case serrors.ErrConflict, serrors.ErrAlreadyExists:
		return http.StatusConflict
	case serrors.ErrTimeout:
		return http.StatusGatewayTimeout
	case serrors.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewError maps err to a response. Errors without a kind, and internal ones, are
// logged and reported without detail.
func (h Handler) NewError(ctx context.Context, err error) *ErrorStatusCode {
	return newError(ctx, err)
}

func newError(ctx context.Context, err error) *ErrorStatusCode {
	k := serrors.KindOf(err)
	if k == nil {
		k = serrors.ErrInternal
	}

	status := statusOf(k)
	if status == http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err))

		return &ErrorStatusCode{
			StatusCode: status,
			Response:   ErrorResponse{Code: serrors.ErrInternal.Error(), Message: defaultMessages[serrors.ErrInternal]},
		}
	}

	msg := defaultMessages[k]
	var serr *serrors.Error
	if errors.As(err, &serr) && serr.Message() != "" {
		msg = serr.Message()
	}

	return &ErrorStatusCode{
		StatusCode: status,
		Response:   ErrorResponse{Code: k.Error(), Message: msg},
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	res := newError(ctx, err)

	writeJSON(ctx, w, res.StatusCode, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Str(res.Response.Code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(res.Response.Message) })
		})
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		logger.Debug(ctx, "could not write response", zap.Error(err))
	}
}

// pageParams reads the page and limit query parameters. A missing page means
// the first one.
func pageParams(r *http.Request, defaultLimit uint) (uint, uint, error) {
	page, err := uintParam(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err := uintParam(r, "limit", defaultLimit)
	if err != nil {
		return 0, 0, err
	}

	return page, limit, nil
}

func uintParam(r *http.Request, name string, def uint) (uint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, serrors.Wrap(serrors.ErrBadRequest, err, "invalid %s parameter", name)
	}

	return uint(v), nil
}

// Routes returns the v1 routes. Mutating routes are wrapped with auth.
func (h Handler) Routes(auth func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST /v1/domains", auth(http.HandlerFunc(h.SubmitDomain)))
	mux.HandleFunc("GET /v1/domains", h.ListDomains)
	mux.HandleFunc("GET /v1/domains/{name}/paths", h.ListPaths)
	mux.Handle("POST /v1/domains/{name}/refresh", auth(http.HandlerFunc(h.RefreshDomain)))

	return mux
}
