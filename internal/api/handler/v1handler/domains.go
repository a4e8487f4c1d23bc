package v1handler

import (
	"io"
	"net/http"
	"time"

	"sitepaths/pkg/domain"
	"sitepaths/pkg/serrors"
	"sitepaths/pkg/storage"

	"github.com/go-faster/jx"
)

// maxRequestBytes bounds the submit request body.
const maxRequestBytes = 4 << 10

func encodeDomain(e *jx.Encoder, d *domain.Domain) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(d.ID.String()) })
		e.Field("name", func(e *jx.Encoder) { e.Str(d.Name) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(d.CreatedAt.UTC().Format(time.RFC3339)) })
		e.Field("lastCrawledAt", func(e *jx.Encoder) { e.Str(d.LastCrawledAt.UTC().Format(time.RFC3339)) })
	})
}

func encodePath(e *jx.Encoder, p *domain.Path) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("path", func(e *jx.Encoder) { e.Str(p.Path) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(p.CreatedAt.UTC().Format(time.RFC3339)) })
	})
}

// decodeSubmit reads {"domain": "..."} and ignores unknown fields.
func decodeSubmit(r io.Reader) (string, error) {
	var name string
	found := false

	d := jx.Decode(io.LimitReader(r, maxRequestBytes), 512)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "domain" {
			return d.Skip() //nolint: wrapcheck
		}

		v, err := d.Str()
		if err != nil {
			return err //nolint: wrapcheck
		}
		name, found = v, true

		return nil
	}); err != nil {
		return "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body")
	}
	if !found {
		return "", serrors.With(serrors.ErrBadRequest, "domain is required")
	}

	return name, nil
}

// SubmitDomain starts tracking a new domain and queues its first crawl.
func (h Handler) SubmitDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := decodeSubmit(r.Body)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	d, err := h.deps.Tracker.Submit(ctx, raw)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	writeJSON(ctx, w, http.StatusAccepted, func(e *jx.Encoder) { encodeDomain(e, d) })
}

// RefreshDomain queues another crawl of a tracked domain.
func (h Handler) RefreshDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := h.deps.Tracker.Refresh(ctx, r.PathValue("name"))
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	writeJSON(ctx, w, http.StatusAccepted, func(e *jx.Encoder) { encodeDomain(e, d) })
}

// ListDomains returns one page of tracked domains, newest first.
func (h Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, limit, err := pageParams(r, DefaultDomainsLimit)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	res, err := h.deps.Tracker.Domains(ctx, page, limit)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	writeJSON(ctx, w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for i := range res.Domains {
						encodeDomain(e, &res.Domains[i])
					}
				})
			})
			encodePage(e, page, res.HasNext)
		})
	})
}

// ListPaths returns one page of the paths discovered on a domain.
func (h Handler) ListPaths(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	page, limit, err := pageParams(r, DefaultPathsLimit)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	var res storage.PathPage
	if res, err = h.deps.Tracker.Paths(ctx, name, page, limit); err != nil {
		writeError(ctx, w, err)

		return
	}

	writeJSON(ctx, w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("domain", func(e *jx.Encoder) { e.Str(name) })
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for i := range res.Paths {
						encodePath(e, &res.Paths[i])
					}
				})
			})
			encodePage(e, page, res.HasNext)
		})
	})
}

func encodePage(e *jx.Encoder, page uint, hasNext bool) {
	e.Field("page", func(e *jx.Encoder) { e.Int(int(page)) }) //nolint: gosec
	e.Field("hasNext", func(e *jx.Encoder) { e.Bool(hasNext) })
}
