package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogcms/internal/middleware"
	"blogcms/internal/serialize"
	"blogcms/internal/store"
)

// Response messages, worded after the DRF defaults the frontend expects.
const (
	msgNotFound         = "Not found."
	msgInvalidPage      = "Invalid page."
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgForbidden        = "You do not have permission to perform this action."
	msgServerError      = "A server error occurred."
)

// Pagination bounds.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20

// ptr returns a pointer to a copy of v.
func ptr[T any](v T) *T { return &v }

// writeDetail writes {"detail": msg}.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	middleware.WriteJSON(w, status, map[string]string{"detail": msg})
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched so required-field validation reports what is missing. It writes
// the error response itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "application/json" {
		writeDetail(w, http.StatusUnsupportedMediaType, `Unsupported media type "`+ct+`" in request.`)
		return false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return false
		}
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// parseID reads the {id} URL parameter. Malformed ids cannot match any
// record, so they are reported as not found.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// requireStaff rejects callers without a staff session.
func requireStaff(w http.ResponseWriter, r *http.Request) bool {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeDetail(w, http.StatusForbidden, msgNotAuthenticated)
		return false
	}
	if !sess.IsStaff {
		writeDetail(w, http.StatusForbidden, msgForbidden)
		return false
	}
	return true
}

// referenceFields maps foreign-key columns to the payload field names.
var referenceFields = map[string]string{
	"author_id":   "author",
	"post_id":     "post",
	"category_id": "category",
}

// storeError maps a store error onto the API error taxonomy. Unexpected
// errors are logged and reported without detail.
func storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeDetail(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, store.ErrConflict):
		field := store.ConstraintField(err)
		writeDetail(w, http.StatusConflict, "A record with this "+field+" already exists.")
	case errors.Is(err, store.ErrInvalidReference):
		field := store.ConstraintField(err)
		if name, ok := referenceFields[field]; ok {
			field = name
		}
		middleware.WriteJSON(w, http.StatusBadRequest, fieldErrors{field: {"Invalid pk - object does not exist."}})
	default:
		slog.Error("api request failed", "op", op, "error", err, "path", r.URL.Path)
		writeDetail(w, http.StatusInternalServerError, msgServerError)
	}
}

// page is the requested pagination window. A zero page means the caller
// did not ask for pagination and gets a bare array.
type page struct {
	number int
	size   int
}

func (p page) enabled() bool { return p.number > 0 }

func (p page) limit() int { return p.size }

func (p page) offset() int {
	if !p.enabled() {
		return 0
	}
	return (p.number - 1) * p.size
}

// parsePage reads ?page= and ?page_size=. An unusable page number is a 404
// like any other page that does not exist.
func parsePage(w http.ResponseWriter, r *http.Request) (page, bool) {
	q := r.URL.Query()
	rawPage, rawSize := q.Get("page"), q.Get("page_size")
	if rawPage == "" && rawSize == "" {
		return page{}, true
	}

	p := page{number: 1, size: defaultPageSize}
	if rawPage != "" {
		n, err := strconv.Atoi(rawPage)
		if err != nil || n < 1 {
			writeDetail(w, http.StatusNotFound, msgInvalidPage)
			return page{}, false
		}
		p.number = n
	}
	if n, err := strconv.Atoi(rawSize); err == nil && n > 0 {
		p.size = min(n, maxPageSize)
	}
	return p, true
}

// envelope is the paginated list shape.
type envelope struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// writeList writes results as a bare array, or wrapped in the pagination
// envelope when p is enabled. A page past the end is a 404.
func writeList(w http.ResponseWriter, r *http.Request, p page, total int, results any) {
	if !p.enabled() {
		middleware.WriteJSON(w, http.StatusOK, results)
		return
	}
	if p.number > 1 && p.offset() >= total {
		writeDetail(w, http.StatusNotFound, msgInvalidPage)
		return
	}

	env := envelope{Count: total, Results: results}
	if p.number*p.size < total {
		next := pageURL(r, p.number+1)
		env.Next = &next
	}
	if p.number > 1 {
		prev := pageURL(r, p.number-1)
		env.Previous = &prev
	}
	middleware.WriteJSON(w, http.StatusOK, env)
}

// pageURL returns the absolute URL of page n of the current listing. The
// first page drops the page parameter.
func pageURL(r *http.Request, n int) string {
	q := r.URL.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	return serialize.RequestOrigin(r) + u.String()
}
