package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/library"
	"github.com/marmos91/dittophotos/pkg/media"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type itemJSON struct {
	Index   int             `json:"index"`
	ID      media.ContentID `json:"id"`
	Size    int64           `json:"size"`
	ViewURL string          `json:"view_url"`
}

type entryJSON struct {
	ID         media.ContentID `json:"id"`
	Index      int             `json:"index"`
	Size       int64           `json:"size"`
	SourceName string          `json:"source_name"`
	AddedAt    time.Time       `json:"added_at"`
	Checksum   string          `json:"checksum"`
	ViewURL    string          `json:"view_url"`
}

type importRequest struct {
	Paths   []string `json:"paths"`
	Workers int      `json:"workers,omitempty"`
}

type exportRequest struct {
	Format      string `json:"format"`
	Destination string `json:"destination"`
}

type errorJSON struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func viewURL(id media.ContentID) string {
	return "/items/" + id.String() + "/view"
}

// ListItemsHandler returns the catalog, newest first.
func (s *Server) ListItemsHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	entries := s.lib.CurrentCatalog()
	items := make([]itemJSON, len(entries))
	for i, e := range entries {
		items[i] = itemJSON{Index: e.Index, ID: e.ID, Size: e.Size, ViewURL: viewURL(e.ID)}
	}
	writeJSON(w, http.StatusOK, items)
}

// ItemHandler returns the manifest entry of one item.
func (s *Server) ItemHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := parseID(w, ps)
	if !ok {
		return
	}

	e, err := s.lib.Entry(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	index := -1
	for _, c := range s.lib.CurrentCatalog() {
		if c.ID == id {
			index = c.Index
			break
		}
	}

	writeJSON(w, http.StatusOK, entryJSON{
		ID:         e.ID,
		Index:      index,
		Size:       e.Size,
		SourceName: e.SourceName,
		AddedAt:    e.AddedAt,
		Checksum:   e.Checksum,
		ViewURL:    viewURL(e.ID),
	})
}

// StatsHandler returns the aggregate counters.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	writeJSON(w, http.StatusOK, s.lib.CurrentStats())
}

// ImportHandler ingests the listed local paths. Per-path failures are part
// of the 200 response body.
func (s *Server) ImportHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var opts []library.IngestOption
	if n := s.ingestWorkers(req.Workers); n > 0 {
		opts = append(opts, library.WithWorkers(n))
	}

	res, err := s.lib.Ingest(r.Context(), req.Paths, opts...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ingestWorkers clamps a requested worker count to the configured maximum.
// Zero or less keeps the library default.
func (s *Server) ingestWorkers(requested int) int {
	if requested <= 0 {
		return 0
	}
	return min(requested, s.cfg.MaxWorkers)
}

// ExportHandler writes an item to a local destination path.
func (s *Server) ExportHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := parseID(w, ps)
	if !ok {
		return
	}

	var req exportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Destination == "" {
		writeStatus(w, http.StatusBadRequest, errors.New("destination is required"), "BadRequest")
		return
	}

	var (
		format media.Format
		err    error
	)
	if req.Format != "" {
		format, err = media.ParseFormat(req.Format)
	} else {
		format, err = media.FormatFromPath(req.Destination)
	}
	if err != nil {
		writeStatus(w, http.StatusBadRequest, err, media.KindOf(err))
		return
	}

	if err := s.lib.Export(r.Context(), id, format, req.Destination); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":          id.String(),
		"format":      string(format),
		"destination": req.Destination,
	})
}

// ViewHandler serves the bytes held by the item's live view handle.
func (s *Server) ViewHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := parseID(w, ps)
	if !ok {
		return
	}

	data, err := s.lib.ViewBytes(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeBytes(w, media.FormatCanonical, data)
}

// RenderHandler serves the item decoded into ?format= (png by default).
func (s *Server) RenderHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := parseID(w, ps)
	if !ok {
		return
	}

	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(media.FormatPNG)
	}
	format, err := media.ParseFormat(name)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, err, media.KindOf(err))
		return
	}

	data, err := s.lib.Render(r.Context(), id, format)
	if err != nil {
		writeError(w, err)
		return
	}
	writeBytes(w, format, data)
}

// DeleteItemHandler deletes an item by identifier.
func (s *Server) DeleteItemHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := parseID(w, ps)
	if !ok {
		return
	}

	if err := s.lib.DeleteID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteIndexHandler deletes the item currently at a catalog position.
func (s *Server) DeleteIndexHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	index, err := strconv.Atoi(ps.ByName("index"))
	if err != nil {
		writeStatus(w, http.StatusBadRequest, fmt.Errorf("index %q: %w", ps.ByName("index"), err), "IndexOutOfRange")
		return
	}

	if err := s.lib.Delete(r.Context(), index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckHandler runs a consistency check.
func (s *Server) CheckHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	report, err := s.lib.Check(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func parseID(w http.ResponseWriter, ps httprouter.Params) (media.ContentID, bool) {
	id, err := media.ParseContentID(ps.ByName("id"))
	if err != nil {
		writeStatus(w, http.StatusBadRequest, err, media.KindOf(err))
		return "", false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeStatus(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err), "BadRequest")
		return false
	}
	return true
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, media.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, media.ErrInvalidContentID), errors.Is(err, media.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("api: %v", err)
	}
	writeStatus(w, status, err, media.KindOf(err))
}

func writeStatus(w http.ResponseWriter, status int, err error, kind string) {
	writeJSON(w, status, errorJSON{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("api: failed to encode response: %v", err)
	}
}

func writeBytes(w http.ResponseWriter, format media.Format, data []byte) {
	w.Header().Set("Content-Type", format.MIMEType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
