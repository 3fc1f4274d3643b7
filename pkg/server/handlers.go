package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/livetree/pkg/dom"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
</head>
<body data-lt-root="{{.Root}}" data-lt-stream="/ws" data-lt-dispatch="/dispatch">
{{.Content}}
<script src="/client.js"></script>
</body>
</html>
`))

type pageData struct {
	Title   string
	Root    uint64
	Content template.HTML
}

// handlePage serves the page shell with the container rendered inline.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:   s.config.Title,
		Root:    s.container.ID(),
		Content: template.HTML(dom.HTML(s.container, dom.MarkIDs())),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("page render failed", "error", err)
	}
}

// handleFragment serves the current children of the container.
func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := dom.WriteHTML(w, s.container, dom.MarkIDs(), dom.Inner()); err != nil {
		s.logger.Debug("fragment write failed", "error", err)
	}
}

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(clientJS)
}

type dispatchResponse struct {
	Handlers int    `json:"handlers"`
	Seq      uint64 `json:"seq"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleDispatch fires an event on a node and publishes whatever the
// handlers changed. The body is an optional JSON object or form of
// string fields passed as event data.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.metrics.dispatch("bad_request")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid node id"})
		return
	}
	event := chi.URLParam(r, "event")

	data, err := s.eventData(w, r)
	if err != nil {
		s.metrics.dispatch("bad_request")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	n, err := s.doc.Dispatch(id, event, data)
	if errors.Is(err, dom.ErrUnknownNode) {
		s.metrics.dispatch("unknown_node")
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.metrics.dispatch("error")
		s.logger.Error("dispatch failed", "node", id, "event", event, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "dispatch failed"})
		return
	}

	s.Publish()
	s.metrics.dispatch("ok")
	s.logger.Debug("dispatched", "node", id, "event", event, "handlers", n)
	writeJSON(w, http.StatusOK, dispatchResponse{Handlers: n, Seq: s.Seq()})
}

var errBadBody = errors.New("event data must be an object of strings")

func (s *Server) eventData(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)
	data := make(map[string]string)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		err := json.NewDecoder(r.Body).Decode(&data)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, errBadBody
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for k := range r.PostForm {
			data[k] = r.PostForm.Get(k)
		}
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
