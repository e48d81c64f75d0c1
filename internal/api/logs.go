package api

import (
	"mime"
	"net/http"
	"strconv"

	"trustcast/internal/logs"
)

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, ok := intParam(w, q.Get("page"), "page", 1)
	if !ok {
		return
	}
	pageSize, ok := intParam(w, q.Get("page_size"), "page_size", 0)
	if !ok {
		return
	}

	result, err := s.audit.Query(r.Context(), q.Get("severity"), page, pageSize)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	s.writeJSON(w, result)
}

func (s *Server) handleLogExport(w http.ResponseWriter, r *http.Request) {
	export, err := s.audit.Export(r.Context(), r.URL.Query().Get("severity"))
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	name := logs.ExportFileName("audit-logs", "json", export.ExportedAt)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))

	if err := logs.WriteExport(w, export); err != nil {
		s.log.Error().Err(err).Msg("log export failed")
	}
}

func (s *Server) handleLogView(w http.ResponseWriter, r *http.Request) {
	page, err := s.audit.View(r.Context())
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	s.writeJSON(w, page)
}

func (s *Server) handleLogViewFilter(w http.ResponseWriter, r *http.Request) {
	page, err := s.audit.SetViewFilter(r.URL.Query().Get("severity"))
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	s.writeJSON(w, page)
}

func (s *Server) handleLogViewNext(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.audit.NextPage())
}

func (s *Server) handleLogViewPrev(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.audit.PrevPage())
}

// intParam parses an optional integer query parameter, writing a 400 when
// it is malformed.
func intParam(w http.ResponseWriter, raw, name string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, "invalid "+name+": "+raw, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}
