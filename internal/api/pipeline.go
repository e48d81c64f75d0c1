package api

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"trustcast/internal/logs"
	"trustcast/internal/models"
)

const uploadField = "file"

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, fmt.Sprintf("expected a multipart %q field: %v", uploadField, err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := s.pipeline.Upload(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	s.writeJSON(w, result)
}

func (s *Server) handleCurrentUpload(w http.ResponseWriter, _ *http.Request) {
	file := s.pipeline.CurrentUpload()
	if file == nil {
		writeError(w, "no file uploaded", http.StatusNotFound)
		return
	}

	s.writeJSON(w, file)
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.pipeline.Summary())
}

func (s *Server) handleThresholds(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.pipeline.Thresholds())
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	var only *models.RiskTier

	if raw := r.URL.Query().Get("tier"); raw != "" {
		tier, err := models.ParseRiskTier(raw)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		only = &tier
	}

	s.writeJSON(w, s.pipeline.Devices(only))
}

func (s *Server) handleDeviceExport(w http.ResponseWriter, _ *http.Request) {
	name := logs.ExportFileName("devices", "csv", s.now())

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))

	if err := s.pipeline.ExportDevices(w); err != nil {
		s.log.Error().Err(err).Msg("device export failed")
	}
}

// handleRunInference submits the multipart "file" when present, otherwise
// the current upload.
func (s *Server) handleRunInference(w http.ResponseWriter, r *http.Request) {
	var file *models.UploadedFile

	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)

		f, header, err := r.FormFile(uploadField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			writeError(w, fmt.Sprintf("invalid multipart body: %v", err), http.StatusBadRequest)
			return
		default:
			defer f.Close()

			file, err = s.pipeline.ReadFile(header.Filename, f)
			if err != nil {
				writeError(w, err.Error(), statusFor(err))
				return
			}
		}
	}

	if _, err := s.pipeline.RunInference(r.Context(), file); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	s.writeJSON(w, s.pipeline.InferenceSnapshot())
}

func (s *Server) handleInferenceSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.pipeline.InferenceSnapshot())
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.pipeline.Notifications())
}
