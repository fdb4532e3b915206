package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Vigneshjr11/Senior-Citizen-filter/internal/core"
	"github.com/Vigneshjr11/Senior-Citizen-filter/internal/logging"
)

// sessionCookie names the cookie carrying the session ID.
const sessionCookie = "scf_session"

// snapshotResponse is the JSON shape handed to the page for rendering.
// Exportable reports whether the export action should be offered; it is
// true only when the last filter produced records.
type snapshotResponse struct {
	core.Snapshot
	Exportable bool `json:"exportable"`
}

func toResponse(snap core.Snapshot) snapshotResponse {
	return snapshotResponse{
		Snapshot:   snap,
		Exportable: snap.State == core.StateFiltered && len(snap.Records) > 0,
	}
}

// sessionID resolves the session for the request, creating one when the
// cookie is absent or stale, and refreshes the cookie.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	var current string
	if c, err := r.Cookie(sessionCookie); err == nil {
		current = c.Value
	}

	id, err := s.service.EnsureSession(current)
	if err != nil {
		return "", err
	}

	if id != current {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return id, nil
}

// handleIndex serves the embedded single-page UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "page unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleUpload ingests an uploaded spreadsheet or CSV file, replacing the
// session's record set wholesale on success.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := s.sessionID(w, r)
	if err != nil {
		writeError(ctx, w, http.StatusServiceUnavailable, err.Error())
		return
	}

	// Reserve the upload slot before reading the body so a second upload
	// started later always supersedes this one, however long the reads take.
	token, err := s.service.StartUpload(sessionID)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	var (
		fileName string
		data     []byte
	)
	if err := r.ParseMultipartForm(maxSize); err == nil {
		if file, header, ferr := r.FormFile("file"); ferr == nil {
			defer file.Close()
			fileName = header.Filename
			if data, err = io.ReadAll(file); err != nil {
				writeError(ctx, w, http.StatusBadRequest, "failed to read file")
				return
			}
		}
	} else {
		writeError(ctx, w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	snap, err := s.service.CommitUpload(ctx, sessionID, token, fileName, data)
	switch {
	case errors.Is(err, core.ErrStaleUpload):
		// A newer upload won the race; hand back whatever it produced.
		writeJSON(ctx, w, toResponse(snap))
		return
	case err != nil:
		// Precondition failures are part of the session state; the page
		// renders snap.Message. Still a 200: the session stays usable.
		writeJSON(ctx, w, toResponse(snap))
		return
	}

	logging.FromContext(ctx).Info("upload accepted",
		"file", fileName, "records", snap.TotalRecords)

	writeJSON(ctx, w, toResponse(snap))
}

// handleFilter applies a minimum-age filter to the session's record set.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := s.sessionID(w, r)
	if err != nil {
		writeError(ctx, w, http.StatusServiceUnavailable, err.Error())
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid form")
		return
	}

	snap, _ := s.service.ApplyFilter(ctx, sessionID, r.FormValue("minAge"))
	// Error states (no file, missing threshold, no results) are carried in
	// the snapshot; the client renders snap.Message.
	writeJSON(ctx, w, toResponse(snap))
}

// handleReset returns the session to its initial no-file state.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := s.sessionID(w, r)
	if err != nil {
		writeError(ctx, w, http.StatusServiceUnavailable, err.Error())
		return
	}

	snap, err := s.service.Reset(sessionID)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(ctx, w, toResponse(snap))
}

// handleRecords returns the current session snapshot without changing it.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := s.sessionID(w, r)
	if err != nil {
		writeError(ctx, w, http.StatusServiceUnavailable, err.Error())
		return
	}

	snap, err := s.service.Snapshot(sessionID)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(ctx, w, toResponse(snap))
}

// handleExport downloads the filtered result set as filtered_data.xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := s.sessionID(w, r)
	if err != nil {
		writeError(ctx, w, http.StatusServiceUnavailable, err.Error())
		return
	}

	data, fileName, err := s.service.ExportFiltered(sessionID)
	if err != nil {
		if errors.Is(err, core.ErrNothingToExport) {
			writeError(ctx, w, http.StatusConflict, "no filtered records to export")
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	w.Write(data)
}
