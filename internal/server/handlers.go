package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pable/go-poker-stats/internal/aggregator"
	"github.com/pable/go-poker-stats/internal/engine"
	"github.com/pable/go-poker-stats/internal/identity"
	"github.com/pable/go-poker-stats/internal/model"
	"github.com/pable/go-poker-stats/internal/report"
	"github.com/pable/go-poker-stats/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "pokerstats",
		"hands":   s.engine.Hands(),
		"players": len(s.engine.Players()),
	})
}

type uploadDetail struct {
	Filename   string `json:"filename"`
	UploadID   string `json:"upload_id,omitempty"`
	Status     string `json:"status"`
	HandsCount int    `json:"hands_count"`
	Error      string `json:"error,omitempty"`
}

// handleUpload archives every file in the "files" field, processes them as
// one batch and reports per-file status. A bad file never fails the request.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	inputs := make([]engine.LogInput, 0, len(headers))
	uploadIDs := make([]string, len(headers))
	for i, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			s.abandonUploads(uploadIDs[:i], err)
			s.writeError(w, http.StatusBadRequest, "read "+fh.Filename+": "+err.Error())
			return
		}
		if s.archive != nil {
			id, err := s.archive.InsertUpload(fh.Filename, data)
			if err != nil {
				s.log.Error().Err(err).Str("file", fh.Filename).Msg("Failed to archive upload")
				s.abandonUploads(uploadIDs[:i], err)
				s.writeError(w, http.StatusInternalServerError, "archive upload failed")
				return
			}
			uploadIDs[i] = id
		}
		inputs = append(inputs, engine.LogInput{Name: fh.Filename, Data: data})
	}

	results := s.engine.Process(r.Context(), inputs)

	details := make([]uploadDetail, len(results))
	for i, res := range results {
		d := uploadDetail{Filename: res.Name, UploadID: uploadIDs[i], Status: storage.StatusSuccess, HandsCount: res.Hands}
		if !res.OK() {
			d.Status, d.Error = storage.StatusError, res.Err.Error()
		}
		if s.archive != nil {
			if err := s.archive.UpdateUploadResult(uploadIDs[i], res.Hands, res.Err); err != nil {
				s.log.Error().Err(err).Str("upload_id", uploadIDs[i]).Msg("Failed to record upload result")
			}
		}
		details[i] = d
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Files processed",
		"details": details,
	})
}

// abandonUploads marks uploads archived earlier in a rejected batch as failed
// so none is left pending.
func (s *Server) abandonUploads(ids []string, cause error) {
	if s.archive == nil {
		return
	}
	for _, id := range ids {
		if err := s.archive.UpdateUploadResult(id, 0, fmt.Errorf("batch aborted: %w", cause)); err != nil {
			s.log.Error().Err(err).Str("upload_id", id).Msg("Failed to record upload result")
		}
	}
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeJSON(w, http.StatusOK, []storage.Upload{})
		return
	}
	uploads, err := s.archive.ListUploads()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list uploads")
		s.writeError(w, http.StatusInternalServerError, "list uploads failed")
		return
	}
	if uploads == nil {
		uploads = []storage.Upload{}
	}
	s.writeJSON(w, http.StatusOK, uploads)
}

// handleReset clears the engine and the upload archive.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.engine.Reset()
	var cleared int64
	if s.archive != nil {
		n, err := s.archive.Clear()
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to clear archive")
			s.writeError(w, http.StatusInternalServerError, "clear archive failed")
			return
		}
		cleared = n
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Reset successful",
		"uploads_cleared": cleared,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Summary())
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	row, err := s.engine.Player(model.PlayerID(chi.URLParam(r, "id")))
	var nf *aggregator.PlayerNotFoundError
	if errors.As(err, &nf) {
		s.writeError(w, http.StatusNotFound, "Player not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, row)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Players())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="poker_stats.csv"`)
	if err := report.WriteCSV(w, s.engine.Summary()); err != nil {
		s.log.Error().Err(err).Msg("Failed to write export")
	}
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	var req model.AliasEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PlayerID == "" {
		s.writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	err := s.engine.SetAlias(req.PlayerID, req.Alias)
	var nf *aggregator.PlayerNotFoundError
	if errors.As(err, &nf) {
		s.writeError(w, http.StatusNotFound, "Player not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Mapping updated"})
}

type bulkResult struct {
	PlayerID model.PlayerID `json:"player_id"`
	Alias    string         `json:"alias"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
}

// handleBulkMapping applies each mapping independently and reports each one;
// partial failure still returns 200.
func (s *Server) handleBulkMapping(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mappings []model.AliasEntry `json:"mappings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	results := s.engine.BulkSetAlias(req.Mappings)
	out := make([]bulkResult, len(results))
	updated := 0
	for i, res := range results {
		out[i] = bulkResult{PlayerID: res.PlayerID, Alias: res.Alias, Status: "ok"}
		if res.Err != nil {
			out[i].Status, out[i].Error = "error", res.Err.Error()
			continue
		}
		updated++
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated": updated,
		"results": out,
	})
}

func (s *Server) handleMergeSuggestions(w http.ResponseWriter, r *http.Request) {
	threshold := s.threshold
	if q := r.URL.Query().Get("threshold"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "threshold must be a number")
			return
		}
		threshold = v
	}

	groups, err := s.engine.SuggestMerges(threshold)
	var bad *identity.InvalidThresholdError
	if errors.As(err, &bad) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if groups == nil {
		groups = []model.MergeCandidateGroup{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"threshold": threshold,
		"groups":    groups,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
