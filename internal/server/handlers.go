package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/marketrank/sctr-server/internal/modules/ingest"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "sctr-server",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// detectRequest is the JSON form of the detect operation. CSV uploads
// arrive as multipart form data instead.
type detectRequest struct {
	Text string `json:"text"`
	CSV  string `json:"csv"`
}

// handleDetectTickers runs ticker column detection over an uploaded
// CSV file, a raw CSV string, or manually entered text.
//
// Malformed input is not a fault: the response degrades to an empty
// ticker set.
func (s *Server) handleDetectTickers(w http.ResponseWriter, r *http.Request) {
	var (
		columns []string
		rows    []ingest.Row
	)

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		file, _, err := r.FormFile("file")
		if err != nil {
			s.writeJSON(w, http.StatusOK, ingest.Detection{Tickers: []string{}})
			return
		}
		defer file.Close()

		columns, rows, err = ingest.ParseCSV(file)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to parse uploaded CSV")
			s.writeJSON(w, http.StatusOK, ingest.Detection{Tickers: []string{}})
			return
		}

	default:
		var req detectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.CSV != "" {
			var err error
			columns, rows, err = ingest.ParseCSV(strings.NewReader(req.CSV))
			if err != nil {
				s.log.Warn().Err(err).Msg("Failed to parse CSV text")
				s.writeJSON(w, http.StatusOK, ingest.Detection{Tickers: []string{}})
				return
			}
		} else {
			columns, rows = ingest.ParseText(req.Text)
		}
	}

	detection := ingest.DetectTickerColumn(columns, rows)
	if detection.Tickers == nil {
		detection.Tickers = []string{}
	}

	s.writeJSON(w, http.StatusOK, detection)
}

// enrichRequest is the body of the enrich operation
type enrichRequest struct {
	Tickers        []string `json:"tickers"`
	IndustrySource string   `json:"industrySource"`
}

// handleEnrich runs the enrichment pipeline for the requested tickers.
// Only a base-dataset fetch failure is an error response; everything
// else degrades inside the result.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.enricher.Enrich(r.Context(), req.Tickers, req.IndustrySource)
	if err != nil {
		s.log.Error().Err(err).Msg("Enrichment failed")
		s.writeError(w, http.StatusBadGateway, "failed to fetch rank dataset")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleCacheClear empties every cache namespace and deletes the
// backing files.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	cleared := make([]string, 0, len(s.caches))
	for _, c := range s.caches {
		c.Clear()
		cleared = append(cleared, c.Name())
	}

	s.log.Info().Strs("namespaces", cleared).Msg("Caches cleared")
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cleared": cleared,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
