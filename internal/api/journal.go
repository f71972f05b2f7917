package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/x10-bridge/internal/bridges/x10"
	"github.com/nerrad567/x10-bridge/internal/journal"
)

// handleListJournal returns paginated journal entries with optional filters.
//
// Query parameters:
//   - source: "mqtt" or "monitor"
//   - device: device id, e.g. C2, or "raw"
//   - house: house code
//   - limit: max results (default 50, max 500)
//   - offset: pagination offset
func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeUnavailable(w, "journal not enabled")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{
		Source: q.Get("source"),
		Device: q.Get("device"),
	}

	switch filter.Source {
	case "", x10.SourceMQTT, x10.SourceMonitor:
	default:
		writeBadRequest(w, "source must be mqtt or monitor")
		return
	}

	if v := q.Get("house"); v != "" {
		house, err := x10.ParseHouse(v)
		if err != nil {
			writeBadRequest(w, "invalid house code")
			return
		}
		filter.House = house.String()
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list journal", "error", err)
		writeInternalError(w, "failed to list journal")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
