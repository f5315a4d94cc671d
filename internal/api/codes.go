package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

const (
	defaultCodeLimit = 20
	maxCodeLimit     = 100
)

type codeResponse struct {
	Code        string `json:"code"`
	HazardCode  string `json:"hazard_code"`
	HazardLabel string `json:"hazard_label"`
	Frequency   int64  `json:"frequency"`
}

// handleListCodes answers GET /api/codes/{domain}: the catalog's sx, dx or rx
// codes, most used in patient histories first. Intake forms use it to suggest
// codes the mapper knows.
func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	domain := taxonomy.Domain(chi.URLParam(r, "domain"))
	switch domain {
	case taxonomy.DomainSx, taxonomy.DomainDx, taxonomy.DomainRx:
	default:
		respondErr(w, http.StatusBadRequest, fmt.Sprintf("unknown code domain %q", domain))
		return
	}

	limit := defaultCodeLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxCodeLimit {
			respondErr(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxCodeLimit))
			return
		}
		limit = n
	}

	rows, err := s.q.ListCodeUsage(r.Context(), db.ListCodeUsageParams{
		Domain: string(domain),
		Limit:  int32(limit),
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list codes: %w", err))
		return
	}
	out := make([]codeResponse, len(rows))
	for i, c := range rows {
		out[i] = codeResponse(c)
	}
	respond(w, http.StatusOK, out)
}
