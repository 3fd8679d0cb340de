package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/internal/model"
	"github.com/villagetaxi/farequote/internal/service"
)

// PopularRoutesResponse is the body of GET /api/v1/routes/popular.
type PopularRoutesResponse struct {
	MinCount int                  `json:"min_count"`
	Routes   []model.PopularRoute `json:"routes"`
}

// UsageHandler serves route usage statistics.
type UsageHandler struct {
	usage           *service.UsageTracker
	defaultMinCount int
	log             *zap.Logger
}

// NewUsageHandler creates a new usage handler. defaultMinCount is echoed
// back when the caller gives no min_count.
func NewUsageHandler(usage *service.UsageTracker, defaultMinCount int, log *zap.Logger) *UsageHandler {
	return &UsageHandler{usage: usage, defaultMinCount: defaultMinCount, log: log.Named("handler")}
}

// PopularRoutes handles GET /api/v1/routes/popular?min_count=N
func (h *UsageHandler) PopularRoutes(w http.ResponseWriter, r *http.Request) {
	minCount := h.defaultMinCount
	if raw := r.URL.Query().Get("min_count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_input",
				Message: "min_count must be a positive integer",
			})
			return
		}
		minCount = n
	}

	routes, err := h.usage.ListPopular(r.Context(), minCount)
	if err != nil {
		h.log.Error("list popular routes", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
		return
	}
	writeJSON(w, http.StatusOK, PopularRoutesResponse{MinCount: minCount, Routes: routes})
}
