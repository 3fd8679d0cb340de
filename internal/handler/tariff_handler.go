package handler

import (
	"net/http"
	"time"

	"github.com/villagetaxi/farequote/internal/model"
	"github.com/villagetaxi/farequote/internal/service"
	"github.com/villagetaxi/farequote/internal/tariff"
)

// TariffView is one published tariff with its customer-facing text.
type TariffView struct {
	model.Tariff
	Description string `json:"description"`
}

// TariffsResponse is the body of GET /api/v1/tariffs.
type TariffsResponse struct {
	Tariffs          []TariffView `json:"tariffs"`
	BankHolidays     []string     `json:"bank_holidays"`
	LicenceDistricts []string     `json:"licence_districts"`
}

// SelectionResponse is the body of GET /api/v1/tariffs/select.
type SelectionResponse struct {
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Label       string        `json:"label"`
	Heading     string        `json:"heading"`
	Branch      tariff.Branch `json:"branch"`
	Description string        `json:"description"`
	Tariff      model.Tariff  `json:"tariff"`
}

// TariffHandler serves the configured fare table.
type TariffHandler struct {
	engine *tariff.Engine
	area   service.LicenceArea
	loc    *time.Location
}

// NewTariffHandler creates a new tariff handler. loc is the zone selection
// previews are evaluated in.
func NewTariffHandler(engine *tariff.Engine, area service.LicenceArea, loc *time.Location) *TariffHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TariffHandler{engine: engine, area: area, loc: loc}
}

// ListTariffs handles GET /api/v1/tariffs
func (h *TariffHandler) ListTariffs(w http.ResponseWriter, r *http.Request) {
	all := h.engine.Table().All()
	views := make([]TariffView, 0, len(all))
	for _, t := range all {
		views = append(views, TariffView{Tariff: t, Description: tariff.Description(t.ID)})
	}

	writeJSON(w, http.StatusOK, TariffsResponse{
		Tariffs:          views,
		BankHolidays:     h.engine.Calendar().Dates(),
		LicenceDistricts: h.area.Districts(),
	})
}

// SelectTariff handles GET /api/v1/tariffs/select?date=YYYY-MM-DD&time=HH:MM
//
// Reports which tariff would apply at the given moment without pricing a
// journey. Past moments are allowed.
func (h *TariffHandler) SelectTariff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, clock := q.Get("date"), q.Get("time")
	if date == "" || clock == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "missing_input",
			Message: "date and time query parameters are required",
		})
		return
	}

	moment, err := tariff.ParseMoment(date, clock, h.loc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_input", Message: err.Error()})
		return
	}

	sel := h.engine.Select(moment)
	writeJSON(w, http.StatusOK, SelectionResponse{
		Date:        date,
		Time:        clock,
		Label:       sel.Label,
		Heading:     sel.Heading(),
		Branch:      sel.Branch,
		Description: sel.Description(),
		Tariff:      sel.Tariff,
	})
}
