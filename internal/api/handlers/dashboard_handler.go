package handlers

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/guildvault/internal/services"
)

//go:embed templates/dashboard.html
var dashboardHTML string

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"bytes": func(n uint64) string { return humanize.Bytes(n) },
}).Parse(dashboardHTML))

// DashboardHandler renders the HTML dashboard page.
type DashboardHandler struct {
	service services.DashboardServiceProvider
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service services.DashboardServiceProvider) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Index renders the overview of every guild.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, h.service.GetBotData()); err != nil {
		log.Error().Err(err).Msg("Failed to render dashboard")
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
