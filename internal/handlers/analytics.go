package handlers

import (
	"net/http"
	"time"

	"secdash/internal/backend"
	"secdash/internal/logger"
	"secdash/internal/records"
	"secdash/internal/session"
	"secdash/middleware"
)

type adminAnalyticsTemplateData struct {
	pageData
	Report   records.Report
	Ranges   []records.Range
	Uploads  map[records.Status]int
	Statuses []records.Status
}

type analyticsServiceJSON struct {
	Service            string  `json:"service"`
	Total              int     `json:"total"`
	Completed          int     `json:"completed"`
	Failed             int     `json:"failed"`
	SuccessRate        float64 `json:"successRate"`
	AvgDurationSeconds int64   `json:"avgDurationSeconds"`
}

type analyticsTotalsJSON struct {
	Uploads     int     `json:"uploads"`
	ActiveUsers int     `json:"activeUsers"`
	Threats     int     `json:"threats"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"successRate"`
}

type analyticsResponse struct {
	Range    records.Range          `json:"range"`
	From     time.Time              `json:"from"`
	To       time.Time              `json:"to"`
	Current  analyticsTotalsJSON    `json:"current"`
	Previous analyticsTotalsJSON    `json:"previous"`
	Changes  map[string]float64     `json:"changes"`
	Services []analyticsServiceJSON `json:"services"`
	Uploads  map[records.Status]int `json:"uploads"`
	Partial  bool                   `json:"partial,omitempty"`
}

func newTotalsJSON(t records.PeriodTotals) analyticsTotalsJSON {
	return analyticsTotalsJSON{
		Uploads:     t.Uploads,
		ActiveUsers: t.ActiveUsers,
		Threats:     t.Threats,
		Completed:   t.Completed,
		Failed:      t.Failed,
		SuccessRate: t.SuccessRate(),
	}
}

func newAnalyticsResponse(report records.Report, uploads map[records.Status]int, partial bool) analyticsResponse {
	resp := analyticsResponse{
		Range:    report.Range,
		From:     report.From,
		To:       report.To,
		Current:  newTotalsJSON(report.Current),
		Previous: newTotalsJSON(report.Previous),
		Changes: map[string]float64{
			"uploads":     report.UploadsChange(),
			"activeUsers": report.ActiveUsersChange(),
			"threats":     report.ThreatsChange(),
			"successRate": report.SuccessRateChange(),
		},
		Services: make([]analyticsServiceJSON, 0, len(report.Services)),
		Uploads:  uploads,
		Partial:  partial,
	}
	for _, m := range report.Services {
		resp.Services = append(resp.Services, analyticsServiceJSON{
			Service:            m.Service,
			Total:              m.Total,
			Completed:          m.Completed,
			Failed:             m.Failed,
			SuccessRate:        m.SuccessRate(),
			AvgDurationSeconds: int64(m.AvgDuration / time.Second),
		})
	}
	return resp
}

// buildAnalytics aggregates every upload service over the requested range.
// A service that fails to load contributes its last known records and the
// first error is returned alongside the report.
func (h *Handlers) buildAnalytics(r *http.Request) (records.Report, map[records.Status]int, error) {
	sess := session.FromContext(r.Context())
	rng := records.ParseRange(r.URL.Query().Get("range"))
	now := h.now()

	var firstErr error
	services := make([]records.ServiceActivity, 0, len(records.UploadServices()))
	for _, service := range records.UploadServices() {
		set, err := h.loadRecords(r, sess.Token, service)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		services = append(services, records.ServiceActivity{Service: service.ID, Items: activityOf(service.Kind, set)})
	}
	report := records.BuildReport(rng, now, services)

	uploads := map[records.Status]int{}
	if h.uploads != nil {
		counts, err := h.uploads.CountByStatusSince(r.Context(), report.From)
		if err != nil {
			logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
				Str("request_id", middleware.GetRequestID(r.Context())).
				Msg("failed to count uploads")
		} else {
			uploads = counts
		}
	}
	return report, uploads, firstErr
}

func (h *Handlers) adminAnalytics(w http.ResponseWriter, r *http.Request) {
	page := h.newPage(w, r)
	report, uploads, err := h.buildAnalytics(r)
	if err != nil {
		page.Error = page.Locale.T(errorKey(err))
	}
	data := adminAnalyticsTemplateData{
		pageData: page,
		Report:   report,
		Ranges:   records.Ranges,
		Uploads:  uploads,
		Statuses: records.ProcessingStatuses,
	}
	h.render(w, r, http.StatusOK, "admin-analytics.html", data)
}

func (h *Handlers) apiAnalytics(w http.ResponseWriter, r *http.Request) {
	report, uploads, err := h.buildAnalytics(r)
	writeJSON(w, r, http.StatusOK, newAnalyticsResponse(report, uploads, err != nil))
}

// activityOf converts the records of kind for analytics.
func activityOf(kind records.Kind, set backend.RecordSet) []records.Activity {
	switch kind {
	case records.KindScan:
		return records.ScanActivity(set.Scans)
	case records.KindProtection:
		return records.ProtectionActivity(set.Protections)
	case records.KindCompatibility:
		return records.CompatibilityActivity(set.Compatibility)
	case records.KindAnalysis:
		return records.AnalysisActivity(set.Analyses)
	default:
		return nil
	}
}
