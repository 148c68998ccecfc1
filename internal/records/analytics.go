package records

import (
	"strings"
	"time"
)

// RecordTimeLayout is the timestamp format the backend uses in record tables.
const RecordTimeLayout = "2006-01-02 15:04:05"

// ParseRecordTime reads a record timestamp as UTC. Empty or malformed values
// report false.
func ParseRecordTime(value string) (time.Time, bool) {
	t, err := time.ParseInLocation(RecordTimeLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Range is an analytics window ending now.
type Range string

const (
	Range7Days  Range = "7d"
	Range30Days Range = "30d"
	Range90Days Range = "90d"
)

// Ranges lists the selectable windows, shortest first.
var Ranges = []Range{Range7Days, Range30Days, Range90Days}

// ParseRange accepts 7d, 30d or 90d and falls back to 30d.
func ParseRange(value string) Range {
	switch r := Range(strings.ToLower(strings.TrimSpace(value))); r {
	case Range7Days, Range30Days, Range90Days:
		return r
	default:
		return Range30Days
	}
}

// Duration is the length of the window.
func (r Range) Duration() time.Duration {
	switch r {
	case Range7Days:
		return 7 * 24 * time.Hour
	case Range90Days:
		return 90 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// Key is the dictionary key of the range label.
func (r Range) Key() string {
	return "admin.analytics.range." + string(r)
}

// Activity is what analytics needs from one record. Finished is zero until
// the record completes or fails.
type Activity struct {
	UserID    string
	Status    Status
	Submitted time.Time
	Finished  time.Time
	Threats   int
}

func newActivity(userID string, status Status, submitted, finished string, threats int) Activity {
	a := Activity{UserID: userID, Status: status, Threats: threats}
	a.Submitted, _ = ParseRecordTime(submitted)
	if status.Terminal() {
		a.Finished, _ = ParseRecordTime(finished)
	}
	return a
}

// ScanActivity maps scans to activity. Threats come from the scan result.
func ScanActivity(items []ScanRecord) []Activity {
	out := make([]Activity, 0, len(items))
	for _, r := range items {
		out = append(out, newActivity(r.UserID, r.Status, r.ScanTime, r.CompletionTime, r.Threats))
	}
	return out
}

// ProtectionActivity maps protection jobs to activity.
func ProtectionActivity(items []ProtectionRecord) []Activity {
	out := make([]Activity, 0, len(items))
	for _, r := range items {
		out = append(out, newActivity(r.UserID, r.Status, r.UploadTime, r.CompletionTime, 0))
	}
	return out
}

// CompatibilityActivity maps compatibility runs to activity.
func CompatibilityActivity(items []CompatibilityRecord) []Activity {
	out := make([]Activity, 0, len(items))
	for _, r := range items {
		out = append(out, newActivity(r.UserID, r.Status, r.UploadTime, r.CompletionTime, 0))
	}
	return out
}

// AnalysisActivity maps source code analyses to activity. Critical issues
// count as threats.
func AnalysisActivity(items []AnalysisRecord) []Activity {
	out := make([]Activity, 0, len(items))
	for _, r := range items {
		out = append(out, newActivity(r.UserID, r.Status, r.ScanTime, r.CompletionTime, r.Issues.Critical))
	}
	return out
}

// ServiceActivity is the activity of one service.
type ServiceActivity struct {
	Service string
	Items   []Activity
}

// PeriodTotals aggregates activity across services over one window.
type PeriodTotals struct {
	Uploads     int
	ActiveUsers int
	Threats     int
	Completed   int
	Failed      int
}

// SuccessRate is the completed share of uploads, in percent.
func (t PeriodTotals) SuccessRate() float64 {
	return percent(t.Completed, t.Uploads)
}

// ServiceMetrics is one row of the service performance table.
type ServiceMetrics struct {
	Service     string
	Total       int
	Completed   int
	Failed      int
	AvgDuration time.Duration
}

// SuccessRate is the completed share of the service's uploads, in percent.
func (m ServiceMetrics) SuccessRate() float64 {
	return percent(m.Completed, m.Total)
}

// Report compares a window with the one just before it.
type Report struct {
	Range    Range
	From     time.Time
	To       time.Time
	Current  PeriodTotals
	Previous PeriodTotals
	Services []ServiceMetrics
}

// UploadsChange is the relative change in uploads, in percent.
func (r Report) UploadsChange() float64 {
	return change(r.Current.Uploads, r.Previous.Uploads)
}

// ActiveUsersChange is the relative change in active users, in percent.
func (r Report) ActiveUsersChange() float64 {
	return change(r.Current.ActiveUsers, r.Previous.ActiveUsers)
}

// ThreatsChange is the relative change in threats found, in percent.
func (r Report) ThreatsChange() float64 {
	return change(r.Current.Threats, r.Previous.Threats)
}

// SuccessRateChange is the difference in success rate, in percentage points.
func (r Report) SuccessRateChange() float64 {
	return r.Current.SuccessRate() - r.Previous.SuccessRate()
}

// BuildReport aggregates activity submitted in [now-rng, now) and in the
// window of the same length before it. Records without a parsable submission
// time are left out.
func BuildReport(rng Range, now time.Time, services []ServiceActivity) Report {
	to := now.UTC()
	from := to.Add(-rng.Duration())
	report := Report{Range: rng, From: from, To: to, Services: make([]ServiceMetrics, 0, len(services))}

	var current, previous periodCounter
	for _, svc := range services {
		metrics := ServiceMetrics{Service: svc.Service}
		var durations time.Duration
		var timed int
		for _, a := range svc.Items {
			switch {
			case within(a.Submitted, from, to):
				current.add(a)
				metrics.Total++
				switch a.Status {
				case StatusCompleted:
					metrics.Completed++
					if !a.Finished.IsZero() && a.Finished.After(a.Submitted) {
						durations += a.Finished.Sub(a.Submitted)
						timed++
					}
				case StatusFailed:
					metrics.Failed++
				}
			case within(a.Submitted, from.Add(-rng.Duration()), from):
				previous.add(a)
			}
		}
		if timed > 0 {
			metrics.AvgDuration = (durations / time.Duration(timed)).Round(time.Second)
		}
		report.Services = append(report.Services, metrics)
	}
	report.Current = current.totals()
	report.Previous = previous.totals()
	return report
}

type periodCounter struct {
	PeriodTotals
	users map[string]struct{}
}

func (c *periodCounter) add(a Activity) {
	c.Uploads++
	c.Threats += a.Threats
	switch a.Status {
	case StatusCompleted:
		c.Completed++
	case StatusFailed:
		c.Failed++
	}
	if a.UserID == "" {
		return
	}
	if c.users == nil {
		c.users = make(map[string]struct{})
	}
	c.users[a.UserID] = struct{}{}
}

func (c *periodCounter) totals() PeriodTotals {
	t := c.PeriodTotals
	t.ActiveUsers = len(c.users)
	return t
}

func within(t, from, to time.Time) bool {
	return !t.IsZero() && !t.Before(from) && t.Before(to)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// change is the relative change from prev to cur. Growth from zero counts as
// 100%.
func change(cur, prev int) float64 {
	switch {
	case prev == 0 && cur == 0:
		return 0
	case prev == 0:
		return 100
	default:
		return float64(cur-prev) * 100 / float64(prev)
	}
}
