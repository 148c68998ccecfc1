package records

// Stats summarizes a record collection for dashboard cards.
type Stats struct {
	Total      int
	Users      int
	Processing int
	Completed  int
	Failed     int
}

// Summarize counts records per status and distinct owners.
func Summarize[T any](items []T, owner func(T) string, status func(T) Status) Stats {
	stats := Stats{Total: len(items)}
	owners := make(map[string]struct{}, len(items))
	for _, item := range items {
		if id := owner(item); id != "" {
			owners[id] = struct{}{}
		}
		switch status(item) {
		case StatusProcessing, StatusTesting, StatusPending:
			stats.Processing++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}
	}
	stats.Users = len(owners)
	return stats
}

// SummarizeScans summarizes AppTotalGo scans.
func SummarizeScans(items []ScanRecord) Stats {
	return Summarize(items, func(r ScanRecord) string { return r.UserID }, func(r ScanRecord) Status { return r.Status })
}

// SummarizeProtections summarizes protection jobs.
func SummarizeProtections(items []ProtectionRecord) Stats {
	return Summarize(items, func(r ProtectionRecord) string { return r.UserID }, func(r ProtectionRecord) Status { return r.Status })
}

// SummarizeCompatibility summarizes compatibility runs.
func SummarizeCompatibility(items []CompatibilityRecord) Stats {
	return Summarize(items, func(r CompatibilityRecord) string { return r.UserID }, func(r CompatibilityRecord) Status { return r.Status })
}

// SummarizeAnalyses summarizes source code analyses.
func SummarizeAnalyses(items []AnalysisRecord) Stats {
	return Summarize(items, func(r AnalysisRecord) string { return r.UserID }, func(r AnalysisRecord) Status { return r.Status })
}

// UserStats counts accounts per role.
type UserStats struct {
	Total  int
	Admins int
	Users  int
}

// SummarizeUsers counts accounts per role.
func SummarizeUsers(users []User) UserStats {
	stats := UserStats{Total: len(users)}
	for _, user := range users {
		switch user.Role {
		case RoleAdmin:
			stats.Admins++
		case RoleUser:
			stats.Users++
		}
	}
	return stats
}
