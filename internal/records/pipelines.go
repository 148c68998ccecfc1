package records

import "secdash/internal/browser"

// ScanPipeline searches scans by user name, email and filename.
var ScanPipeline = browser.Pipeline[ScanRecord]{
	Status: func(r ScanRecord) string { return string(r.Status) },
	Fields: []func(ScanRecord) string{
		func(r ScanRecord) string { return r.UserName },
		func(r ScanRecord) string { return r.UserEmail },
		func(r ScanRecord) string { return r.Filename },
	},
}

// ProtectionPipeline also matches the package name or bundle ID.
var ProtectionPipeline = browser.Pipeline[ProtectionRecord]{
	Status: func(r ProtectionRecord) string { return string(r.Status) },
	Fields: []func(ProtectionRecord) string{
		func(r ProtectionRecord) string { return r.UserName },
		func(r ProtectionRecord) string { return r.UserEmail },
		func(r ProtectionRecord) string { return r.Filename },
		ProtectionRecord.Identifier,
	},
}

var CompatibilityPipeline = browser.Pipeline[CompatibilityRecord]{
	Status: func(r CompatibilityRecord) string { return string(r.Status) },
	Fields: []func(CompatibilityRecord) string{
		func(r CompatibilityRecord) string { return r.UserName },
		func(r CompatibilityRecord) string { return r.UserEmail },
		func(r CompatibilityRecord) string { return r.Filename },
		func(r CompatibilityRecord) string { return r.PackageName },
	},
}

var AnalysisPipeline = browser.Pipeline[AnalysisRecord]{
	Status: func(r AnalysisRecord) string { return string(r.Status) },
	Fields: []func(AnalysisRecord) string{
		func(r AnalysisRecord) string { return r.UserName },
		func(r AnalysisRecord) string { return r.UserEmail },
		func(r AnalysisRecord) string { return r.Filename },
		func(r AnalysisRecord) string { return r.Language },
	},
}

// UploadPipeline lists a user's own uploads.
var UploadPipeline = browser.Pipeline[UploadedFile]{
	Status: func(r UploadedFile) string { return string(r.Status) },
	Fields: []func(UploadedFile) string{
		func(r UploadedFile) string { return r.Filename },
		func(r UploadedFile) string { return r.Version },
	},
}

// UserPipeline filters by role and searches email, full name and company.
var UserPipeline = browser.Pipeline[User]{
	Status: func(u User) string { return string(u.Role) },
	Fields: []func(User) string{
		func(u User) string { return u.Email },
		User.FullName,
		func(u User) string { return u.CompanyName },
	},
}
