// Package records defines the entities shown in dashboard tables and the
// pipelines used to search and filter them.
package records

import (
	"strings"
	"time"
)

// Status is the processing lifecycle state of a record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusTesting    Status = "testing"
)

// ProcessingStatuses is the status set shared by scan, protection and upload records.
var ProcessingStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// CompatibilityStatuses replaces processing with testing.
var CompatibilityStatuses = []Status{StatusPending, StatusTesting, StatusCompleted, StatusFailed}

// Terminal reports whether processing has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Role is the account role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole accepts admin or user.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	default:
		return "", false
	}
}

// User is an account as returned by the backend.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Role           Role       `json:"role"`
	Country        string     `json:"country,omitempty"`
	CompanyName    string     `json:"companyName,omitempty"`
	Position       string     `json:"position,omitempty"`
	Mobile         string     `json:"mobile,omitempty"`
	ProtectVersion string     `json:"protectVersion,omitempty"`
	AndroidTimes   int        `json:"androidTimes,omitempty"`
	IOSTimes       int        `json:"iosTimes,omitempty"`
	Permissions    []string   `json:"permissions,omitempty"`
	Avatar         string     `json:"avatar,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UploadedFile is a file a user submitted to a service.
type UploadedFile struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Service    string     `json:"service"`
	Filename   string     `json:"filename"`
	FileSize   int64      `json:"fileSize"`
	Version    string     `json:"version,omitempty"`
	Status     Status     `json:"status"`
	CreateTime time.Time  `json:"createTime"`
	FinishTime *time.Time `json:"finishTime,omitempty"`
	ReportURL  string     `json:"reportUrl,omitempty"`
}

// Severity counts findings by severity.
type Severity struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total sums every severity.
func (s Severity) Total() int {
	return s.Critical + s.High + s.Medium + s.Low
}

// ScanRecord is an AppTotalGo scan result.
type ScanRecord struct {
	ID              string   `json:"id"`
	UserID          string   `json:"userId"`
	UserName        string   `json:"userName"`
	UserEmail       string   `json:"userEmail"`
	Filename        string   `json:"filename"`
	FileSize        string   `json:"fileSize"`
	Version         string   `json:"version"`
	Platform        string   `json:"platform"`
	Threats         int      `json:"threats"`
	Vulnerabilities Severity `json:"vulnerabilities"`
	ScanTime        string   `json:"scanTime"`
	CompletionTime  string   `json:"completionTime"`
	Status          Status   `json:"status"`
	RiskScore       float64  `json:"riskScore"`
}

// ProtectionRecord is an APK Protect or iOS Protect job. Android jobs carry a
// package name, iOS jobs a bundle ID and minimum iOS version.
type ProtectionRecord struct {
	ID              string   `json:"id"`
	UserID          string   `json:"userId"`
	UserName        string   `json:"userName"`
	UserEmail       string   `json:"userEmail"`
	Filename        string   `json:"filename"`
	FileSize        string   `json:"fileSize"`
	PackageName     string   `json:"packageName,omitempty"`
	BundleID        string   `json:"bundleId,omitempty"`
	MinIOSVersion   string   `json:"minIOSVersion,omitempty"`
	Version         string   `json:"version"`
	ProtectionLevel string   `json:"protectionLevel"`
	Features        []string `json:"features"`
	RemainingTimes  int      `json:"remainingTimes"`
	UploadTime      string   `json:"uploadTime"`
	CompletionTime  string   `json:"completionTime"`
	Status          Status   `json:"status"`
}

// Identifier returns the package name or bundle ID.
func (p ProtectionRecord) Identifier() string {
	if p.BundleID != "" {
		return p.BundleID
	}
	return p.PackageName
}

// CompatibilityRecord is a device compatibility test run.
type CompatibilityRecord struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"userId"`
	UserName           string   `json:"userName"`
	UserEmail          string   `json:"userEmail"`
	Filename           string   `json:"filename"`
	FileSize           string   `json:"fileSize"`
	PackageName        string   `json:"packageName"`
	Version            string   `json:"version"`
	AndroidVersions    []string `json:"androidVersions"`
	DevicesTestedCount int      `json:"devicesTestedCount"`
	TestDuration       string   `json:"testDuration"`
	UploadTime         string   `json:"uploadTime"`
	CompletionTime     string   `json:"completionTime"`
	Status             Status   `json:"status"`
	Compatibility      int      `json:"compatibility"`
}

// AnalysisRecord is a source code analysis report.
type AnalysisRecord struct {
	ID             string   `json:"id"`
	UserID         string   `json:"userId"`
	UserName       string   `json:"userName"`
	UserEmail      string   `json:"userEmail"`
	Filename       string   `json:"filename"`
	FileSize       string   `json:"fileSize"`
	Language       string   `json:"language"`
	LinesOfCode    int      `json:"linesOfCode"`
	Issues         Severity `json:"issues"`
	ScanTime       string   `json:"scanTime"`
	CompletionTime string   `json:"completionTime"`
	Status         Status   `json:"status"`
}
