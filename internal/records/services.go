package records

import (
	"path/filepath"
	"strings"
)

// MaxUploadSize is the per-file upload limit shared by every service.
const MaxUploadSize int64 = 2 << 30

// MaxAvatarSize caps the encoded avatar sent to the backend.
const MaxAvatarSize = 2 << 20

// Kind selects which record type a service produces.
type Kind string

const (
	KindAnalysis      Kind = "analysis"
	KindCompatibility Kind = "compatibility"
	KindScan          Kind = "scan"
	KindProtection    Kind = "protection"
	KindNews          Kind = "news"
)

// Service describes one security service offered by the dashboard.
type Service struct {
	ID         string
	Name       string
	Kind       Kind
	Platform   string
	Extensions []string
	Permission string
}

// NameKey is the dictionary path of the localized service name.
func (s Service) NameKey() string {
	return "services." + s.ID + ".name"
}

// DescriptionKey is the dictionary path of the localized description.
func (s Service) DescriptionKey() string {
	return "services." + s.ID + ".description"
}

// AcceptsUploads reports whether users can submit files to the service.
func (s Service) AcceptsUploads() bool {
	return len(s.Extensions) > 0
}

// Accepts reports whether filename carries one of the allowed extensions.
func (s Service) Accepts(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// AcceptAttribute formats the extensions for an HTML file input.
func (s Service) AcceptAttribute() string {
	return strings.Join(s.Extensions, ",")
}

const (
	ServiceSourceCodeAnalysis  = "source-code-analysis"
	ServiceCompatibility       = "compatibility"
	ServiceAppTotalGo          = "app-total-go"
	ServiceAPKProtect          = "apk-protect"
	ServiceIOSProtect          = "ios-protect"
	ServiceMalwareIntelligence = "malware-intelligence"
)

var services = []Service{
	{ID: ServiceSourceCodeAnalysis, Name: "Source Code Analysis", Kind: KindAnalysis, Extensions: []string{".zip"}, Permission: PermissionAccessSourceCodeAnalysis},
	{ID: ServiceCompatibility, Name: "Compatibility", Kind: KindCompatibility, Platform: "Android", Extensions: []string{".apk", ".aab"}, Permission: PermissionAccessCompatibility},
	{ID: ServiceAppTotalGo, Name: "AppTotalGo", Kind: KindScan, Extensions: []string{".apk", ".ipa"}, Permission: PermissionAccessAppTotalGo},
	{ID: ServiceAPKProtect, Name: "APK Protect", Kind: KindProtection, Platform: "Android", Extensions: []string{".apk", ".aab"}, Permission: PermissionAccessAPKProtect},
	{ID: ServiceIOSProtect, Name: "iOS Protect", Kind: KindProtection, Platform: "iOS", Extensions: []string{".ipa"}, Permission: PermissionAccessIOSProtect},
	{ID: ServiceMalwareIntelligence, Name: "Malware Intelligence", Kind: KindNews, Permission: PermissionAccessMalwareIntelligence},
}

// Services returns the catalog in display order.
func Services() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

// UploadServices returns the services that accept uploads.
func UploadServices() []Service {
	out := make([]Service, 0, len(services))
	for _, service := range services {
		if service.AcceptsUploads() {
			out = append(out, service)
		}
	}
	return out
}

// LookupService finds a service by ID.
func LookupService(id string) (Service, bool) {
	for _, service := range services {
		if service.ID == id {
			return service, true
		}
	}
	return Service{}, false
}
