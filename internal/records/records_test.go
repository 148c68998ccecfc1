package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secdash/internal/browser"
)

func TestLookupService(t *testing.T) {
	service, ok := LookupService(ServiceAPKProtect)
	require.True(t, ok)
	assert.Equal(t, "APK Protect", service.Name)
	assert.Equal(t, "services.apk-protect.name", service.NameKey())
	assert.Equal(t, "services.apk-protect.description", service.DescriptionKey())

	_, ok = LookupService("unknown")
	assert.False(t, ok)
}

func TestServiceAccepts(t *testing.T) {
	sourceCode, _ := LookupService(ServiceSourceCodeAnalysis)
	assert.True(t, sourceCode.Accepts("project.ZIP"))
	assert.False(t, sourceCode.Accepts("project.tar.gz"))

	compatibility, _ := LookupService(ServiceCompatibility)
	assert.True(t, compatibility.Accepts("app.apk"))
	assert.True(t, compatibility.Accepts("bundle.aab"))
	assert.False(t, compatibility.Accepts("app.ipa"))
	assert.Equal(t, ".apk,.aab", compatibility.AcceptAttribute())

	malware, _ := LookupService(ServiceMalwareIntelligence)
	assert.False(t, malware.AcceptsUploads())
}

func TestUploadServicesExcludeNewsFeed(t *testing.T) {
	for _, service := range UploadServices() {
		assert.NotEqual(t, ServiceMalwareIntelligence, service.ID)
	}
	assert.Len(t, UploadServices(), len(Services())-1)
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)
	_, ok = ParseRole("root")
	assert.False(t, ok)
}

func TestPermissions(t *testing.T) {
	admin := User{Role: RoleAdmin}
	user := User{Role: RoleUser}
	assert.True(t, HasPermission(admin, PermissionDeleteUsers))
	assert.True(t, HasPermission(admin, PermissionAccessIOSProtect))
	assert.False(t, HasPermission(user, PermissionDeleteUsers))
	assert.True(t, HasPermission(user, PermissionAccessAPKProtect))

	granted := User{Role: RoleUser, Permissions: []string{PermissionViewAnalytics}}
	assert.True(t, HasPermission(granted, PermissionViewAnalytics))

	perms := PermissionsFor(RoleUser)
	perms[0] = "mutated"
	assert.NotEqual(t, "mutated", PermissionsFor(RoleUser)[0])
}

func TestProtectionPipeline_MatchesBundleID(t *testing.T) {
	got := ProtectionPipeline.Filter(DemoIOSProtections(), "SECUREIOS", browser.StatusAll)
	require.Len(t, got, 1)
	assert.Equal(t, "BankingApp.ipa", got[0].Filename)
}

func TestProtectionPipeline_MyAppCaseInsensitive(t *testing.T) {
	got := ProtectionPipeline.Filter(DemoIOSProtections(), "myapp", browser.StatusAll)
	require.Len(t, got, 1)
	assert.Equal(t, "MyApp.ipa", got[0].Filename)
}

func TestCompatibilityPipeline_TestingStatus(t *testing.T) {
	got := CompatibilityPipeline.Filter(DemoCompatibility(), "", string(StatusTesting))
	require.Len(t, got, 1)
	assert.Equal(t, "GameApp.apk", got[0].Filename)
	assert.Empty(t, CompatibilityPipeline.Filter(DemoCompatibility(), "", string(StatusProcessing)))
}

func TestUserPipeline_RoleAndFullName(t *testing.T) {
	users := DemoUsers()
	admins := UserPipeline.Filter(users, "", string(RoleAdmin))
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@ics.com", admins[0].Email)

	byName := UserPipeline.Filter(users, "jane smith", browser.StatusAll)
	require.Len(t, byName, 1)
	assert.Equal(t, "u002", byName[0].ID)

	byCompany := UserPipeline.Filter(users, "gameworks", string(RoleUser))
	require.Len(t, byCompany, 1)
	assert.Equal(t, "sarah.w@example.com", byCompany[0].Email)
}

func TestSummarize(t *testing.T) {
	stats := SummarizeProtections(DemoAPKProtections())
	assert.Equal(t, Stats{Total: 4, Users: 4, Processing: 1, Completed: 3}, stats)

	compat := SummarizeCompatibility(DemoCompatibility())
	assert.Equal(t, 1, compat.Processing)

	empty := SummarizeScans(nil)
	assert.Equal(t, Stats{}, empty)
}

func TestSummarizeUsers(t *testing.T) {
	stats := SummarizeUsers(DemoUsers())
	assert.Equal(t, UserStats{Total: 5, Admins: 1, Users: 4}, stats)
}

func TestSeverityTotal(t *testing.T) {
	assert.Equal(t, 24, Severity{Critical: 1, High: 3, Medium: 8, Low: 12}.Total())
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "John Doe", User{FirstName: "John", LastName: "Doe"}.FullName())
	assert.Equal(t, "John", User{FirstName: "John"}.FullName())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	for _, s := range []Status{StatusPending, StatusProcessing, StatusTesting, ""} {
		assert.False(t, s.Terminal(), string(s))
	}
}
