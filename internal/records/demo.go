package records

import "time"

// DemoUsers returns the seeded accounts used by the demo backend.
func DemoUsers() []User {
	created := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	lastLogin := time.Date(2025, 11, 5, 9, 12, 0, 0, time.UTC)
	return []User{
		{ID: "1", Email: "admin@ics.com", FirstName: "Admin", LastName: "ICS", Role: RoleAdmin, Country: "Vietnam", CompanyName: "ICS Security", Position: "Administrator", CreatedAt: created, UpdatedAt: created, LastLogin: &lastLogin},
		{ID: "2", Email: "user@ics.com", FirstName: "John", LastName: "Doe", Role: RoleUser, Country: "Vietnam", CompanyName: "ICS", Position: "Developer", AndroidTimes: 45, IOSTimes: 50, CreatedAt: created, UpdatedAt: created},
		{ID: "u002", Email: "jane.smith@example.com", FirstName: "Jane", LastName: "Smith", Role: RoleUser, Country: "Singapore", CompanyName: "SecureBank", Position: "Mobile Lead", AndroidTimes: 20, IOSTimes: 12, CreatedAt: created, UpdatedAt: created},
		{ID: "u003", Email: "mike.j@example.com", FirstName: "Mike", LastName: "Johnson", Role: RoleUser, Country: "Vietnam", CompanyName: "ShopCo", Position: "Engineer", AndroidTimes: 5, IOSTimes: 0, CreatedAt: created, UpdatedAt: created},
		{ID: "u004", Email: "sarah.w@example.com", FirstName: "Sarah", LastName: "Wilson", Role: RoleUser, Country: "Japan", CompanyName: "GameWorks", Position: "QA", AndroidTimes: 15, IOSTimes: 20, CreatedAt: created, UpdatedAt: created},
	}
}

// DemoScans returns seeded AppTotalGo scans.
func DemoScans() []ScanRecord {
	return []ScanRecord{
		{ID: "1", UserID: "u001", UserName: "John Doe", UserEmail: "john.doe@example.com", Filename: "Woori_bank.apk", FileSize: "103.49M", Version: "2.0.94", Platform: "Android", Threats: 2, Vulnerabilities: Severity{Critical: 1, High: 3, Medium: 8, Low: 12}, ScanTime: "2025-09-22 21:00:23", CompletionTime: "2025-10-27 11:20:31", Status: StatusCompleted, RiskScore: 7.5},
		{ID: "2", UserID: "u002", UserName: "Jane Smith", UserEmail: "jane.smith@example.com", Filename: "lp_sign.apk", FileSize: "167.22M", Version: "4.1.9", Platform: "Android", Threats: 0, Vulnerabilities: Severity{High: 1, Medium: 5, Low: 8}, ScanTime: "2025-09-21 13:10:37", CompletionTime: "2025-09-21 13:21:05", Status: StatusCompleted, RiskScore: 3.2},
		{ID: "3", UserID: "u003", UserName: "Mike Johnson", UserEmail: "mike.j@example.com", Filename: "shb_merged.apk", FileSize: "79.93M", Version: "5.24.4", Platform: "Android", Threats: 1, Vulnerabilities: Severity{High: 2, Medium: 6, Low: 10}, ScanTime: "2025-09-18 18:26:49", CompletionTime: "2025-09-18 18:50:15", Status: StatusCompleted, RiskScore: 4.8},
		{ID: "4", UserID: "u004", UserName: "Sarah Wilson", UserEmail: "sarah.w@example.com", Filename: "app-release.apk", FileSize: "6.27M", Version: "1.0", Platform: "Android", Threats: 0, Vulnerabilities: Severity{Medium: 2, Low: 5}, ScanTime: "2025-09-09 10:49:25", CompletionTime: "2025-09-09 11:10:09", Status: StatusCompleted, RiskScore: 1.5},
	}
}

// DemoAPKProtections returns seeded APK Protect jobs.
func DemoAPKProtections() []ProtectionRecord {
	return []ProtectionRecord{
		{ID: "1", UserID: "u001", UserName: "John Doe", UserEmail: "john.doe@example.com", Filename: "myapp-v1.2.3.apk", FileSize: "45.7M", PackageName: "com.example.myapp", Version: "1.2.3", ProtectionLevel: "Maximum", Features: []string{"Code Obfuscation", "Anti-Debug", "Anti-Tamper", "String Encryption"}, RemainingTimes: 8, UploadTime: "2025-10-27 09:30:15", CompletionTime: "2025-10-27 09:45:22", Status: StatusCompleted},
		{ID: "2", UserID: "u002", UserName: "Jane Smith", UserEmail: "jane.smith@example.com", Filename: "banking-app.apk", FileSize: "78.2M", PackageName: "com.bank.secure", Version: "2.0.1", ProtectionLevel: "Advanced", Features: []string{"Code Obfuscation", "Anti-Debug", "Root Detection"}, RemainingTimes: 5, UploadTime: "2025-10-26 14:20:30", CompletionTime: "2025-10-26 14:38:15", Status: StatusCompleted},
		{ID: "3", UserID: "u003", UserName: "Mike Johnson", UserEmail: "mike.j@example.com", Filename: "ecommerce-v3.apk", FileSize: "62.1M", PackageName: "com.shop.mobile", Version: "3.0.0", ProtectionLevel: "Standard", Features: []string{"Code Obfuscation", "String Encryption"}, UploadTime: "2025-10-25 11:15:45", Status: StatusProcessing},
		{ID: "4", UserID: "u004", UserName: "Sarah Wilson", UserEmail: "sarah.w@example.com", Filename: "game-release.apk", FileSize: "123.5M", PackageName: "com.game.awesome", Version: "1.0.0", ProtectionLevel: "Basic", Features: []string{"Code Obfuscation"}, RemainingTimes: 15, UploadTime: "2025-10-24 16:45:20", CompletionTime: "2025-10-24 17:02:10", Status: StatusCompleted},
	}
}

// DemoIOSProtections returns seeded iOS Protect jobs.
func DemoIOSProtections() []ProtectionRecord {
	return []ProtectionRecord{
		{ID: "1", UserID: "u001", UserName: "John Doe", UserEmail: "john.doe@example.com", Filename: "MyApp.ipa", FileSize: "67.3M", BundleID: "com.example.myapp", MinIOSVersion: "14.0", Version: "1.5.2", ProtectionLevel: "Maximum", Features: []string{"Code Obfuscation", "Anti-Debug", "Jailbreak Detection", "String Encryption"}, RemainingTimes: 12, UploadTime: "2025-10-27 10:15:30", CompletionTime: "2025-10-27 10:32:45", Status: StatusCompleted},
		{ID: "2", UserID: "u002", UserName: "Jane Smith", UserEmail: "jane.smith@example.com", Filename: "BankingApp.ipa", FileSize: "89.7M", BundleID: "com.bank.secureiOS", MinIOSVersion: "15.0", Version: "3.2.1", ProtectionLevel: "Advanced", Features: []string{"Code Obfuscation", "Anti-Debug", "Jailbreak Detection"}, RemainingTimes: 7, UploadTime: "2025-10-26 15:45:20", CompletionTime: "2025-10-26 16:05:10", Status: StatusCompleted},
		{ID: "3", UserID: "u003", UserName: "Mike Johnson", UserEmail: "mike.j@example.com", Filename: "ShoppingApp-v2.ipa", FileSize: "54.2M", BundleID: "com.shop.ios", MinIOSVersion: "13.0", Version: "2.0.5", ProtectionLevel: "Standard", Features: []string{"Code Obfuscation", "String Encryption"}, UploadTime: "2025-10-25 12:30:15", Status: StatusProcessing},
		{ID: "4", UserID: "u004", UserName: "Sarah Wilson", UserEmail: "sarah.w@example.com", Filename: "GameApp.ipa", FileSize: "145.8M", BundleID: "com.game.ios", MinIOSVersion: "16.0", Version: "1.0.3", ProtectionLevel: "Basic", Features: []string{"Code Obfuscation"}, RemainingTimes: 20, UploadTime: "2025-10-24 18:20:40", CompletionTime: "2025-10-24 18:45:22", Status: StatusCompleted},
	}
}

// DemoCompatibility returns seeded compatibility runs.
func DemoCompatibility() []CompatibilityRecord {
	return []CompatibilityRecord{
		{ID: "1", UserID: "u001", UserName: "John Doe", UserEmail: "john.doe@example.com", Filename: "BankApp.apk", FileSize: "85.3M", PackageName: "com.bank.app", Version: "3.2.1", AndroidVersions: []string{"14", "13", "12", "11", "10"}, DevicesTestedCount: 25, TestDuration: "18m 45s", UploadTime: "2025-11-05 09:30:15", CompletionTime: "2025-11-05 09:49:00", Status: StatusCompleted, Compatibility: 96},
		{ID: "2", UserID: "u002", UserName: "Jane Smith", UserEmail: "jane.smith@example.com", Filename: "ShoppingApp.apk", FileSize: "62.7M", PackageName: "com.shop.mobile", Version: "2.5.0", AndroidVersions: []string{"14", "13", "12"}, DevicesTestedCount: 15, TestDuration: "12m 30s", UploadTime: "2025-11-04 14:20:30", CompletionTime: "2025-11-04 14:33:00", Status: StatusCompleted, Compatibility: 100},
		{ID: "3", UserID: "u003", UserName: "Mike Johnson", UserEmail: "mike.j@example.com", Filename: "GameApp.apk", FileSize: "124.5M", PackageName: "com.game.awesome", Version: "1.0.3", AndroidVersions: []string{"14", "13"}, DevicesTestedCount: 10, UploadTime: "2025-11-04 11:15:45", Status: StatusTesting},
		{ID: "4", UserID: "u004", UserName: "Sarah Wilson", UserEmail: "sarah.w@example.com", Filename: "UtilityApp.apk", FileSize: "45.2M", PackageName: "com.util.app", Version: "4.1.0", AndroidVersions: []string{"14", "13", "12", "11"}, DevicesTestedCount: 20, TestDuration: "15m 20s", UploadTime: "2025-11-03 16:45:20", CompletionTime: "2025-11-03 17:00:40", Status: StatusCompleted, Compatibility: 85},
	}
}

// DemoAnalyses returns seeded source code analyses.
func DemoAnalyses() []AnalysisRecord {
	return []AnalysisRecord{
		{ID: "1", UserID: "u001", UserName: "John Doe", UserEmail: "john.doe@example.com", Filename: "mobile-app-v2.3.zip", FileSize: "45.2MB", Language: "Java/Kotlin", LinesOfCode: 125430, Issues: Severity{Critical: 3, High: 12, Medium: 45, Low: 78}, ScanTime: "2025-11-03 14:23:15", CompletionTime: "2025-11-03 14:45:20", Status: StatusCompleted},
		{ID: "2", UserID: "u002", UserName: "Jane Smith", UserEmail: "jane.smith@example.com", Filename: "backend-api.zip", FileSize: "23.8MB", Language: "TypeScript", LinesOfCode: 67800, Issues: Severity{Critical: 1, High: 8, Medium: 23, Low: 45}, ScanTime: "2025-11-02 09:15:30", CompletionTime: "2025-11-02 09:28:45", Status: StatusCompleted},
		{ID: "3", UserID: "u003", UserName: "Mike Johnson", UserEmail: "mike.j@example.com", Filename: "frontend-react.zip", FileSize: "18.5MB", Language: "JavaScript/React", LinesOfCode: 52100, Issues: Severity{High: 5, Medium: 18, Low: 32}, ScanTime: "2025-11-01 16:40:10", CompletionTime: "2025-11-01 16:52:30", Status: StatusCompleted},
	}
}
