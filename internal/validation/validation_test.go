package validation

import (
	"strings"
	"testing"

	"secdash/config"
	apperrors "secdash/internal/errors"
	"secdash/internal/records"
)

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     Errors
	}{
		{name: "valid", email: "admin@ics.com", password: "admin123", want: Errors{}},
		{name: "missing email", email: "  ", password: "admin123", want: Errors{"email": "validation.emailRequired"}},
		{name: "malformed email", email: "admin@ics", password: "admin123", want: Errors{"email": "validation.emailInvalid"}},
		{name: "missing password", email: "admin@ics.com", password: "", want: Errors{"password": "validation.passwordRequired"}},
		{name: "short password", email: "admin@ics.com", password: "12345", want: Errors{"password": "validation.passwordTooShort"}},
		{name: "both", email: "", password: "", want: Errors{"email": "validation.emailRequired", "password": "validation.passwordRequired"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateLogin(tt.email, tt.password)
			if len(got) != len(tt.want) {
				t.Fatalf("ValidateLogin() = %v, want %v", got, tt.want)
			}
			for field, key := range tt.want {
				if got[field] != key {
					t.Errorf("ValidateLogin()[%q] = %q, want %q", field, got[field], key)
				}
			}
		})
	}
}

func TestValidateForgotPassword(t *testing.T) {
	if errs := ValidateForgotPassword("user@ics.com"); !errs.OK() {
		t.Errorf("expected valid email, got %v", errs)
	}
	if errs := ValidateForgotPassword("user"); errs["email"] != "validation.emailInvalid" {
		t.Errorf("expected invalid email, got %v", errs)
	}
}

func TestPasswordRequirements(t *testing.T) {
	tests := []struct {
		password string
		met      []bool
	}{
		{"", []bool{false, false, false, false, false}},
		{"abcdefgh", []bool{true, false, true, false, false}},
		{"Abcdefg1", []bool{true, true, true, true, false}},
		{"Abcdef1!", []bool{true, true, true, true, true}},
		{"Ab1!", []bool{false, true, true, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			reqs := PasswordRequirements(tt.password)
			if len(reqs) != len(tt.met) {
				t.Fatalf("expected %d requirements, got %d", len(tt.met), len(reqs))
			}
			for i, req := range reqs {
				if req.Met != tt.met[i] {
					t.Errorf("requirement %s met = %v, want %v", req.Key, req.Met, tt.met[i])
				}
			}
		})
	}
	if !StrongPassword("Secure#2025") {
		t.Error("expected strong password")
	}
}

func TestValidateChangePassword(t *testing.T) {
	errs := ValidateChangePassword("", "weak", "other")
	want := Errors{
		"currentPassword": "validation.currentRequired",
		"newPassword":     "validation.passwordWeak",
		"confirmPassword": "validation.passwordMismatch",
	}
	for field, key := range want {
		if errs[field] != key {
			t.Errorf("errs[%q] = %q, want %q", field, errs[field], key)
		}
	}

	if errs := ValidateChangePassword("user123", "Secure#2025", "Secure#2025"); !errs.OK() {
		t.Errorf("expected valid form, got %v", errs)
	}
	if errs := ValidateChangePassword("user123", "Secure#2025", ""); errs["confirmPassword"] != "validation.confirmRequired" {
		t.Errorf("expected confirm required, got %v", errs)
	}
}

func TestValidateResetPassword(t *testing.T) {
	errs := ValidateResetPassword(" ", "Secure#2025", "Secure#2025")
	if errs["token"] != "validation.tokenRequired" || len(errs) != 1 {
		t.Errorf("unexpected errors %v", errs)
	}
	if errs := ValidateResetPassword("tok", "", ""); errs["password"] != "validation.passwordRequired" {
		t.Errorf("unexpected errors %v", errs)
	}
}

func TestValidateUpload(t *testing.T) {
	apk, _ := records.LookupService(records.ServiceAPKProtect)
	ios, _ := records.LookupService(records.ServiceIOSProtect)

	tests := []struct {
		name     string
		service  records.Service
		filename string
		size     int64
		wantErr  error
	}{
		{"apk accepted", apk, "bank.apk", 1024, nil},
		{"aab accepted", apk, "BANK.AAB", 1024, nil},
		{"ipa rejected by apk", apk, "bank.ipa", 1024, apperrors.ErrInvalidFileType},
		{"ipa accepted by ios", ios, "bank.ipa", 1024, nil},
		{"no filename", ios, "", 1024, apperrors.ErrEmptyFile},
		{"empty file", ios, "bank.ipa", 0, apperrors.ErrEmptyFile},
		{"exactly limit", ios, "bank.ipa", records.MaxUploadSize, nil},
		{"over limit", ios, "bank.ipa", records.MaxUploadSize + 1, apperrors.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.service, tt.filename, tt.size)
			if err != tt.wantErr {
				t.Errorf("ValidateUpload() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUploadErrorKey(t *testing.T) {
	if got := UploadErrorKey(apperrors.ErrFileTooLarge); got != "validation.fileTooLarge" {
		t.Errorf("got %q", got)
	}
	if got := UploadErrorKey(apperrors.ErrInvalidFileType); got != "validation.fileType" {
		t.Errorf("got %q", got)
	}
	if got := UploadErrorKey(apperrors.ErrEmptyFile); got != "validation.fileEmpty" {
		t.Errorf("got %q", got)
	}
	if got := UploadErrorKey(apperrors.ErrBackendUnavailable); got != "user.uploads.failed" {
		t.Errorf("got %q", got)
	}
}

func TestValidateUserForm(t *testing.T) {
	valid := UserForm{Email: "jane@example.com", FirstName: "Jane", LastName: "Smith", Role: "user", Password: "secret1"}
	if errs := ValidateUserForm(valid, true); !errs.OK() {
		t.Errorf("expected valid form, got %v", errs)
	}

	noPassword := valid
	noPassword.Password = ""
	if errs := ValidateUserForm(noPassword, true); errs["password"] != "validation.passwordRequired" {
		t.Errorf("expected password required on create, got %v", errs)
	}
	if errs := ValidateUserForm(noPassword, false); !errs.OK() {
		t.Errorf("expected password optional on edit, got %v", errs)
	}

	errs := ValidateUserForm(UserForm{Email: "x", Role: "root"}, false)
	want := Errors{
		"email":     "validation.emailInvalid",
		"firstName": "validation.firstNameRequired",
		"lastName":  "validation.lastNameRequired",
		"role":      "validation.roleInvalid",
	}
	for field, key := range want {
		if errs[field] != key {
			t.Errorf("errs[%q] = %q, want %q", field, errs[field], key)
		}
	}
}

func TestValidateSettings(t *testing.T) {
	if errs := ValidateSettings(config.DefaultSettings()); !errs.OK() {
		t.Fatalf("expected defaults to validate, got %v", errs)
	}

	bad := config.DefaultSettings()
	bad.Site.Name = " "
	bad.Site.URL = "ics-security.com"
	bad.Site.SupportEmail = "support"
	bad.Security.MaxLoginAttempts = 0
	bad.Security.SessionTimeoutMinutes = 24*60 + 1
	bad.Email.SMTPPort = 70000
	bad.API.TimeoutSeconds = -1
	bad.Notifications.Slack = true

	errs := ValidateSettings(bad)
	want := Errors{
		"site.name":                      "validation.settings.required",
		"site.url":                       "validation.settings.urlInvalid",
		"site.supportEmail":              "validation.emailInvalid",
		"security.maxLoginAttempts":      "validation.settings.outOfRange",
		"security.sessionTimeoutMinutes": "validation.settings.outOfRange",
		"email.smtpPort":                 "validation.settings.outOfRange",
		"api.timeoutSeconds":             "validation.settings.outOfRange",
		"notifications.slackWebhook":     "validation.settings.webhookRequired",
	}
	if len(errs) != len(want) {
		t.Errorf("got %d errors, want %d: %v", len(errs), len(want), errs)
	}
	for field, key := range want {
		if errs[field] != key {
			t.Errorf("errs[%q] = %q, want %q", field, errs[field], key)
		}
	}

	webhook := config.DefaultSettings()
	webhook.Notifications.SlackWebhook = "ftp://hooks.slack.com/x"
	if errs := ValidateSettings(webhook); errs["notifications.slackWebhook"] != "validation.settings.urlInvalid" {
		t.Errorf("expected invalid webhook, got %v", errs)
	}
}

func TestValidateAvatar(t *testing.T) {
	tests := []struct {
		name   string
		avatar string
		want   string
	}{
		{"data url", "data:image/png;base64,iVBORw0KGgo=", ""},
		{"link", "https://cdn.example.com/me.jpg", ""},
		{"empty", "  ", "validation.avatarRequired"},
		{"svg rejected", "data:image/svg+xml;base64,PHN2Zz4=", "validation.avatarInvalid"},
		{"script scheme", "javascript:alert(1)", "validation.avatarInvalid"},
		{"too large", "data:image/png;base64," + strings.Repeat("A", records.MaxAvatarSize), "validation.avatarTooLarge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAvatar(tt.avatar)["avatar"]; got != tt.want {
				t.Errorf("ValidateAvatar() = %q, want %q", got, tt.want)
			}
		})
	}
}
