// Package validation checks form input before any backend call. Failures
// are reported per field as dictionary keys so pages can translate them.
package validation

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"secdash/config"
	apperrors "secdash/internal/errors"
	"secdash/internal/records"
)

const (
	MinLoginPasswordLength = 6
	MinPasswordLength      = 8
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Errors maps a form field to the dictionary key of its message.
type Errors map[string]string

// Add records key for field unless the field already failed.
func (e Errors) Add(field, key string) {
	if _, exists := e[field]; !exists {
		e[field] = key
	}
}

// OK reports whether no field failed.
func (e Errors) OK() bool {
	return len(e) == 0
}

func validateEmail(errs Errors, field, email string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		errs.Add(field, "validation.emailRequired")
	case !emailPattern.MatchString(email):
		errs.Add(field, "validation.emailInvalid")
	}
}

// ValidateLogin checks the sign-in form.
func ValidateLogin(email, password string) Errors {
	errs := Errors{}
	validateEmail(errs, "email", email)
	switch {
	case password == "":
		errs.Add("password", "validation.passwordRequired")
	case len([]rune(password)) < MinLoginPasswordLength:
		errs.Add("password", "validation.passwordTooShort")
	}
	return errs
}

// ValidateForgotPassword checks the reset request form.
func ValidateForgotPassword(email string) Errors {
	errs := Errors{}
	validateEmail(errs, "email", email)
	return errs
}

// ValidateResetPassword checks the reset form reached from the emailed link.
func ValidateResetPassword(token, password, confirm string) Errors {
	errs := Errors{}
	if strings.TrimSpace(token) == "" {
		errs.Add("token", "validation.tokenRequired")
	}
	validateNewPassword(errs, "password", password, confirm)
	return errs
}

// ValidateChangePassword checks the signed-in password change form.
func ValidateChangePassword(current, password, confirm string) Errors {
	errs := Errors{}
	if current == "" {
		errs.Add("currentPassword", "validation.currentRequired")
	}
	validateNewPassword(errs, "newPassword", password, confirm)
	return errs
}

func validateNewPassword(errs Errors, field, password, confirm string) {
	if password == "" {
		errs.Add(field, "validation.passwordRequired")
	} else if !StrongPassword(password) {
		errs.Add(field, "validation.passwordWeak")
	}
	switch {
	case confirm == "":
		errs.Add("confirmPassword", "validation.confirmRequired")
	case confirm != password:
		errs.Add("confirmPassword", "validation.passwordMismatch")
	}
}

// Requirement is one line of the password checklist.
type Requirement struct {
	Key string
	Met bool
}

// PasswordRequirements evaluates password against each rule.
func PasswordRequirements(password string) []Requirement {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return []Requirement{
		{Key: "user.changePassword.requirements.minLength", Met: len([]rune(password)) >= MinPasswordLength},
		{Key: "user.changePassword.requirements.uppercase", Met: upper},
		{Key: "user.changePassword.requirements.lowercase", Met: lower},
		{Key: "user.changePassword.requirements.number", Met: digit},
		{Key: "user.changePassword.requirements.special", Met: special},
	}
}

// StrongPassword reports whether every requirement holds.
func StrongPassword(password string) bool {
	for _, req := range PasswordRequirements(password) {
		if !req.Met {
			return false
		}
	}
	return true
}

// ValidateUpload checks a file against the service allow-list and size cap.
func ValidateUpload(service records.Service, filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return apperrors.ErrEmptyFile
	}
	if !service.Accepts(filename) {
		return apperrors.ErrInvalidFileType
	}
	if size <= 0 {
		return apperrors.ErrEmptyFile
	}
	if size > records.MaxUploadSize {
		return apperrors.ErrFileTooLarge
	}
	return nil
}

// UploadErrorKey maps an upload validation error to its dictionary key.
func UploadErrorKey(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidFileType):
		return "validation.fileType"
	case errors.Is(err, apperrors.ErrFileTooLarge):
		return "validation.fileTooLarge"
	case errors.Is(err, apperrors.ErrEmptyFile):
		return "validation.fileEmpty"
	default:
		return "user.uploads.failed"
	}
}

// UserForm is the admin create/edit form.
type UserForm struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// ValidateUserForm checks the admin user form. A password is required only
// when creating.
func ValidateUserForm(form UserForm, creating bool) Errors {
	errs := Errors{}
	validateEmail(errs, "email", form.Email)
	if strings.TrimSpace(form.FirstName) == "" {
		errs.Add("firstName", "validation.firstNameRequired")
	}
	if strings.TrimSpace(form.LastName) == "" {
		errs.Add("lastName", "validation.lastNameRequired")
	}
	if _, ok := records.ParseRole(form.Role); !ok {
		errs.Add("role", "validation.roleInvalid")
	}
	switch {
	case creating && form.Password == "":
		errs.Add("password", "validation.passwordRequired")
	case form.Password != "" && len([]rune(form.Password)) < MinLoginPasswordLength:
		errs.Add("password", "validation.passwordTooShort")
	}
	return errs
}

type intBound struct {
	field    string
	value    int
	min, max int
}

// ValidateSettings checks the admin settings form. Field names follow the
// JSON paths, e.g. "security.maxLoginAttempts".
func ValidateSettings(s config.Settings) Errors {
	errs := Errors{}
	if strings.TrimSpace(s.Site.Name) == "" {
		errs.Add("site.name", "validation.settings.required")
	}
	if !httpURL(s.Site.URL) {
		errs.Add("site.url", "validation.settings.urlInvalid")
	}
	validateEmail(errs, "site.adminEmail", s.Site.AdminEmail)
	validateEmail(errs, "site.supportEmail", s.Site.SupportEmail)
	if strings.TrimSpace(s.Email.SMTPHost) == "" {
		errs.Add("email.smtpHost", "validation.settings.required")
	}
	for _, b := range []intBound{
		{"security.sessionTimeoutMinutes", s.Security.SessionTimeoutMinutes, 5, 24 * 60},
		{"security.maxLoginAttempts", s.Security.MaxLoginAttempts, 1, 100},
		{"security.passwordMinLength", s.Security.PasswordMinLength, MinLoginPasswordLength, 128},
		{"email.smtpPort", s.Email.SMTPPort, 1, 65535},
		{"api.rateLimit", s.API.RateLimit, 1, 100_000},
		{"api.timeoutSeconds", s.API.TimeoutSeconds, 1, 300},
	} {
		if b.value < b.min || b.value > b.max {
			errs.Add(b.field, "validation.settings.outOfRange")
		}
	}
	webhook := strings.TrimSpace(s.Notifications.SlackWebhook)
	switch {
	case s.Notifications.Slack && webhook == "":
		errs.Add("notifications.slackWebhook", "validation.settings.webhookRequired")
	case webhook != "" && !httpURL(webhook):
		errs.Add("notifications.slackWebhook", "validation.settings.urlInvalid")
	}
	return errs
}

func httpURL(raw string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

var avatarDataURL = regexp.MustCompile(`^data:image/(png|jpeg|gif|webp);base64,[A-Za-z0-9+/]+={0,2}$`)

// ValidateAvatar accepts an image data URL or an http(s) link.
func ValidateAvatar(avatar string) Errors {
	errs := Errors{}
	avatar = strings.TrimSpace(avatar)
	switch {
	case avatar == "":
		errs.Add("avatar", "validation.avatarRequired")
	case len(avatar) > records.MaxAvatarSize:
		errs.Add("avatar", "validation.avatarTooLarge")
	case !avatarDataURL.MatchString(avatar) && !httpURL(avatar):
		errs.Add("avatar", "validation.avatarInvalid")
	}
	return errs
}
