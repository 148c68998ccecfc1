package config

// Settings is the platform configuration admins edit at runtime. It is kept
// as JSON at Config.SettingsPath.
type Settings struct {
	Site          SiteSettings         `json:"site"`
	Security      SecuritySettings     `json:"security"`
	Email         EmailSettings        `json:"email"`
	API           APISettings          `json:"api"`
	Notifications NotificationSettings `json:"notifications"`
}

type SiteSettings struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	AdminEmail   string `json:"adminEmail"`
	SupportEmail string `json:"supportEmail"`
}

type SecuritySettings struct {
	SessionTimeoutMinutes int  `json:"sessionTimeoutMinutes"`
	MaxLoginAttempts      int  `json:"maxLoginAttempts"`
	PasswordMinLength     int  `json:"passwordMinLength"`
	RequireTwoFactor      bool `json:"requireTwoFactor"`
}

// EmailSettings configures SMTP delivery. SMTPPassword is write-only over the
// API.
type EmailSettings struct {
	SMTPHost     string `json:"smtpHost"`
	SMTPPort     int    `json:"smtpPort"`
	SMTPUser     string `json:"smtpUser"`
	SMTPPassword string `json:"smtpPassword,omitempty"`
	FromName     string `json:"fromName"`
}

type APISettings struct {
	RateLimit      int  `json:"rateLimit"`
	TimeoutSeconds int  `json:"timeoutSeconds"`
	EnableLogging  bool `json:"enableLogging"`
}

type NotificationSettings struct {
	Email        bool   `json:"email"`
	Slack        bool   `json:"slack"`
	SlackWebhook string `json:"slackWebhook,omitempty"`
}

// DefaultSettings is served until an admin saves the first settings file.
func DefaultSettings() Settings {
	return Settings{
		Site: SiteSettings{
			Name:         "ICS Security Platform",
			URL:          "https://ics-security.com",
			AdminEmail:   "admin@ics-security.com",
			SupportEmail: "support@ics-security.com",
		},
		Security: SecuritySettings{
			SessionTimeoutMinutes: 30,
			MaxLoginAttempts:      5,
			PasswordMinLength:     8,
		},
		Email: EmailSettings{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 587,
			FromName: "ICS Security",
		},
		API: APISettings{
			RateLimit:      1000,
			TimeoutSeconds: 30,
			EnableLogging:  true,
		},
		Notifications: NotificationSettings{Email: true},
	}
}

// Redacted drops secrets before settings leave the server.
func (s Settings) Redacted() Settings {
	s.Email.SMTPPassword = ""
	return s
}

// HasSMTPPassword reports whether a password is stored.
func (s Settings) HasSMTPPassword() bool {
	return s.Email.SMTPPassword != ""
}
