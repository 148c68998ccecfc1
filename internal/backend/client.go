// Package backend talks to the security-services REST backend.
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"

	apperrors "secdash/internal/errors"
	"secdash/internal/records"
)

// Client defines the operations the dashboard needs from the backend.
// Every authenticated call takes the caller's bearer token.
type Client interface {
	CheckConnection(ctx context.Context) error
	Login(ctx context.Context, email, password string) (LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, password string) error
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error
	Profile(ctx context.Context, token string) (records.User, error)
	UploadAvatar(ctx context.Context, token string, input AvatarInput) (records.User, error)
	ListUsers(ctx context.Context, token string, filter UserFilter) ([]records.User, error)
	GetUser(ctx context.Context, token, id string) (records.User, error)
	CreateUser(ctx context.Context, token string, input UserInput) (records.User, error)
	UpdateUser(ctx context.Context, token, id string, input UserInput) (records.User, error)
	DeleteUser(ctx context.Context, token, id string) error
	ListRecords(ctx context.Context, token, service string) (RecordSet, error)
	Upload(ctx context.Context, token, service, filename string, content io.Reader) (UploadResult, error)
	InvalidateCache()
	Shutdown()
}

// LoginResult is the backend answer to a successful sign-in.
type LoginResult struct {
	Token string       `json:"token"`
	User  records.User `json:"user"`
}

// AvatarInput replaces the caller's profile picture. Avatar is an image data
// URL or an http(s) link.
type AvatarInput struct {
	Avatar string `json:"avatar"`
}

// UserFilter narrows ListUsers. Empty fields do not filter.
type UserFilter struct {
	Role   string
	Search string
}

// UserInput is the payload for creating or updating an account. An empty
// password on update keeps the current one.
type UserInput struct {
	Email        string       `json:"email"`
	Password     string       `json:"password,omitempty"`
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	Role         records.Role `json:"role"`
	CompanyName  string       `json:"companyName,omitempty"`
	AndroidTimes int          `json:"androidTimes"`
	IOSTimes     int          `json:"iosTimes"`
}

// RecordSet carries the records of one service. Only the slice matching the
// service kind is populated.
type RecordSet struct {
	Service       string                        `json:"service"`
	Scans         []records.ScanRecord          `json:"scans,omitempty"`
	Protections   []records.ProtectionRecord    `json:"protections,omitempty"`
	Compatibility []records.CompatibilityRecord `json:"compatibility,omitempty"`
	Analyses      []records.AnalysisRecord      `json:"analyses,omitempty"`
}

// Len counts the records in the set.
func (s RecordSet) Len() int {
	return len(s.Scans) + len(s.Protections) + len(s.Compatibility) + len(s.Analyses)
}

// FinishedStatuses maps the ID of every record that reached a terminal
// status to that status.
func (s RecordSet) FinishedStatuses() map[string]records.Status {
	out := make(map[string]records.Status)
	add := func(id string, status records.Status) {
		if id != "" && status.Terminal() {
			out[id] = status
		}
	}
	for _, r := range s.Scans {
		add(r.ID, r.Status)
	}
	for _, r := range s.Protections {
		add(r.ID, r.Status)
	}
	for _, r := range s.Compatibility {
		add(r.ID, r.Status)
	}
	for _, r := range s.Analyses {
		add(r.ID, r.Status)
	}
	return out
}

// UploadResult is returned once the backend accepted a file.
type UploadResult struct {
	ID       string         `json:"id"`
	Filename string         `json:"filename"`
	Status   records.Status `json:"status"`
	Version  string         `json:"version,omitempty"`
}

// Error is a non-2xx backend response. Message carries the backend's
// "message" field when present.
type Error struct {
	Op      string
	Status  int
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(op string, status int, message string) *Error {
	e := &Error{Op: op, Status: status, Message: message}
	switch status {
	case http.StatusUnauthorized:
		if op == "login" {
			e.err = apperrors.ErrInvalidCredentials
		} else {
			e.err = apperrors.ErrUnauthorized
		}
	case http.StatusForbidden:
		e.err = apperrors.ErrForbidden
	case http.StatusNotFound:
		e.err = notFoundError(op)
	default:
		if status >= http.StatusInternalServerError {
			e.err = apperrors.ErrBackendUnavailable
		}
	}
	return e
}

// notFoundError names what a 404 from op means.
func notFoundError(op string) error {
	switch op {
	case "profile", "upload avatar", "get user", "update user", "delete user":
		return apperrors.ErrUserNotFound
	case "list records", "upload":
		return apperrors.ErrUnknownService
	default:
		return apperrors.ErrNotFound
	}
}

func lookupService(service string) (records.Service, error) {
	svc, ok := records.LookupService(service)
	if !ok {
		return records.Service{}, fmt.Errorf("%q: %w", service, apperrors.ErrUnknownService)
	}
	return svc, nil
}
