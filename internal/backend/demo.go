package backend

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"secdash/internal/browser"
	apperrors "secdash/internal/errors"
	"secdash/internal/records"
)

// DemoCredential seeds a demo account password.
type DemoCredential struct {
	Email    string
	Password string
}

// DefaultDemoCredentials are the sign-ins accepted by the demo backend.
var DefaultDemoCredentials = []DemoCredential{
	{Email: "admin@ics.com", Password: "admin123"},
	{Email: "user@ics.com", Password: "user123"},
}

type demoClient struct {
	mu        sync.RWMutex
	users     map[string]records.User
	passwords map[string][]byte
	tokens    map[string]string
	sequence  int
	recordSet map[string]RecordSet
	now       func() time.Time
}

// NewDemoClient returns an in-memory backend seeded with demo data. It is
// used when no backend URL is configured.
func NewDemoClient(credentials []DemoCredential) (Client, error) {
	c := &demoClient{
		users:     make(map[string]records.User),
		passwords: make(map[string][]byte),
		tokens:    make(map[string]string),
		recordSet: map[string]RecordSet{
			records.ServiceAppTotalGo:          {Service: records.ServiceAppTotalGo, Scans: records.DemoScans()},
			records.ServiceAPKProtect:          {Service: records.ServiceAPKProtect, Protections: records.DemoAPKProtections()},
			records.ServiceIOSProtect:          {Service: records.ServiceIOSProtect, Protections: records.DemoIOSProtections()},
			records.ServiceCompatibility:       {Service: records.ServiceCompatibility, Compatibility: records.DemoCompatibility()},
			records.ServiceSourceCodeAnalysis:  {Service: records.ServiceSourceCodeAnalysis, Analyses: records.DemoAnalyses()},
			records.ServiceMalwareIntelligence: {Service: records.ServiceMalwareIntelligence},
		},
		now: time.Now,
	}
	for _, user := range records.DemoUsers() {
		c.users[user.ID] = user
	}
	for _, cred := range credentials {
		user, ok := c.findByEmail(cred.Email)
		if !ok {
			return nil, fmt.Errorf("demo credential %s: %w", cred.Email, apperrors.ErrUserNotFound)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}
		c.passwords[user.ID] = hash
	}
	return c, nil
}

func (c *demoClient) findByEmail(email string) (records.User, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range c.users {
		if strings.ToLower(user.Email) == email {
			return user, true
		}
	}
	return records.User{}, false
}

func (c *demoClient) userForToken(token string) (records.User, error) {
	id, ok := c.tokens[token]
	if !ok {
		return records.User{}, &Error{Op: "authorize", Status: 401, Message: "invalid token", err: apperrors.ErrUnauthorized}
	}
	user, ok := c.users[id]
	if !ok {
		return records.User{}, &Error{Op: "authorize", Status: 401, Message: "invalid token", err: apperrors.ErrUnauthorized}
	}
	return user, nil
}

func (c *demoClient) requireAdmin(token string) error {
	user, err := c.userForToken(token)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return newError("authorize", 403, "admin role required")
	}
	return nil
}

func (c *demoClient) CheckConnection(ctx context.Context) error {
	return ctx.Err()
}

func (c *demoClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if err := ctx.Err(); err != nil {
		return LoginResult{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.findByEmail(email)
	if !ok {
		return LoginResult{}, newError("login", 401, "Invalid email or password")
	}
	hash, ok := c.passwords[user.ID]
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return LoginResult{}, newError("login", 401, "Invalid email or password")
	}
	now := c.now().UTC()
	raw := user.ID + ":" + strconv.FormatInt(now.UnixMilli(), 10) + ":" + uuid.NewString()
	token := base64.StdEncoding.EncodeToString([]byte(raw))
	c.tokens[token] = user.ID
	user.LastLogin = &now
	c.users[user.ID] = user
	return LoginResult{Token: token, User: user}, nil
}

func (c *demoClient) ForgotPassword(ctx context.Context, email string) error {
	return ctx.Err()
}

func (c *demoClient) ResetPassword(ctx context.Context, resetToken, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(resetToken) == "" {
		return newError("reset password", 400, "Invalid or expired token")
	}
	return nil
}

func (c *demoClient) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	user, err := c.userForToken(token)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword(c.passwords[user.ID], []byte(currentPassword)) != nil {
		return newError("change password", 400, "Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	c.passwords[user.ID] = hash
	return nil
}

func (c *demoClient) Profile(ctx context.Context, token string) (records.User, error) {
	if err := ctx.Err(); err != nil {
		return records.User{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userForToken(token)
}

func (c *demoClient) UploadAvatar(ctx context.Context, token string, input AvatarInput) (records.User, error) {
	if err := ctx.Err(); err != nil {
		return records.User{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	user, err := c.userForToken(token)
	if err != nil {
		return records.User{}, err
	}
	user.Avatar = input.Avatar
	user.UpdatedAt = c.now().UTC()
	c.users[user.ID] = user
	return user, nil
}

func (c *demoClient) ListUsers(ctx context.Context, token string, filter UserFilter) ([]records.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.requireAdmin(token); err != nil {
		return nil, err
	}
	users := make([]records.User, 0, len(c.users))
	for _, user := range c.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) || (users[i].CreatedAt.Equal(users[j].CreatedAt) && users[i].ID < users[j].ID) })
	role := filter.Role
	if role == "" {
		role = browser.StatusAll
	}
	return records.UserPipeline.Filter(users, filter.Search, role), nil
}

func (c *demoClient) GetUser(ctx context.Context, token, id string) (records.User, error) {
	if err := ctx.Err(); err != nil {
		return records.User{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.requireAdmin(token); err != nil {
		return records.User{}, err
	}
	user, ok := c.users[id]
	if !ok {
		return records.User{}, newError("get user", 404, "User not found")
	}
	return user, nil
}

func (c *demoClient) CreateUser(ctx context.Context, token string, input UserInput) (records.User, error) {
	if err := ctx.Err(); err != nil {
		return records.User{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireAdmin(token); err != nil {
		return records.User{}, err
	}
	if _, exists := c.findByEmail(input.Email); exists {
		return records.User{}, newError("create user", 409, "Email already exists")
	}
	c.sequence++
	now := c.now().UTC()
	user := records.User{
		ID:           fmt.Sprintf("u%03d", 100+c.sequence),
		Email:        strings.TrimSpace(input.Email),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         input.Role,
		CompanyName:  input.CompanyName,
		AndroidTimes: input.AndroidTimes,
		IOSTimes:     input.IOSTimes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.users[user.ID] = user
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return records.User{}, fmt.Errorf("hash password: %w", err)
		}
		c.passwords[user.ID] = hash
	}
	return user, nil
}

func (c *demoClient) UpdateUser(ctx context.Context, token, id string, input UserInput) (records.User, error) {
	if err := ctx.Err(); err != nil {
		return records.User{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireAdmin(token); err != nil {
		return records.User{}, err
	}
	user, ok := c.users[id]
	if !ok {
		return records.User{}, newError("update user", 404, "User not found")
	}
	if other, exists := c.findByEmail(input.Email); exists && other.ID != id {
		return records.User{}, newError("update user", 409, "Email already exists")
	}
	user.Email = strings.TrimSpace(input.Email)
	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Role = input.Role
	user.CompanyName = input.CompanyName
	user.AndroidTimes = input.AndroidTimes
	user.IOSTimes = input.IOSTimes
	user.UpdatedAt = c.now().UTC()
	c.users[id] = user
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return records.User{}, fmt.Errorf("hash password: %w", err)
		}
		c.passwords[id] = hash
	}
	return user, nil
}

func (c *demoClient) DeleteUser(ctx context.Context, token, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireAdmin(token); err != nil {
		return err
	}
	if _, ok := c.users[id]; !ok {
		return newError("delete user", 404, "User not found")
	}
	delete(c.users, id)
	delete(c.passwords, id)
	for token, owner := range c.tokens {
		if owner == id {
			delete(c.tokens, token)
		}
	}
	return nil
}

func (c *demoClient) ListRecords(ctx context.Context, token, service string) (RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return RecordSet{}, err
	}
	svc, err := lookupService(service)
	if err != nil {
		return RecordSet{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.requireAdmin(token); err != nil {
		return RecordSet{}, err
	}
	return c.recordSet[svc.ID], nil
}

func (c *demoClient) Upload(ctx context.Context, token, service, filename string, content io.Reader) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, err
	}
	if _, err := lookupService(service); err != nil {
		return UploadResult{}, err
	}
	c.mu.RLock()
	_, err := c.userForToken(token)
	c.mu.RUnlock()
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := io.Copy(io.Discard, content); err != nil {
		return UploadResult{}, fmt.Errorf("read upload: %w", err)
	}
	return UploadResult{ID: uuid.NewString(), Filename: filename, Status: records.StatusProcessing}, nil
}

func (c *demoClient) InvalidateCache() {}

func (c *demoClient) Shutdown() {}
