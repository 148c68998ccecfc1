package backend

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"secdash/internal/cache"
	"secdash/internal/logger"
	"secdash/internal/records"
)

const (
	defaultTimeout  = 30 * time.Second
	uploadTimeout   = 30 * time.Minute
	usersCachePart  = "users|"
	recordCachePart = "records|"
)

// HTTPConfig configures the REST client.
type HTTPConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type httpClient struct {
	http   *resty.Client
	upload *resty.Client
	cache  *cache.Cache[any]
	cancel context.CancelFunc
}

type messageBody struct {
	Message string `json:"message"`
}

// NewHTTPClient returns a client for the backend at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend url is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &httpClient{
		http:   resty.New().SetBaseURL(base).SetTimeout(timeout).SetHeader("Accept", "application/json"),
		upload: resty.New().SetBaseURL(base).SetTimeout(uploadTimeout).SetHeader("Accept", "application/json"),
		cache:  cache.New[any](cfg.CacheTTL),
		cancel: cancel,
	}
	c.cache.StartJanitor(ctx, time.Minute)
	return c, nil
}

func (c *httpClient) request(ctx context.Context, token string) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&messageBody{})
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// check turns transport failures and non-2xx responses into errors.
func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		logger.BackendEvent(op, 0, err).Msg("backend request failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		message := ""
		if body, ok := resp.Error().(*messageBody); ok && body != nil {
			message = body.Message
		}
		backendErr := newError(op, resp.StatusCode(), message)
		logger.BackendEvent(op, resp.StatusCode(), backendErr).Msg("backend returned an error")
		return backendErr
	}
	logger.BackendEvent(op, resp.StatusCode(), nil).Msg("backend request completed")
	return nil
}

func (c *httpClient) CheckConnection(ctx context.Context) error {
	resp, err := c.request(ctx, "").Get("/health")
	return check("health", resp, err)
}

func (c *httpClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var result LoginResult
	resp, err := c.request(ctx, "").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&result).
		Post("/auth/login")
	if err := check("login", resp, err); err != nil {
		return LoginResult{}, err
	}
	return result, nil
}

func (c *httpClient) ForgotPassword(ctx context.Context, email string) error {
	resp, err := c.request(ctx, "").
		SetBody(map[string]string{"email": email}).
		Post("/auth/forgot-password")
	return check("forgot password", resp, err)
}

func (c *httpClient) ResetPassword(ctx context.Context, resetToken, password string) error {
	resp, err := c.request(ctx, "").
		SetBody(map[string]string{"token": resetToken, "password": password}).
		Post("/auth/reset-password")
	return check("reset password", resp, err)
}

func (c *httpClient) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	resp, err := c.request(ctx, token).
		SetBody(map[string]string{"currentPassword": currentPassword, "newPassword": newPassword}).
		Post("/auth/change-password")
	return check("change password", resp, err)
}

func (c *httpClient) Profile(ctx context.Context, token string) (records.User, error) {
	var user records.User
	resp, err := c.request(ctx, token).SetResult(&user).Get("/users/profile/me")
	if err := check("profile", resp, err); err != nil {
		return records.User{}, err
	}
	return user, nil
}

func (c *httpClient) UploadAvatar(ctx context.Context, token string, input AvatarInput) (records.User, error) {
	var user records.User
	resp, err := c.request(ctx, token).SetBody(input).SetResult(&user).Post("/users/upload-avatar")
	if err := check("upload avatar", resp, err); err != nil {
		return records.User{}, err
	}
	c.cache.InvalidatePrefix(usersCachePart)
	return user, nil
}

func (c *httpClient) ListUsers(ctx context.Context, token string, filter UserFilter) ([]records.User, error) {
	key := usersCachePart + token + "|" + filter.Role + "|" + filter.Search
	if cached, ok := c.cache.Get(key); ok {
		if users, ok := cached.([]records.User); ok {
			return users, nil
		}
	}
	query := map[string]string{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Search != "" {
		query["search"] = filter.Search
	}
	users := []records.User{}
	resp, err := c.request(ctx, token).SetQueryParams(query).SetResult(&users).Get("/users")
	if err := check("list users", resp, err); err != nil {
		return nil, err
	}
	c.cache.Set(key, users)
	return users, nil
}

func (c *httpClient) GetUser(ctx context.Context, token, id string) (records.User, error) {
	var user records.User
	resp, err := c.request(ctx, token).SetPathParam("id", id).SetResult(&user).Get("/users/{id}")
	if err := check("get user", resp, err); err != nil {
		return records.User{}, err
	}
	return user, nil
}

func (c *httpClient) CreateUser(ctx context.Context, token string, input UserInput) (records.User, error) {
	var user records.User
	resp, err := c.request(ctx, token).SetBody(input).SetResult(&user).Post("/users")
	if err := check("create user", resp, err); err != nil {
		return records.User{}, err
	}
	c.cache.InvalidatePrefix(usersCachePart)
	return user, nil
}

func (c *httpClient) UpdateUser(ctx context.Context, token, id string, input UserInput) (records.User, error) {
	var user records.User
	resp, err := c.request(ctx, token).SetPathParam("id", id).SetBody(input).SetResult(&user).Put("/users/{id}")
	if err := check("update user", resp, err); err != nil {
		return records.User{}, err
	}
	c.cache.InvalidatePrefix(usersCachePart)
	return user, nil
}

func (c *httpClient) DeleteUser(ctx context.Context, token, id string) error {
	resp, err := c.request(ctx, token).SetPathParam("id", id).Delete("/users/{id}")
	if err := check("delete user", resp, err); err != nil {
		return err
	}
	c.cache.InvalidatePrefix(usersCachePart)
	return nil
}

func (c *httpClient) ListRecords(ctx context.Context, token, service string) (RecordSet, error) {
	svc, err := lookupService(service)
	if err != nil {
		return RecordSet{}, err
	}
	key := recordCachePart + token + "|" + svc.ID
	if cached, ok := c.cache.Get(key); ok {
		if set, ok := cached.(RecordSet); ok {
			return set, nil
		}
	}

	set := RecordSet{Service: svc.ID}
	req := c.request(ctx, token).SetPathParam("service", svc.ID)
	switch svc.Kind {
	case records.KindScan:
		set.Scans = []records.ScanRecord{}
		req.SetResult(&set.Scans)
	case records.KindProtection:
		set.Protections = []records.ProtectionRecord{}
		req.SetResult(&set.Protections)
	case records.KindCompatibility:
		set.Compatibility = []records.CompatibilityRecord{}
		req.SetResult(&set.Compatibility)
	case records.KindAnalysis:
		set.Analyses = []records.AnalysisRecord{}
		req.SetResult(&set.Analyses)
	default:
		return set, nil
	}
	resp, err := req.Get("/{service}/records")
	if err := check("list records", resp, err); err != nil {
		return RecordSet{}, err
	}
	c.cache.Set(key, set)
	return set, nil
}

func (c *httpClient) Upload(ctx context.Context, token, service, filename string, content io.Reader) (UploadResult, error) {
	svc, err := lookupService(service)
	if err != nil {
		return UploadResult{}, err
	}
	var result UploadResult
	req := c.upload.R().SetContext(ctx).SetError(&messageBody{}).
		SetPathParam("service", svc.ID).
		SetFileReader("file", filename, content).
		SetResult(&result)
	if token != "" {
		req.SetAuthToken(token)
	}
	resp, err := req.Post("/{service}/upload")
	if err := check("upload", resp, err); err != nil {
		return UploadResult{}, err
	}
	if result.Filename == "" {
		result.Filename = filename
	}
	if result.Status == "" {
		result.Status = records.StatusProcessing
	}
	c.cache.InvalidatePrefix(recordCachePart)
	return result, nil
}

func (c *httpClient) InvalidateCache() {
	c.cache.Clear()
}

func (c *httpClient) Shutdown() {
	c.cancel()
}
