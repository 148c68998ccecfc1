package backend

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"secdash/internal/records"
)

// MockClient is a testify mock implementing Client.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CheckConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(LoginResult), args.Error(1)
}

func (m *MockClient) ForgotPassword(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockClient) ResetPassword(ctx context.Context, resetToken, password string) error {
	args := m.Called(ctx, resetToken, password)
	return args.Error(0)
}

func (m *MockClient) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	args := m.Called(ctx, token, currentPassword, newPassword)
	return args.Error(0)
}

func (m *MockClient) Profile(ctx context.Context, token string) (records.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(records.User), args.Error(1)
}

func (m *MockClient) UploadAvatar(ctx context.Context, token string, input AvatarInput) (records.User, error) {
	args := m.Called(ctx, token, input)
	return args.Get(0).(records.User), args.Error(1)
}

func (m *MockClient) ListUsers(ctx context.Context, token string, filter UserFilter) ([]records.User, error) {
	args := m.Called(ctx, token, filter)
	if list, ok := args.Get(0).([]records.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) GetUser(ctx context.Context, token, id string) (records.User, error) {
	args := m.Called(ctx, token, id)
	return args.Get(0).(records.User), args.Error(1)
}

func (m *MockClient) CreateUser(ctx context.Context, token string, input UserInput) (records.User, error) {
	args := m.Called(ctx, token, input)
	return args.Get(0).(records.User), args.Error(1)
}

func (m *MockClient) UpdateUser(ctx context.Context, token, id string, input UserInput) (records.User, error) {
	args := m.Called(ctx, token, id, input)
	return args.Get(0).(records.User), args.Error(1)
}

func (m *MockClient) DeleteUser(ctx context.Context, token, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *MockClient) ListRecords(ctx context.Context, token, service string) (RecordSet, error) {
	args := m.Called(ctx, token, service)
	return args.Get(0).(RecordSet), args.Error(1)
}

func (m *MockClient) Upload(ctx context.Context, token, service, filename string, content io.Reader) (UploadResult, error) {
	args := m.Called(ctx, token, service, filename, content)
	return args.Get(0).(UploadResult), args.Error(1)
}

func (m *MockClient) InvalidateCache() {
	m.Called()
}

func (m *MockClient) Shutdown() {
	m.Called()
}
