package unit

import (
	"context"
	"strings"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

func containsAll(text string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(text, p) {
			return false
		}
	}
	return true
}

// MockRecordRepo
type MockRecordRepo struct {
	mock.Mock
}

func (m *MockRecordRepo) Append(ctx context.Context, rec *domain.Record) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}
func (m *MockRecordRepo) FindLatestByUser(ctx context.Context, userID int64) (*domain.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}
func (m *MockRecordRepo) FindByAssignedCode(ctx context.Context, code string) (*domain.Record, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}
func (m *MockRecordRepo) UpdateFields(ctx context.Context, recordID string, upd repository.RecordUpdate) (bool, error) {
	args := m.Called(ctx, recordID, upd)
	return args.Bool(0), args.Error(1)
}
func (m *MockRecordRepo) ListAll(ctx context.Context) ([]domain.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendText(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}
func (m *MockNotifier) SendMenu(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}
func (m *MockNotifier) SendMedia(ctx context.Context, chatID int64, fileID string) error {
	args := m.Called(ctx, chatID, fileID)
	return args.Error(0)
}
func (m *MockNotifier) SendReviewRequest(ctx context.Context, reviewerID int64, rec *domain.Record) error {
	args := m.Called(ctx, reviewerID, rec)
	return args.Error(0)
}

// MockReferrals
type MockReferrals struct {
	mock.Mock
}

func (m *MockReferrals) Mint(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *MockReferrals) Validate(ctx context.Context, code string) (*domain.Record, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}
func (m *MockReferrals) ListReferrals(ctx context.Context, code string) ([]domain.Record, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

// MockReminders
type MockReminders struct {
	mock.Mock
}

func (m *MockReminders) Arm(recordID string, userID int64) {
	m.Called(recordID, userID)
}
func (m *MockReminders) Disarm(recordID string) {
	m.Called(recordID)
}
