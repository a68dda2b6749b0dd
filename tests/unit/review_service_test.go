package unit

import (
	"context"
	"testing"
	"time"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/repository"
	"montos-inversion-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReview(repo *MockRecordRepo, refs *MockReferrals, notif *MockNotifier, rem *MockReminders) service.ReviewService {
	return service.NewReviewService(repo, refs, notif, rem, []int64{99})
}

func pendingRecord() domain.Record {
	return domain.Record{
		RecordID:           "rec-1",
		UserID:             7,
		Name:               "Ana",
		Amount:             300000,
		Status:             domain.RecordStatusProofSubmitted,
		ExpectedPayoutDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestReviewService_ApproveAssignsCode(t *testing.T) {
	mockRepo := new(MockRecordRepo)
	mockRefs := new(MockReferrals)
	mockNotif := new(MockNotifier)
	mockRem := new(MockReminders)
	svc := newReview(mockRepo, mockRefs, mockNotif, mockRem)
	ctx := context.Background()

	rec := pendingRecord()
	mockRepo.On("ListAll", ctx).Return([]domain.Record{rec}, nil)
	mockRefs.On("Mint", ctx).Return("1234", nil)
	mockRepo.On("UpdateFields", ctx, "rec-1", mock.MatchedBy(func(upd repository.RecordUpdate) bool {
		return upd.Status != nil && *upd.Status == domain.RecordStatusApproved &&
			upd.AssignedCode != nil && *upd.AssignedCode == "1234" &&
			upd.ReviewerNote != nil
	})).Return(true, nil)
	mockRem.On("Disarm", "rec-1").Return()
	mockNotif.On("SendText", ctx, int64(7), mock.MatchedBy(func(text string) bool {
		return containsAll(text, "INV-1234", "300.000", "570.000")
	})).Return(nil)
	mockNotif.On("SendMenu", ctx, int64(7), mock.Anything).Return(nil)
	mockNotif.On("SendText", ctx, int64(99), mock.Anything).Return(nil)

	err := svc.Approve(ctx, 99, "rec-1")
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRefs.AssertExpectations(t)
	mockRem.AssertExpectations(t)
	mockNotif.AssertExpectations(t)
}

func TestReviewService_ApproveIdempotent(t *testing.T) {
	mockRepo := new(MockRecordRepo)
	mockRefs := new(MockReferrals)
	mockNotif := new(MockNotifier)
	mockRem := new(MockReminders)
	svc := newReview(mockRepo, mockRefs, mockNotif, mockRem)
	ctx := context.Background()

	rec := pendingRecord()
	rec.Status = domain.RecordStatusApproved
	rec.AssignedCode = "5678"
	mockRepo.On("ListAll", ctx).Return([]domain.Record{rec}, nil)
	mockNotif.On("SendText", ctx, int64(99), mock.MatchedBy(func(text string) bool {
		return containsAll(text, "INV-5678")
	})).Return(nil)

	err := svc.Approve(ctx, 99, "rec-1")
	require.NoError(t, err)

	// The original code stands: no new mint, no second write.
	mockRefs.AssertNotCalled(t, "Mint", mock.Anything)
	mockRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_UnauthorizedReviewer(t *testing.T) {
	mockRepo := new(MockRecordRepo)
	svc := newReview(mockRepo, new(MockReferrals), new(MockNotifier), new(MockReminders))
	ctx := context.Background()

	err := svc.Approve(ctx, 12345, "rec-1")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	err = svc.BeginRejection(ctx, 12345, "rec-1")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	// No record existence is leaked to strangers.
	mockRepo.AssertNotCalled(t, "ListAll", mock.Anything)
}

func TestReviewService_RejectTwoPhase(t *testing.T) {
	mockRepo := new(MockRecordRepo)
	mockNotif := new(MockNotifier)
	mockRem := new(MockReminders)
	svc := newReview(mockRepo, new(MockReferrals), mockNotif, mockRem)
	ctx := context.Background()

	rec := pendingRecord()
	mockRepo.On("ListAll", ctx).Return([]domain.Record{rec}, nil)
	mockNotif.On("SendText", ctx, int64(99), mock.Anything).Return(nil)

	err := svc.BeginRejection(ctx, 99, "rec-1")
	require.NoError(t, err)

	mockRepo.On("UpdateFields", ctx, "rec-1", mock.MatchedBy(func(upd repository.RecordUpdate) bool {
		return upd.Status != nil && *upd.Status == domain.RecordStatusRejected &&
			upd.ReviewerNote != nil && *upd.ReviewerNote == "Pago incompleto"
	})).Return(true, nil)
	mockRem.On("Disarm", "rec-1").Return()
	mockNotif.On("SendText", ctx, int64(7), mock.MatchedBy(func(text string) bool {
		return containsAll(text, "rechazado", "Pago incompleto")
	})).Return(nil)

	handled, err := svc.SubmitRejectionReason(ctx, 99, "Pago incompleto")
	require.NoError(t, err)
	assert.True(t, handled)
	mockRepo.AssertExpectations(t)
	mockRem.AssertExpectations(t)

	// The pending state was consumed: later text passes through.
	handled, err = svc.SubmitRejectionReason(ctx, 99, "otra cosa")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestReviewService_RejectEmptyReasonReprompts(t *testing.T) {
	mockRepo := new(MockRecordRepo)
	mockNotif := new(MockNotifier)
	svc := newReview(mockRepo, new(MockReferrals), mockNotif, new(MockReminders))
	ctx := context.Background()

	mockNotif.On("SendText", ctx, int64(99), mock.Anything).Return(nil)
	err := svc.BeginRejection(ctx, 99, "rec-1")
	require.NoError(t, err)

	handled, err := svc.SubmitRejectionReason(ctx, 99, "   ")
	require.NoError(t, err)
	assert.True(t, handled)

	// Still awaiting a reason, and nothing was written.
	mockRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_PassThroughWhenNotRejecting(t *testing.T) {
	svc := newReview(new(MockRecordRepo), new(MockReferrals), new(MockNotifier), new(MockReminders))
	ctx := context.Background()

	handled, err := svc.SubmitRejectionReason(ctx, 99, "hola")
	require.NoError(t, err)
	assert.False(t, handled)
}
