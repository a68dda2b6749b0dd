package unit

import (
	"context"
	"sync"
	"testing"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/repository"
	"montos-inversion-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newIntake(repo *MockRecordRepo, refs *MockReferrals, notif *MockNotifier, rem *MockReminders) service.IntakeService {
	return service.NewIntakeService(repo, refs, notif, rem, []int64{99})
}

func TestIntakeService_StartPromptsForAmount(t *testing.T) {
	svc := newIntake(new(MockRecordRepo), new(MockReferrals), new(MockNotifier), new(MockReminders))
	ctx := context.Background()

	reply, err := svc.Start(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, service.KeyboardAmounts, reply.Keyboard)
	assert.Equal(t, service.MediaAmounts, reply.MediaKey)
	assert.Contains(t, reply.Texts[0], "Montos de inversión")
}

func TestIntakeService_AmountValidation(t *testing.T) {
	svc := newIntake(new(MockRecordRepo), new(MockReferrals), new(MockNotifier), new(MockReminders))
	ctx := context.Background()

	_, err := svc.Start(ctx, 7)
	require.NoError(t, err)

	t.Run("NotANumber", func(t *testing.T) {
		reply, err := svc.HandleText(ctx, 7, "doscientos")
		require.NoError(t, err)
		assert.Contains(t, reply.Texts[0], "monto válido")
	})

	t.Run("BelowMinimum", func(t *testing.T) {
		reply, err := svc.HandleText(ctx, 7, "150.000")
		require.NoError(t, err)
		assert.Contains(t, reply.Texts[0], "entre 200.000 y 500.000")
	})

	t.Run("AboveMaximum", func(t *testing.T) {
		reply, err := svc.HandleText(ctx, 7, "600.000")
		require.NoError(t, err)
		assert.Contains(t, reply.Texts[0], "entre 200.000 y 500.000")
	})

	t.Run("BoundaryAccepted", func(t *testing.T) {
		reply, err := svc.HandleText(ctx, 7, "200.000")
		require.NoError(t, err)
		assert.Equal(t, service.KeyboardYesNo, reply.Keyboard)
		assert.Contains(t, reply.Texts[0], "380.000")
	})
}

func TestIntakeService_FullRegistrationFlow(t *testing.T) {
	mockRepo := new(MockRecordRepo)
	mockRefs := new(MockReferrals)
	mockNotif := new(MockNotifier)
	mockRem := new(MockReminders)
	svc := newIntake(mockRepo, mockRefs, mockNotif, mockRem)
	ctx := context.Background()

	_, err := svc.Start(ctx, 7)
	require.NoError(t, err)

	reply, err := svc.HandleText(ctx, 7, "300.000")
	require.NoError(t, err)
	assert.Contains(t, reply.Texts[0], "570.000")

	reply, err = svc.HandleText(ctx, 7, "Sí")
	require.NoError(t, err)
	assert.Contains(t, reply.Texts[0], "referido")

	reply, err = svc.HandleText(ctx, 7, "No")
	require.NoError(t, err)
	assert.Contains(t, reply.Texts[0], "continuar con el registro")

	reply, err = svc.HandleText(ctx, 7, "Sí")
	require.NoError(t, err)
	assert.Contains(t, reply.Texts[0], "nombre completo")

	reply, err = svc.HandleText(ctx, 7, "Ana Pérez")
	require.NoError(t, err)
	assert.Contains(t, reply.Texts[0], "cédula")

	reply, err = svc.HandleText(ctx, 7, "12345678")
	require.NoError(t, err)
	assert.Equal(t, service.KeyboardYesNo, reply.Keyboard)
	assert.Contains(t, reply.Texts[0], "Ana Pérez")

	mockRepo.On("Append", ctx, mock.MatchedBy(func(rec *domain.Record) bool {
		return rec.UserID == 7 &&
			rec.Name == "Ana Pérez" &&
			rec.NationalID == "12345678" &&
			rec.Amount == 300000 &&
			rec.ReferralCode == domain.NoReferral &&
			rec.Status == domain.RecordStatusAwaitingProof &&
			rec.ExpectedPayoutDate.Equal(domain.PayoutDate(rec.CreatedAt))
	})).Return("rec-1", nil)

	reply, err = svc.HandleText(ctx, 7, "Sí")
	require.NoError(t, err)
	assert.Equal(t, service.MediaAccount, reply.MediaKey)
	assert.Contains(t, reply.Texts[0], "Registro inicial exitoso")
	mockRepo.AssertExpectations(t)

	// Proof arrives: row updated, reviewers notified, nudge armed.
	stored := domain.Record{
		RecordID: "rec-1", UserID: 7, Name: "Ana Pérez", NationalID: "12345678",
		Amount: 300000, ReferralCode: domain.NoReferral,
		Status: domain.RecordStatusProofSubmitted, ProofReference: "photo:abc",
	}
	mockRepo.On("UpdateFields", ctx, "rec-1", mock.MatchedBy(func(upd repository.RecordUpdate) bool {
		return upd.ProofReference != nil && *upd.ProofReference == "photo:abc" &&
			upd.Status != nil && *upd.Status == domain.RecordStatusProofSubmitted
	})).Return(true, nil)
	mockRepo.On("ListAll", ctx).Return([]domain.Record{stored}, nil)
	mockNotif.On("SendReviewRequest", ctx, int64(99), mock.Anything).Return(nil)
	mockRem.On("Arm", "rec-1", int64(7)).Return()

	reply, err = svc.HandleProof(ctx, 7, "photo:abc")
	require.NoError(t, err)
	assert.Equal(t, service.KeyboardMenu, reply.Keyboard)
	mockRepo.AssertExpectations(t)
	mockNotif.AssertExpectations(t)
	mockRem.AssertExpectations(t)
}

func TestIntakeService_ReferralCodeValidation(t *testing.T) {
	mockRefs := new(MockReferrals)
	svc := newIntake(new(MockRecordRepo), mockRefs, new(MockNotifier), new(MockReminders))
	ctx := context.Background()

	_, err := svc.Start(ctx, 7)
	require.NoError(t, err)
	_, err = svc.HandleText(ctx, 7, "250.000")
	require.NoError(t, err)
	_, err = svc.HandleText(ctx, 7, "Sí")
	require.NoError(t, err)

	t.Run("UnknownCode", func(t *testing.T) {
		mockRefs.On("Validate", ctx, "9999").Return(nil, repository.ErrNotFound)
		reply, err := svc.HandleText(ctx, 7, "9999")
		require.NoError(t, err)
		assert.Contains(t, reply.Texts[0], "Código no válido")
	})

	t.Run("ValidCode", func(t *testing.T) {
		mockRefs.On("Validate", ctx, "8888").Return(&domain.Record{Name: "Luis", AssignedCode: "8888"}, nil)
		reply, err := svc.HandleText(ctx, 7, "8888")
		require.NoError(t, err)
		assert.Contains(t, reply.Texts[0], "Luis")
	})
	mockRefs.AssertExpectations(t)
}

func TestIntakeService_DeclineEndsSession(t *testing.T) {
	svc := newIntake(new(MockRecordRepo), new(MockReferrals), new(MockNotifier), new(MockReminders))
	ctx := context.Background()

	_, err := svc.Start(ctx, 7)
	require.NoError(t, err)
	_, err = svc.HandleText(ctx, 7, "250.000")
	require.NoError(t, err)

	reply, err := svc.HandleText(ctx, 7, "No")
	require.NoError(t, err)
	assert.True(t, reply.End)
	assert.Equal(t, service.KeyboardRemove, reply.Keyboard)

	// Session gone: next text gets the restart prompt.
	reply, err = svc.HandleText(ctx, 7, "hola")
	require.NoError(t, err)
	assert.Contains(t, reply.Texts[0], "/start")
}

func TestIntakeService_ProofWithoutSession(t *testing.T) {
	ctx := context.Background()

	t.Run("NoRecords", func(t *testing.T) {
		mockRepo := new(MockRecordRepo)
		svc := newIntake(mockRepo, new(MockReferrals), new(MockNotifier), new(MockReminders))
		mockRepo.On("FindLatestByUser", ctx, int64(5)).Return(nil, repository.ErrNotFound)

		reply, err := svc.HandleProof(ctx, 5, "photo:x")
		require.NoError(t, err)
		assert.Contains(t, reply.Texts[0], "/start")
	})

	t.Run("AlreadyApproved", func(t *testing.T) {
		mockRepo := new(MockRecordRepo)
		svc := newIntake(mockRepo, new(MockReferrals), new(MockNotifier), new(MockReminders))
		mockRepo.On("FindLatestByUser", ctx, int64(5)).
			Return(&domain.Record{RecordID: "r1", Status: domain.RecordStatusApproved}, nil)

		reply, err := svc.HandleProof(ctx, 5, "photo:x")
		require.NoError(t, err)
		assert.Contains(t, reply.Texts[0], "ya fue aprobada")
		mockRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RejectedReopensSameRecord", func(t *testing.T) {
		mockRepo := new(MockRecordRepo)
		mockNotif := new(MockNotifier)
		mockRem := new(MockReminders)
		svc := newIntake(mockRepo, new(MockReferrals), mockNotif, mockRem)

		rejected := domain.Record{RecordID: "r9", UserID: 5, Name: "Ana", Status: domain.RecordStatusRejected}
		mockRepo.On("FindLatestByUser", ctx, int64(5)).Return(&rejected, nil)
		mockRepo.On("UpdateFields", ctx, "r9", mock.MatchedBy(func(upd repository.RecordUpdate) bool {
			// The reopened submission also resets the reminder marker.
			return upd.Status != nil && *upd.Status == domain.RecordStatusProofSubmitted &&
				upd.NudgedAt != nil && upd.NudgedAt.IsZero()
		})).Return(true, nil)
		resubmitted := rejected
		resubmitted.Status = domain.RecordStatusProofSubmitted
		resubmitted.ProofReference = "photo:y"
		mockRepo.On("ListAll", ctx).Return([]domain.Record{resubmitted}, nil)
		mockNotif.On("SendReviewRequest", ctx, int64(99), mock.Anything).Return(nil)
		mockRem.On("Arm", "r9", int64(5)).Return()

		reply, err := svc.HandleProof(ctx, 5, "photo:y")
		require.NoError(t, err)
		assert.Equal(t, service.KeyboardMenu, reply.Keyboard)
		mockRepo.AssertExpectations(t)
		mockRem.AssertExpectations(t)
	})
}

func TestIntakeService_MenuOptions(t *testing.T) {
	mockRepo := new(MockRecordRepo)
	mockRefs := new(MockReferrals)
	mockNotif := new(MockNotifier)
	mockRem := new(MockReminders)
	svc := newIntake(mockRepo, mockRefs, mockNotif, mockRem)
	ctx := context.Background()

	// Land in the menu via a sessionless proof submission.
	pending := domain.Record{RecordID: "r2", UserID: 8, Name: "Ana", Status: domain.RecordStatusRejected}
	mockRepo.On("FindLatestByUser", ctx, int64(8)).Return(&pending, nil)
	mockRepo.On("UpdateFields", ctx, "r2", mock.Anything).Return(true, nil)
	mockRepo.On("ListAll", ctx).Return([]domain.Record{pending}, nil)
	mockNotif.On("SendReviewRequest", ctx, int64(99), mock.Anything).Return(nil)
	mockRem.On("Arm", "r2", int64(8)).Return()
	_, err := svc.HandleProof(ctx, 8, "photo:z")
	require.NoError(t, err)

	t.Run("Support", func(t *testing.T) {
		reply, err := svc.HandleText(ctx, 8, "Soporte")
		require.NoError(t, err)
		assert.Contains(t, reply.Texts[0], "Soporte")
		assert.Equal(t, service.KeyboardMenu, reply.Keyboard)
	})

	t.Run("Hours", func(t *testing.T) {
		reply, err := svc.HandleText(ctx, 8, "Horarios de atención")
		require.NoError(t, err)
		assert.Contains(t, reply.Texts[0], "Horarios")
	})

	t.Run("UnknownOption", func(t *testing.T) {
		reply, err := svc.HandleText(ctx, 8, "qué?")
		require.NoError(t, err)
		assert.Contains(t, reply.Texts[0], "Elige una opción")
	})

	t.Run("Exit", func(t *testing.T) {
		reply, err := svc.HandleText(ctx, 8, "Salir")
		require.NoError(t, err)
		assert.True(t, reply.End)
	})
}

func TestIntakeService_MyReferrals(t *testing.T) {
	mockRepo := new(MockRecordRepo)
	mockRefs := new(MockReferrals)
	mockNotif := new(MockNotifier)
	mockRem := new(MockReminders)
	svc := newIntake(mockRepo, mockRefs, mockNotif, mockRem)
	ctx := context.Background()

	own := domain.Record{RecordID: "r3", UserID: 9, Name: "Ana", AssignedCode: "4321", Status: domain.RecordStatusRejected}
	mockRepo.On("FindLatestByUser", ctx, int64(9)).Return(&own, nil)
	mockRepo.On("UpdateFields", ctx, "r3", mock.Anything).Return(true, nil)
	mockRepo.On("ListAll", ctx).Return([]domain.Record{own}, nil)
	mockNotif.On("SendReviewRequest", ctx, int64(99), mock.Anything).Return(nil)
	mockRem.On("Arm", "r3", int64(9)).Return()
	_, err := svc.HandleProof(ctx, 9, "photo:w")
	require.NoError(t, err)

	mockRefs.On("ListReferrals", ctx, "4321").Return([]domain.Record{
		{Name: "Luis", NationalID: "111", Amount: 200000},
	}, nil)

	reply, err := svc.HandleText(ctx, 9, "Mis referidos")
	require.NoError(t, err)
	assert.Contains(t, reply.Texts[0], "Luis")
	assert.Contains(t, reply.Texts[0], "200.000")
	mockRefs.AssertExpectations(t)
}

func TestIntakeService_ConcurrentMessagesSameUser(t *testing.T) {
	svc := newIntake(new(MockRecordRepo), new(MockReferrals), new(MockNotifier), new(MockReminders))
	ctx := context.Background()

	_, err := svc.Start(ctx, 7)
	require.NoError(t, err)

	// Webhook mode handles each update on its own goroutine, so two quick
	// messages from the same participant must serialize on the session.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply, err := svc.HandleText(ctx, 7, "250.000")
			assert.NoError(t, err)
			assert.NotNil(t, reply)
		}()
	}
	wg.Wait()
}
