package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/logger"
	"montos-inversion-backend/internal/repository"
)

type reviewService struct {
	records   repository.RecordRepository
	referrals ReferralService
	notifier  Notifier
	reminders ReminderArmer
	reviewers map[int64]bool

	// pending maps a reviewer to the record they are rejecting. Keyed by
	// reviewer, not record: one reviewer handles one rejection at a time,
	// and a later tap replaces an earlier pending one. Created on the
	// reject tap, cleared when the reason arrives.
	pending *pendingStore

	now nowFunc
}

func NewReviewService(
	records repository.RecordRepository,
	referrals ReferralService,
	notifier Notifier,
	reminders ReminderArmer,
	reviewerIDs []int64,
) ReviewService {
	reviewers := make(map[int64]bool, len(reviewerIDs))
	for _, id := range reviewerIDs {
		reviewers[id] = true
	}
	return &reviewService{
		records:   records,
		referrals: referrals,
		notifier:  notifier,
		reminders: reminders,
		reviewers: reviewers,
		pending:   newPendingStore(),
		now:       time.Now,
	}
}

func (s *reviewService) IsReviewer(id int64) bool {
	return s.reviewers[id]
}

func (s *reviewService) Approve(ctx context.Context, reviewerID int64, recordID string) error {
	if !s.IsReviewer(reviewerID) {
		return ErrUnauthorized
	}

	rec, err := findRecord(ctx, s.records, recordID)
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.notifier.SendText(ctx, reviewerID, "No se encontró el registro para aprobar.")
		return nil
	}
	if err != nil {
		logger.Error("failed to read record for approval", "record_id", recordID, "error", err)
		_ = s.notifier.SendText(ctx, reviewerID, "⚠️ Error consultando el registro. Intenta de nuevo.")
		return err
	}

	if rec.Status == domain.RecordStatusApproved {
		// Duplicate tap. The original decision and code stand.
		_ = s.notifier.SendText(ctx, reviewerID,
			fmt.Sprintf("La transacción de %d ya estaba aprobada. Código: INV-%s", rec.UserID, rec.AssignedCode))
		return nil
	}

	code := rec.AssignedCode
	if code == "" {
		code, err = s.referrals.Mint(ctx)
		if err != nil {
			logger.Error("failed to mint assigned code", "record_id", recordID, "error", err)
			_ = s.notifier.SendText(ctx, reviewerID, "⚠️ Error generando el código. Intenta de nuevo.")
			return err
		}
	}

	status := domain.RecordStatusApproved
	note := fmt.Sprintf("approved by %d at %s", reviewerID, s.now().UTC().Format(time.RFC3339))
	ok, err := s.records.UpdateFields(ctx, recordID, repository.RecordUpdate{
		Status:       &status,
		AssignedCode: &code,
		ReviewerNote: &note,
	})
	if err != nil {
		logger.Error("failed to persist approval", "record_id", recordID, "error", err)
		_ = s.notifier.SendText(ctx, reviewerID, "⚠️ Error guardando la aprobación. Intenta de nuevo.")
		return err
	}
	if !ok {
		logger.Warn("approval update missed its row", "record_id", recordID)
		_ = s.notifier.SendText(ctx, reviewerID, "No se encontró el registro para aprobar.")
		return nil
	}

	s.reminders.Disarm(recordID)

	if err := s.notifier.SendText(ctx, rec.UserID, fmt.Sprintf(
		"✅ Transacción aprobada!\n\n🔑 Tu código de usuario es: *INV-%s*\n\nHas invertido: *%s* COP\nRecibirás: *%s* COP\nFecha estimada de pago: *%s*",
		code, domain.FormatMoney(rec.Amount), domain.FormatMoney(domain.Payout(rec.Amount)),
		rec.ExpectedPayoutDate.Format("2006-01-02"))); err != nil {
		logger.Error("failed to notify participant of approval", "user_id", rec.UserID, "error", err)
	}
	_ = s.notifier.SendMenu(ctx, rec.UserID, "¿Deseas hacer algo más?")
	_ = s.notifier.SendText(ctx, reviewerID,
		fmt.Sprintf("Has aprobado la transacción de %d. Código: INV-%s", rec.UserID, code))
	return nil
}

func (s *reviewService) BeginRejection(ctx context.Context, reviewerID int64, recordID string) error {
	if !s.IsReviewer(reviewerID) {
		return ErrUnauthorized
	}
	s.pending.set(reviewerID, recordID)
	_ = s.notifier.SendText(ctx, reviewerID, "Escribe el *motivo* del rechazo. Envía el texto ahora:")
	return nil
}

func (s *reviewService) SubmitRejectionReason(ctx context.Context, reviewerID int64, reason string) (bool, error) {
	recordID, ok := s.pending.get(reviewerID)
	if !ok {
		// Not awaiting a reason; the text belongs to unrelated handling.
		return false, nil
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		_ = s.notifier.SendText(ctx, reviewerID, "El motivo no puede estar vacío. Escribe el motivo del rechazo:")
		return true, nil
	}

	rec, err := findRecord(ctx, s.records, recordID)
	if errors.Is(err, repository.ErrNotFound) {
		s.pending.clear(reviewerID)
		_ = s.notifier.SendText(ctx, reviewerID, "No se encontró el registro para rechazar.")
		return true, nil
	}
	if err != nil {
		// Keep the awaiting-reason state so the reviewer can resend.
		logger.Error("failed to read record for rejection", "record_id", recordID, "error", err)
		_ = s.notifier.SendText(ctx, reviewerID, "⚠️ Error consultando el registro. Envía el motivo de nuevo.")
		return true, err
	}

	status := domain.RecordStatusRejected
	updated, err := s.records.UpdateFields(ctx, recordID, repository.RecordUpdate{
		Status:       &status,
		ReviewerNote: &reason,
	})
	if err != nil {
		logger.Error("failed to persist rejection", "record_id", recordID, "error", err)
		_ = s.notifier.SendText(ctx, reviewerID, "⚠️ Error guardando el rechazo. Envía el motivo de nuevo.")
		return true, err
	}
	if !updated {
		s.pending.clear(reviewerID)
		logger.Warn("rejection update missed its row", "record_id", recordID)
		_ = s.notifier.SendText(ctx, reviewerID, "No se encontró el registro para rechazar.")
		return true, nil
	}

	s.pending.clear(reviewerID)
	s.reminders.Disarm(recordID)

	if err := s.notifier.SendText(ctx, rec.UserID, fmt.Sprintf(
		"❌ Tu comprobante fue rechazado.\nMotivo: %s\nPor favor revisa y vuelve a enviarlo.", reason)); err != nil {
		logger.Error("failed to notify participant of rejection", "user_id", rec.UserID, "error", err)
	}
	_ = s.notifier.SendText(ctx, reviewerID,
		fmt.Sprintf("Motivo enviado y usuario notificado: %d", rec.UserID))
	return true, nil
}
