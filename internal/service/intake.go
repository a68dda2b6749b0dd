package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/logger"
	"montos-inversion-backend/internal/repository"
)

type intakeService struct {
	records   repository.RecordRepository
	referrals ReferralService
	notifier  Notifier
	reminders ReminderArmer
	reviewers []int64
	sessions  *sessionStore
	now       nowFunc
}

func NewIntakeService(
	records repository.RecordRepository,
	referrals ReferralService,
	notifier Notifier,
	reminders ReminderArmer,
	reviewers []int64,
) IntakeService {
	return &intakeService{
		records:   records,
		referrals: referrals,
		notifier:  notifier,
		reminders: reminders,
		reviewers: reviewers,
		sessions:  newSessionStore(),
		now:       time.Now,
	}
}

// Start resets the participant's dialogue to the amount prompt. Any
// in-progress, unpersisted capture is abandoned.
func (s *intakeService) Start(ctx context.Context, userID int64) (*Reply, error) {
	lock := s.sessions.acquire(userID)
	lock.Lock()
	defer lock.Unlock()

	s.sessions.put(&domain.Session{UserID: userID, State: domain.StateAmountEntry})
	return &Reply{
		Texts: []string{
			"💰 *Montos de inversión disponibles*\n\nElige uno de los montos o escribe otro (usa puntos):",
		},
		Keyboard: KeyboardAmounts,
		MediaKey: MediaAmounts,
	}, nil
}

func (s *intakeService) HandleText(ctx context.Context, userID int64, text string) (*Reply, error) {
	lock := s.sessions.acquire(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, ok := s.sessions.get(userID)
	if !ok {
		return replyText("Envía /start para comenzar."), nil
	}

	switch sess.State {
	case domain.StateAmountEntry:
		return s.amountEntry(sess, text)
	case domain.StateInvestConfirm:
		return s.investConfirm(sess, text)
	case domain.StateReferralEntry:
		return s.referralEntry(ctx, sess, text)
	case domain.StateRegisterConfirm:
		return s.registerConfirm(sess, text)
	case domain.StateNameEntry:
		sess.Name = strings.TrimSpace(text)
		sess.State = domain.StateNationalIDEntry
		return replyText("🆔 Ahora escribe tu *número de cédula*:"), nil
	case domain.StateNationalIDEntry:
		sess.NationalID = strings.TrimSpace(text)
		sess.State = domain.StateDataConfirm
		return &Reply{
			Texts: []string{fmt.Sprintf(
				"✅ Confirma tus datos:\n\n👤 Nombre: %s\n🆔 Cédula: %s\n\n¿Son correctos?",
				sess.Name, sess.NationalID)},
			Keyboard: KeyboardYesNo,
		}, nil
	case domain.StateDataConfirm:
		return s.dataConfirm(ctx, sess, text)
	case domain.StateAwaitingProof:
		return replyText("⚠️ Envía una imagen o documento como comprobante."), nil
	case domain.StateMenu:
		return s.menu(ctx, sess, text)
	case domain.StateReinvestAmount:
		return s.reinvestAmount(sess, text)
	case domain.StateReinvestProof:
		return replyText("⚠️ Envía una imagen o documento como comprobante."), nil
	}
	return replyText("Envía /start para comenzar."), nil
}

func (s *intakeService) amountEntry(sess *domain.Session, text string) (*Reply, error) {
	amount, err := parseAmount(text)
	if err != nil {
		return replyText("❌ Ingresa un monto válido con puntos (ej: 200.000)."), nil
	}
	if !domain.ValidAmount(amount) {
		return replyText("⚠️ El monto debe estar entre 200.000 y 500.000 COP."), nil
	}
	sess.Amount = amount
	sess.State = domain.StateInvestConfirm
	return &Reply{
		Texts: []string{fmt.Sprintf(
			"✅ Deseas invertir *%s* COP?\nEn %d días recibirás *%s* COP.",
			domain.FormatMoney(amount), domain.PayoutDays, domain.FormatMoney(domain.Payout(amount)))},
		Keyboard: KeyboardYesNo,
	}, nil
}

func (s *intakeService) investConfirm(sess *domain.Session, text string) (*Reply, error) {
	if !isYes(text) {
		s.sessions.remove(sess.UserID)
		return &Reply{
			Texts:    []string{"❌ Gracias por ingresar, vuelve cuando estés seguro."},
			Keyboard: KeyboardRemove,
			End:      true,
		}, nil
	}
	sess.State = domain.StateReferralEntry
	return &Reply{
		Texts:    []string{"🔑 ¿Vienes referido por alguien? Escribe el código o 'No'."},
		Keyboard: KeyboardYesNo,
	}, nil
}

func (s *intakeService) referralEntry(ctx context.Context, sess *domain.Session, text string) (*Reply, error) {
	code := strings.TrimSpace(text)
	if code == "" || isNo(code) {
		sess.ReferralCode = domain.NoReferral
		sess.State = domain.StateRegisterConfirm
		return &Reply{
			Texts:    []string{"📝 ¿Deseas continuar con el registro?"},
			Keyboard: KeyboardYesNo,
		}, nil
	}

	referrer, err := s.referrals.Validate(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return replyText("⚠️ Código no válido. Ingresa otro código o escribe 'No'."), nil
	}
	if err != nil {
		logger.Error("referral validation failed", "user_id", sess.UserID, "error", err)
		return replyText("⚠️ No pudimos validar el código ahora. Intenta de nuevo o escribe 'No'."), nil
	}

	sess.ReferralCode = code
	sess.ReferrerName = referrer.Name
	sess.State = domain.StateRegisterConfirm
	return &Reply{
		Texts: []string{
			fmt.Sprintf("✅ Vienes referido por *%s* (código %s).", referrer.Name, code),
			"📝 ¿Deseas continuar con el registro?",
		},
		Keyboard: KeyboardYesNo,
	}, nil
}

func (s *intakeService) registerConfirm(sess *domain.Session, text string) (*Reply, error) {
	if !isYes(text) {
		s.sessions.remove(sess.UserID)
		return &Reply{
			Texts:    []string{"❌ Gracias, vuelve cuando estés seguro."},
			Keyboard: KeyboardRemove,
			End:      true,
		}, nil
	}
	sess.State = domain.StateNameEntry
	return replyText("✍️ Escribe tu *nombre completo*:"), nil
}

func (s *intakeService) dataConfirm(ctx context.Context, sess *domain.Session, text string) (*Reply, error) {
	if !isYes(text) {
		sess.State = domain.StateNameEntry
		return replyText("❌ Corrige tus datos. Escribe tu *nombre completo*:"), nil
	}

	if sess.ReferralCode == "" {
		sess.ReferralCode = domain.NoReferral
	}
	now := s.now()
	rec := &domain.Record{
		UserID:             sess.UserID,
		Name:               sess.Name,
		NationalID:         sess.NationalID,
		Amount:             sess.Amount,
		ReferralCode:       sess.ReferralCode,
		CreatedAt:          now,
		ExpectedPayoutDate: domain.PayoutDate(now),
		Status:             domain.RecordStatusAwaitingProof,
	}
	recordID, err := s.records.Append(ctx, rec)
	if err != nil {
		logger.Error("failed to append registration", "user_id", sess.UserID, "error", err)
		return replyText("⚠️ No pudimos guardar tu registro. Intenta de nuevo en unos minutos."), nil
	}

	sess.RecordID = recordID
	sess.State = domain.StateAwaitingProof
	return &Reply{
		Texts: []string{fmt.Sprintf(
			"🎉 Registro inicial exitoso %s!\n\nEnvía el comprobante de tu pago a la siguiente cuenta y luego espera la validación.\n\nFecha estimada de pago: *%s* (%d días desde hoy).",
			sess.Name, rec.ExpectedPayoutDate.Format("2006-01-02"), domain.PayoutDays)},
		Keyboard: KeyboardRemove,
		MediaKey: MediaAccount,
	}, nil
}

func (s *intakeService) HandleProof(ctx context.Context, userID int64, proofRef string) (*Reply, error) {
	lock := s.sessions.acquire(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, ok := s.sessions.get(userID)
	if ok && sess.State == domain.StateReinvestProof {
		return s.reinvestProof(ctx, sess, proofRef)
	}
	if ok && sess.RecordID != "" &&
		(sess.State == domain.StateAwaitingProof || sess.State == domain.StateMenu) {
		return s.submitProof(ctx, sess, sess.RecordID, proofRef)
	}

	// No live session owning a record: attach to the participant's latest
	// undecided or rejected row so restarts and resubmissions still land on
	// the right record.
	rec, err := s.records.FindLatestByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return replyText("Envía /start para comenzar."), nil
	}
	if err != nil {
		logger.Error("failed to look up latest record", "user_id", userID, "error", err)
		return replyText("⚠️ No pudimos procesar tu comprobante. Intenta de nuevo en unos minutos."), nil
	}
	if rec.Status == domain.RecordStatusApproved {
		return replyText("Tu última inversión ya fue aprobada. Envía /start para una nueva."), nil
	}

	sess = &domain.Session{
		UserID:     userID,
		State:      domain.StateMenu,
		RecordID:   rec.RecordID,
		Name:       rec.Name,
		NationalID: rec.NationalID,
		Amount:     rec.Amount,
	}
	s.sessions.put(sess)
	return s.submitProof(ctx, sess, rec.RecordID, proofRef)
}

// submitProof marks the row as proof-submitted, fans the proof out to the
// reviewers, and arms the deferred nudge. Also the resubmission path after a
// rejection: the same row is reopened in place.
func (s *intakeService) submitProof(ctx context.Context, sess *domain.Session, recordID, proofRef string) (*Reply, error) {
	status := domain.RecordStatusProofSubmitted
	// A fresh submission starts a fresh reminder cycle.
	var noNudge time.Time
	ok, err := s.records.UpdateFields(ctx, recordID, repository.RecordUpdate{
		ProofReference: &proofRef,
		Status:         &status,
		NudgedAt:       &noNudge,
	})
	if err != nil {
		logger.Error("failed to store proof", "record_id", recordID, "error", err)
		return replyText("⚠️ No pudimos procesar tu comprobante. Intenta de nuevo en unos minutos."), nil
	}
	if !ok {
		logger.Warn("proof update missed its row", "record_id", recordID)
		return replyText("⚠️ No encontramos tu registro. Envía /start para comenzar de nuevo."), nil
	}

	rec, err := findRecord(ctx, s.records, recordID)
	if err != nil {
		logger.Warn("could not re-read record for review request", "record_id", recordID, "error", err)
		rec = &domain.Record{
			RecordID:       recordID,
			UserID:         sess.UserID,
			Name:           sess.Name,
			NationalID:     sess.NationalID,
			Amount:         sess.Amount,
			ProofReference: proofRef,
			Status:         status,
		}
	}
	s.notifyReviewers(ctx, rec)
	s.reminders.Arm(recordID, sess.UserID)

	sess.State = domain.StateMenu
	return &Reply{
		Texts: []string{
			"⏳ Espera de 5 a 10 minutos mientras validamos tu transacción.",
			"¿Deseas hacer algo más?",
		},
		Keyboard: KeyboardMenu,
	}, nil
}

func (s *intakeService) notifyReviewers(ctx context.Context, rec *domain.Record) {
	for _, reviewerID := range s.reviewers {
		if err := s.notifier.SendReviewRequest(ctx, reviewerID, rec); err != nil {
			logger.Error("failed to forward proof to reviewer",
				"reviewer_id", reviewerID, "record_id", rec.RecordID, "error", err)
		}
	}
}

func (s *intakeService) menu(ctx context.Context, sess *domain.Session, text string) (*Reply, error) {
	switch normalize(text) {
	case "mis referidos":
		return s.myReferrals(ctx, sess)
	case "soporte":
		return &Reply{
			Texts: []string{
				"📞 *Soporte*\n\n✉️ Correo: soporte@montosinversion.co\n📱 WhatsApp: https://wa.link/oceivm",
			},
			Keyboard: KeyboardMenu,
		}, nil
	case "horarios de atención", "horarios de atencion", "horarios":
		return &Reply{
			Texts: []string{
				"🕑 *Horarios de Atención*\n\n📅 Lunes a Sábado: 8:00 AM - 7:00 PM\n📅 Domingo: 8:00 AM - 12:00 PM",
			},
			Keyboard: KeyboardMenu,
		}, nil
	case "nueva inversión", "nueva inversion":
		return s.beginReinvest(ctx, sess)
	case "salir", "no":
		s.sessions.remove(sess.UserID)
		return &Reply{
			Texts: []string{fmt.Sprintf(
				"🙏 Gracias por confiar en nosotros. Nos vemos en %d días con tu pago (o antes si tienes referidos).",
				domain.PayoutDays)},
			Keyboard: KeyboardRemove,
			End:      true,
		}, nil
	case "sí", "si":
		return &Reply{
			Texts:    []string{"Perfecto, ¿qué deseas hacer?"},
			Keyboard: KeyboardMenu,
		}, nil
	default:
		return &Reply{
			Texts:    []string{"👉 Elige una opción:"},
			Keyboard: KeyboardMenu,
		}, nil
	}
}

func (s *intakeService) myReferrals(ctx context.Context, sess *domain.Session) (*Reply, error) {
	rec, err := s.records.FindLatestByUser(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && rec.AssignedCode == "") {
		return &Reply{
			Texts:    []string{"No tienes código asignado aún. Registra y espera aprobación."},
			Keyboard: KeyboardMenu,
		}, nil
	}
	if err != nil {
		logger.Error("failed to look up own record", "user_id", sess.UserID, "error", err)
		return &Reply{Texts: []string{"⚠️ Error al consultar referidos."}, Keyboard: KeyboardMenu}, nil
	}

	referred, err := s.referrals.ListReferrals(ctx, rec.AssignedCode)
	if err != nil {
		logger.Error("failed to list referrals", "code", rec.AssignedCode, "error", err)
		return &Reply{Texts: []string{"⚠️ Error al consultar referidos."}, Keyboard: KeyboardMenu}, nil
	}
	if len(referred) == 0 {
		return &Reply{Texts: []string{"📋 No tienes referidos registrados."}, Keyboard: KeyboardMenu}, nil
	}

	lines := make([]string, 0, len(referred))
	for _, r := range referred {
		lines = append(lines, fmt.Sprintf("%s - %s (Monto: %s)", r.Name, r.NationalID, domain.FormatMoney(r.Amount)))
	}
	return &Reply{
		Texts:    []string{"📋 Tus referidos:\n\n" + strings.Join(lines, "\n")},
		Keyboard: KeyboardMenu,
	}, nil
}

func (s *intakeService) beginReinvest(ctx context.Context, sess *domain.Session) (*Reply, error) {
	rec, err := s.records.FindLatestByUser(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return &Reply{
			Texts:    []string{"Primero debes completar un registro. Envía /start para comenzar."},
			Keyboard: KeyboardMenu,
		}, nil
	}
	if err != nil {
		logger.Error("failed to look up latest record", "user_id", sess.UserID, "error", err)
		return &Reply{
			Texts:    []string{"⚠️ No pudimos consultar tu registro. Intenta de nuevo en unos minutos."},
			Keyboard: KeyboardMenu,
		}, nil
	}

	// Identity carries over; the new investment is a fresh row.
	sess.Name = rec.Name
	sess.NationalID = rec.NationalID
	sess.ReferralCode = rec.ReferralCode
	sess.State = domain.StateReinvestAmount
	return &Reply{
		Texts:    []string{"💰 Selecciona el nuevo monto:"},
		Keyboard: KeyboardAmounts,
		MediaKey: MediaAmounts,
	}, nil
}

func (s *intakeService) reinvestAmount(sess *domain.Session, text string) (*Reply, error) {
	amount, err := parseAmount(text)
	if err != nil {
		return replyText("❌ Ingresa un monto válido."), nil
	}
	if !domain.ValidAmount(amount) {
		return replyText("⚠️ El monto debe estar entre 200.000 y 500.000 COP."), nil
	}
	sess.Amount = amount
	sess.State = domain.StateReinvestProof
	payDate := domain.PayoutDate(s.now()).Format("2006-01-02")
	return &Reply{
		Texts: []string{fmt.Sprintf(
			"✅ Envía el comprobante de %s COP.\nFecha de pago estimada: %s",
			domain.FormatMoney(amount), payDate)},
		Keyboard: KeyboardRemove,
		MediaKey: MediaAccount,
	}, nil
}

func (s *intakeService) reinvestProof(ctx context.Context, sess *domain.Session, proofRef string) (*Reply, error) {
	now := s.now()
	rec := &domain.Record{
		UserID:             sess.UserID,
		Name:               sess.Name,
		NationalID:         sess.NationalID,
		Amount:             sess.Amount,
		ReferralCode:       sess.ReferralCode,
		CreatedAt:          now,
		ExpectedPayoutDate: domain.PayoutDate(now),
		ProofReference:     proofRef,
		Status:             domain.RecordStatusProofSubmitted,
	}
	recordID, err := s.records.Append(ctx, rec)
	if err != nil {
		logger.Error("failed to append re-investment", "user_id", sess.UserID, "error", err)
		return replyText("⚠️ No pudimos procesar tu comprobante. Intenta de nuevo en unos minutos."), nil
	}

	sess.RecordID = recordID
	sess.State = domain.StateMenu
	s.notifyReviewers(ctx, rec)
	s.reminders.Arm(recordID, sess.UserID)
	return &Reply{
		Texts: []string{
			"⏳ Tu nueva inversión será validada en 5-10 minutos.",
			"¿Deseas hacer algo más?",
		},
		Keyboard: KeyboardMenu,
	}, nil
}

func replyText(text string) *Reply {
	return &Reply{Texts: []string{text}}
}

func parseAmount(text string) (int64, error) {
	cleaned := strings.NewReplacer(".", "", ",", "", " ", "").Replace(strings.TrimSpace(text))
	return strconv.ParseInt(cleaned, 10, 64)
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func isYes(text string) bool {
	t := normalize(text)
	return t == "sí" || t == "si"
}

func isNo(text string) bool {
	t := normalize(text)
	return t == "no" || t == "n"
}
