package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// notifier implements service.Notifier on top of the Telegram API.
type notifier struct {
	api *tgbotapi.BotAPI
	log *slog.Logger
}

func (n *notifier) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	return nil
}

func (n *notifier) SendMenu(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = menuKeyboard()
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send menu to %d: %w", chatID, err)
	}
	return nil
}

func (n *notifier) SendMedia(ctx context.Context, chatID int64, fileID string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	if _, err := n.api.Send(photo); err != nil {
		return fmt.Errorf("failed to send media to %d: %w", chatID, err)
	}
	return nil
}

// SendReviewRequest forwards the submitted proof to a reviewer with the
// record summary as caption and approve/reject buttons carrying the
// record id.
func (n *notifier) SendReviewRequest(ctx context.Context, reviewerID int64, rec *domain.Record) error {
	caption := fmt.Sprintf(
		"Nuevo comprobante recibido\n\nNombre: %s\nCédula: %s\nMonto: %s COP\nReferido: %s\nRegistro: %s",
		rec.Name, rec.NationalID, domain.FormatMoney(rec.Amount), rec.ReferralCode, rec.RecordID,
	)
	markup := reviewKeyboard(rec.RecordID)

	kind, fileID := splitProofReference(rec.ProofReference)
	switch kind {
	case "document":
		doc := tgbotapi.NewDocument(reviewerID, tgbotapi.FileID(fileID))
		doc.Caption = caption
		doc.ReplyMarkup = markup
		if _, err := n.api.Send(doc); err != nil {
			return fmt.Errorf("failed to forward proof to reviewer %d: %w", reviewerID, err)
		}
	case "photo":
		photo := tgbotapi.NewPhoto(reviewerID, tgbotapi.FileID(fileID))
		photo.Caption = caption
		photo.ReplyMarkup = markup
		if _, err := n.api.Send(photo); err != nil {
			return fmt.Errorf("failed to forward proof to reviewer %d: %w", reviewerID, err)
		}
	default:
		// No forwardable attachment; still deliver the summary and buttons.
		msg := tgbotapi.NewMessage(reviewerID, caption)
		msg.ReplyMarkup = markup
		if _, err := n.api.Send(msg); err != nil {
			return fmt.Errorf("failed to notify reviewer %d: %w", reviewerID, err)
		}
	}
	return nil
}

// splitProofReference decodes a stored proof reference of the form
// "photo:<file-id>" or "document:<file-id>".
func splitProofReference(ref string) (kind, fileID string) {
	kind, fileID, ok := strings.Cut(ref, ":")
	if !ok {
		return "", ref
	}
	return kind, fileID
}

var _ service.Notifier = (*notifier)(nil)
