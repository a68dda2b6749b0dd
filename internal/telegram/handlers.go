package telegram

import (
	"context"
	"strings"

	"montos-inversion-backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", "panic", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			reply, err := b.intake.Start(ctx, userID)
			b.deliver(chatID, reply, err)
			return
		case "broadcast":
			if b.review.IsReviewer(userID) {
				b.beginBroadcast(chatID, userID)
				return
			}
		}
	}

	// Attachments are either broadcast content or payment proof.
	if proofRef, ok := attachmentReference(msg); ok {
		if b.review.IsReviewer(userID) {
			if stage, open := b.drafts.stage(userID); open && stage == stageAwaitMedia {
				b.stageBroadcastMedia(chatID, userID, proofRef)
				return
			}
		}
		reply, err := b.intake.HandleProof(ctx, userID, proofRef)
		b.deliver(chatID, reply, err)
		return
	}

	if msg.Text == "" {
		return
	}

	if b.review.IsReviewer(userID) {
		handled, err := b.review.SubmitRejectionReason(ctx, userID, msg.Text)
		if err != nil {
			b.log.Error("failed to record rejection reason", "reviewer_id", userID, "error", err)
			b.sendPlain(chatID, "No se pudo registrar el rechazo. Intenta de nuevo.")
			return
		}
		if handled {
			return
		}
		if stage, open := b.drafts.stage(userID); open {
			// Any text at the media step declines the image.
			if stage == stageAwaitMedia {
				b.stageBroadcastMedia(chatID, userID, "")
				return
			}
			b.sendBroadcast(ctx, chatID, userID, msg.Text)
			return
		}
	}

	reply, err := b.intake.HandleText(ctx, userID, msg.Text)
	b.deliver(chatID, reply, err)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	reviewerID := cq.From.ID

	if !b.review.IsReviewer(reviewerID) {
		b.answerCallback(cq.ID, "No autorizado.")
		return
	}

	action, recordID, ok := strings.Cut(cq.Data, "|")
	if !ok {
		b.answerCallback(cq.ID, "")
		return
	}

	var err error
	switch action {
	case "approve":
		err = b.review.Approve(ctx, reviewerID, recordID)
	case "reject":
		err = b.review.BeginRejection(ctx, reviewerID, recordID)
	default:
		b.answerCallback(cq.ID, "")
		return
	}
	if err != nil {
		b.log.Error("review action failed", "action", action, "record_id", recordID, "error", err)
		b.answerCallback(cq.ID, "No se pudo procesar la acción.")
		return
	}

	b.answerCallback(cq.ID, "")
	b.stripButtons(cq)
}

// deliver renders a service reply: optional media first, then each text with
// the keyboard attached to the last one.
func (b *Bot) deliver(chatID int64, reply *service.Reply, err error) {
	if err != nil {
		b.log.Error("intake step failed", "chat_id", chatID, "error", err)
		b.sendPlain(chatID, "Ocurrió un error. Intenta de nuevo con /start.")
		return
	}
	if reply == nil {
		return
	}

	if reply.MediaKey != "" {
		if fileID := b.mediaFileID(reply.MediaKey); fileID != "" {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
			if _, err := b.api.Send(photo); err != nil {
				b.log.Warn("failed to send media", "chat_id", chatID, "key", reply.MediaKey, "error", err)
			}
		}
	}

	for i, text := range reply.Texts {
		msg := tgbotapi.NewMessage(chatID, text)
		if i == len(reply.Texts)-1 {
			msg.ReplyMarkup = replyMarkup(reply.Keyboard)
		}
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("failed to send reply", "chat_id", chatID, "error", err)
		}
	}
}

func replyMarkup(kb service.Keyboard) interface{} {
	switch kb {
	case service.KeyboardAmounts:
		return amountsKeyboard()
	case service.KeyboardYesNo:
		return yesNoKeyboard()
	case service.KeyboardMenu:
		return menuKeyboard()
	case service.KeyboardRemove:
		return tgbotapi.NewRemoveKeyboard(false)
	default:
		return nil
	}
}

func (b *Bot) mediaFileID(key string) string {
	switch key {
	case service.MediaAmounts:
		return b.media.AmountsFileID
	case service.MediaAccount:
		return b.media.AccountFileID
	default:
		return ""
	}
}

// attachmentReference extracts a stored proof reference from a photo or
// document message. Photos pick the largest available size.
func attachmentReference(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return "photo:" + msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil {
		return "document:" + msg.Document.FileID, true
	}
	return "", false
}

func (b *Bot) sendPlain(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}
}

// stripButtons removes the inline keyboard from the reviewed message so the
// decision cannot be tapped again from the same card.
func (b *Bot) stripButtons(cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(
		cq.Message.Chat.ID,
		cq.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	if _, err := b.api.Request(edit); err != nil {
		b.log.Warn("failed to clear inline keyboard", "error", err)
	}
}
