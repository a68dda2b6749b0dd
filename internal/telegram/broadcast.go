package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendPause throttles fan-out so a broadcast does not trip API rate limits.
const sendPause = 200 * time.Millisecond

// A broadcast is composed in two steps: the reviewer first picks the media
// (or opts out with any text), then sends the text that goes to everyone.
type broadcastStage int

const (
	stageAwaitMedia broadcastStage = iota
	stageAwaitText
)

type broadcastDraft struct {
	stage    broadcastStage
	mediaRef string
}

// draftStore tracks each reviewer's open broadcast draft.
type draftStore struct {
	mu     sync.Mutex
	byUser map[int64]*broadcastDraft
}

func newDraftStore() *draftStore {
	return &draftStore{byUser: make(map[int64]*broadcastDraft)}
}

func (d *draftStore) begin(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byUser[userID] = &broadcastDraft{stage: stageAwaitMedia}
}

func (d *draftStore) active(userID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.byUser[userID]
	return ok
}

func (d *draftStore) stage(userID int64) (broadcastStage, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	draft, ok := d.byUser[userID]
	if !ok {
		return 0, false
	}
	return draft.stage, true
}

// setMedia records the media choice (empty means text-only) and advances the
// draft to the text step.
func (d *draftStore) setMedia(userID int64, mediaRef string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	draft, ok := d.byUser[userID]
	if !ok {
		return
	}
	draft.mediaRef = mediaRef
	draft.stage = stageAwaitText
}

// consume closes the draft and returns its media reference.
func (d *draftStore) consume(userID int64) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	draft, ok := d.byUser[userID]
	if !ok {
		return "", false
	}
	delete(d.byUser, userID)
	return draft.mediaRef, true
}

func (b *Bot) beginBroadcast(chatID, reviewerID int64) {
	b.drafts.begin(reviewerID)
	b.sendPlain(chatID, "Envía la imagen (o escribe 'NO' si solo texto). Luego enviarás el texto del mensaje.")
}

// stageBroadcastMedia records the first step of the draft and asks for the
// message text. Any text at this step means a text-only broadcast.
func (b *Bot) stageBroadcastMedia(chatID, reviewerID int64, mediaRef string) {
	b.drafts.setMedia(reviewerID, mediaRef)
	b.sendPlain(chatID, "Ahora escribe el texto que deseas enviar a todos los usuarios:")
}

// sendBroadcast fans the finished draft out to every known participant and
// reports the delivery tally back to the reviewer.
func (b *Bot) sendBroadcast(ctx context.Context, chatID, reviewerID int64, text string) {
	mediaRef, ok := b.drafts.consume(reviewerID)
	if !ok {
		return
	}

	recipients, err := b.broadcasts.Recipients(ctx)
	if err != nil {
		b.log.Error("failed to resolve broadcast audience", "error", err)
		b.sendPlain(chatID, "No se pudo obtener la lista de usuarios.")
		return
	}

	var sent, failed int
	for _, userID := range recipients {
		if err := b.sendBroadcastItem(userID, mediaRef, text); err != nil {
			b.log.Warn("broadcast delivery failed", "user_id", userID, "error", err)
			failed++
		} else {
			sent++
		}
		time.Sleep(sendPause)
	}

	b.log.Info("broadcast finished", "reviewer_id", reviewerID, "sent", sent, "failed", failed)
	b.sendPlain(chatID, fmt.Sprintf("Difusión completada. Enviados: %d. Fallidos: %d.", sent, failed))
}

func (b *Bot) sendBroadcastItem(userID int64, mediaRef, text string) error {
	if mediaRef == "" {
		_, err := b.api.Send(tgbotapi.NewMessage(userID, text))
		return err
	}

	kind, fileID := splitProofReference(mediaRef)
	if kind == "document" {
		doc := tgbotapi.NewDocument(userID, tgbotapi.FileID(fileID))
		doc.Caption = text
		_, err := b.api.Send(doc)
		return err
	}
	photo := tgbotapi.NewPhoto(userID, tgbotapi.FileID(fileID))
	photo.Caption = text
	_, err := b.api.Send(photo)
	return err
}
