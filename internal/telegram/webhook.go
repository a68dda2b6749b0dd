package telegram

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
)

// webhookPath is where Telegram posts updates in webhook mode. The token
// segment keeps the endpoint unguessable.
func webhookPath(token string) string {
	return "/telegram/" + token
}

// EnableWebhook registers the public URL with Telegram. Polling must not be
// running at the same time.
func (b *Bot) EnableWebhook(publicURL string) error {
	wh, err := tgbotapi.NewWebhook(publicURL + webhookPath(b.api.Token))
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}
	return nil
}

// RegisterRoutes mounts the update endpoint and a health check.
func (b *Bot) RegisterRoutes(ctx context.Context, router *mux.Router) {
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	}).Methods(http.MethodGet)

	router.HandleFunc(webhookPath(b.api.Token), func(w http.ResponseWriter, r *http.Request) {
		update, err := b.api.HandleUpdate(r)
		if err != nil {
			b.log.Warn("rejected malformed update", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.handleUpdate(ctx, *update)
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)
}
