package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"montos-inversion-backend/internal/config"
	"montos-inversion-backend/internal/logger"
	"montos-inversion-backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Connect authenticates against the Telegram API. The returned client is
// shared by the notifier and the update-handling bot.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate bot: %w", err)
	}
	return api, nil
}

// NewNotifier returns the outbound message sender used by the workflow
// services.
func NewNotifier(api *tgbotapi.BotAPI) service.Notifier {
	return &notifier{api: api, log: logger.WithService("telegram")}
}

// Bot wires incoming Telegram updates to the workflow services. It owns the
// update loop (polling or webhook) and renders service replies into chat
// messages.
type Bot struct {
	api        *tgbotapi.BotAPI
	intake     service.IntakeService
	review     service.ReviewService
	broadcasts service.BroadcastService
	media      config.MediaConfig
	drafts     *draftStore
	log        *slog.Logger
}

func NewBot(
	api *tgbotapi.BotAPI,
	media config.MediaConfig,
	intake service.IntakeService,
	review service.ReviewService,
	broadcasts service.BroadcastService,
) *Bot {
	return &Bot{
		api:        api,
		intake:     intake,
		review:     review,
		broadcasts: broadcasts,
		media:      media,
		drafts:     newDraftStore(),
		log:        logger.WithService("telegram"),
	}
}

// Run consumes updates via long polling until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}
