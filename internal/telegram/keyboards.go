package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func amountsKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("200.000"),
			tgbotapi.NewKeyboardButton("250.000"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("300.000"),
			tgbotapi.NewKeyboardButton("350.000"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("400.000"),
			tgbotapi.NewKeyboardButton("450.000"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("500.000"),
		),
	)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

func yesNoKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Sí"),
			tgbotapi.NewKeyboardButton("No"),
		),
	)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

func menuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Mis referidos"),
			tgbotapi.NewKeyboardButton("Soporte"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Horarios de atención"),
			tgbotapi.NewKeyboardButton("Nueva inversión"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Salir"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// reviewKeyboard builds the approve/reject inline buttons for a proof
// forwarded to reviewers. Callback data carries the record id.
func reviewKeyboard(recordID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Aprobar", "approve|"+recordID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Rechazar", "reject|"+recordID),
		),
	)
}
