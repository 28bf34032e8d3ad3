package bot

import (
	"github.com/go-telegram/bot/models"

	"github.com/dustlik/civicbot/internal/catalog"
)

// mainMenuKeyboard lays the ten topic buttons out in two columns, with the
// free-question button on its own row at the bottom.
func mainMenuKeyboard() *models.ReplyKeyboardMarkup {
	var rows [][]models.KeyboardButton
	var row []models.KeyboardButton
	for _, e := range catalog.Topics {
		row = append(row, models.KeyboardButton{Text: e.Label})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []models.KeyboardButton{{Text: catalog.LabelAskQuestion}})

	return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

// backKeyboard is shown after a topic answer.
func backKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: catalog.LabelAskQuestion}},
			{{Text: catalog.LabelMainMenu}},
		},
		ResizeKeyboard: true,
	}
}

// subscriptionKeyboard links to the channel and offers the re-check button.
func subscriptionKeyboard(joinURL string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "📢 Kanalga obuna bo'lish", URL: joinURL}},
			{{Text: "✅ Obuna bo'ldim", CallbackData: callbackCheckSubscription}},
		},
	}
}
