package bot

import (
	"context"
	"errors"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/dustlik/civicbot/internal/ai"
	"github.com/dustlik/civicbot/internal/catalog"
	"github.com/dustlik/civicbot/internal/domain"
	"github.com/dustlik/civicbot/internal/services"
)

// handleStart registers the user, records the command, and either greets the
// user or asks them to join the channel first.
func (s *Service) handleStart(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg := update.Message
	u, err := s.ensureUser(ctx, msg.From)
	if err != nil {
		return
	}

	if err := s.record(ctx, u.ID, domain.RoleUser, "/start", nil); err != nil {
		return
	}

	if !s.gate.IsSubscribed(ctx, msg.From.ID) {
		s.send(ctx, &tgbot.SendMessageParams{
			ChatID:      msg.Chat.ID,
			Text:        joinChannelText(u.FullName),
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: subscriptionKeyboard(s.joinURL),
		})
		return
	}

	s.send(ctx, &tgbot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        welcomeText(u.FullName),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: mainMenuKeyboard(),
	})
}

// handleTopic resolves a menu button press to its topic, records both sides
// of the exchange, and replies with the topic's canonical answer.
func (s *Service) handleTopic(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg := update.Message
	u, err := s.ensureUser(ctx, msg.From)
	if err != nil {
		return
	}

	topic, err := s.know.Lookup(ctx, msg.Text)
	if err != nil {
		if !errors.Is(err, services.ErrTopicNotAvailable) {
			s.log.Error().Err(err).Str("label", msg.Text).Msg("topic lookup failed")
		}
		s.send(ctx, &tgbot.SendMessageParams{
			ChatID:      msg.Chat.ID,
			Text:        topicUnavailableText,
			ReplyMarkup: mainMenuKeyboard(),
		})
		return
	}

	if err := s.record(ctx, u.ID, domain.RoleUser, msg.Text, &topic.ID); err != nil {
		return
	}

	var reply string
	faq, err := s.know.CanonicalFAQ(ctx, topic.ID)
	switch {
	case err == nil:
		reply = topicAnswerText(topic.Emoji, topic.Title, faq.Answer)
	case errors.Is(err, services.ErrNoActiveFAQ):
		reply = topicComingSoonText(topic.Emoji, topic.Title)
	default:
		s.log.Error().Err(err).Uint("topic_id", topic.ID).Msg("faq lookup failed")
		reply = topicComingSoonText(topic.Emoji, topic.Title)
	}

	if err := s.record(ctx, u.ID, domain.RoleBot, reply, &topic.ID); err != nil {
		return
	}

	s.send(ctx, &tgbot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        reply,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: backKeyboard(),
	})
}

// handleMainMenu restores the topic keyboard. Nothing is recorded.
func (s *Service) handleMainMenu(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	s.send(ctx, &tgbot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        mainMenuText,
		ReplyMarkup: mainMenuKeyboard(),
	})
}

// handleAskQuestion invites a free-form question and clears the keyboard.
func (s *Service) handleAskQuestion(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	s.send(ctx, &tgbot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        askQuestionPrompt,
		ReplyMarkup: &models.ReplyKeyboardRemove{RemoveKeyboard: true},
	})
}

// handleFreeText is the default handler: any text that is not a menu button
// goes through the AI, with a canned fallback when the AI is disabled or
// fails for any reason.
func (s *Service) handleFreeText(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message
	text := strings.TrimSpace(msg.Text)
	if text == "" || catalog.IsReserved(msg.Text) {
		return
	}

	u, err := s.ensureUser(ctx, msg.From)
	if err != nil {
		return
	}

	if err := s.record(ctx, u.ID, domain.RoleUser, msg.Text, nil); err != nil {
		return
	}

	reply, err := s.ai.Complete(ctx, msg.Text)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			s.log.Warn().Err(err).Msg("ai completion failed, using fallback")
		}
		reply = fallbackText
	}

	if err := s.record(ctx, u.ID, domain.RoleBot, reply, nil); err != nil {
		return
	}

	s.send(ctx, &tgbot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        reply,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: mainMenuKeyboard(),
	})
}

// handleCheckSubscription re-checks membership when the inline button is
// pressed. On success the prompt message is replaced with the welcome flow;
// otherwise the user gets an alert popup.
func (s *Service) handleCheckSubscription(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}

	if !s.gate.IsSubscribed(ctx, cb.From.ID) {
		if _, err := s.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
			CallbackQueryID: cb.ID,
			Text:            notSubscribedAlert,
			ShowAlert:       true,
		}); err != nil {
			s.log.Error().Err(err).Msg("answer callback failed")
		}
		return
	}

	if _, err := s.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
		Text:            subscriptionConfirmedToast,
	}); err != nil {
		s.log.Error().Err(err).Msg("answer callback failed")
	}

	chatID := cb.From.ID
	if cb.Message.Message != nil {
		chatID = cb.Message.Message.Chat.ID
		if _, err := s.api.DeleteMessage(ctx, &tgbot.DeleteMessageParams{
			ChatID:    chatID,
			MessageID: cb.Message.Message.ID,
		}); err != nil {
			s.log.Warn().Err(err).Msg("delete subscription prompt failed")
		}
	}

	u, err := s.ensureUser(ctx, &cb.From)
	if err != nil {
		return
	}

	s.send(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        welcomeText(u.FullName),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: mainMenuKeyboard(),
	})
}

func (s *Service) ensureUser(ctx context.Context, from *models.User) (*domain.User, error) {
	u, err := s.conv.EnsureUser(ctx, from.ID, from.Username, fullName(from), from.LanguageCode)
	if err != nil {
		s.log.Error().Err(err).Int64("telegram_user_id", from.ID).Msg("ensure user failed")
		return nil, err
	}
	return u, nil
}

// record persists one side of an exchange. A failed write aborts the handler
// that called it; there is no retry.
func (s *Service) record(ctx context.Context, userID uint, role, text string, topicID *uint) error {
	if _, err := s.conv.Record(ctx, userID, role, text, topicID); err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Str("role", role).Msg("record message failed")
		return err
	}
	return nil
}
