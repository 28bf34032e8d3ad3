package bot

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/dustlik/civicbot/internal/ai"
	"github.com/dustlik/civicbot/internal/catalog"
	"github.com/dustlik/civicbot/internal/config"
	"github.com/dustlik/civicbot/internal/services"
)

const callbackCheckSubscription = "check_subscription"

var defaultAllowedUpdates = tgbot.AllowedUpdates{
	"message",
	"callback_query",
}

// telegramAPI is the slice of the Telegram client the handlers call.
// *tgbot.Bot satisfies it; tests substitute a recorder.
type telegramAPI interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
	DeleteMessage(ctx context.Context, params *tgbot.DeleteMessageParams) (bool, error)
}

// Service owns the Telegram conversation flow: it registers the handlers,
// gates every interaction on channel membership, and records both sides of
// each exchange.
type Service struct {
	api     telegramAPI
	gate    *Gate
	conv    *services.ConversationService
	know    *services.KnowledgeService
	ai      *ai.Client
	joinURL string
	log     zerolog.Logger

	bot *tgbot.Bot
}

// New connects to Telegram with long polling and wires all handlers.
func New(cfg config.TelegramConfig, conv *services.ConversationService, know *services.KnowledgeService, aiClient *ai.Client, log zerolog.Logger) (*Service, error) {
	s := &Service{
		conv:    conv,
		know:    know,
		ai:      aiClient,
		joinURL: cfg.ChannelJoinURL,
		log:     log,
	}

	b, err := tgbot.New(cfg.BotToken,
		tgbot.WithAllowedUpdates(defaultAllowedUpdates),
		tgbot.WithDefaultHandler(s.handleFreeText),
		tgbot.WithErrorsHandler(s.errorsHandler),
		tgbot.WithMiddlewares(s.requireSubscription),
	)
	if err != nil {
		return nil, err
	}
	s.bot = b
	s.api = b
	s.gate = NewGate(b, cfg.ChannelID, log)

	s.registerHandlers(b)
	return s, nil
}

func (s *Service) registerHandlers(b *tgbot.Bot) {
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, s.handleStart)
	b.RegisterHandler(tgbot.HandlerTypeMessageText, catalog.LabelMainMenu, tgbot.MatchTypeExact, s.handleMainMenu)
	b.RegisterHandler(tgbot.HandlerTypeMessageText, catalog.LabelAskQuestion, tgbot.MatchTypeExact, s.handleAskQuestion)
	for _, e := range catalog.Topics {
		b.RegisterHandler(tgbot.HandlerTypeMessageText, e.Label, tgbot.MatchTypeExact, s.handleTopic)
	}
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, callbackCheckSubscription, tgbot.MatchTypeExact, s.handleCheckSubscription)
}

// Start begins long polling and blocks until the context is canceled.
func (s *Service) Start(ctx context.Context) {
	s.log.Info().Msg("starting telegram long polling")
	s.bot.Start(ctx)
	s.log.Info().Msg("telegram polling stopped")
}

func (s *Service) errorsHandler(err error) {
	s.log.Error().Err(err).Msg("telegram update processing failed")
}

// requireSubscription blocks every text interaction from non-subscribers,
// except /start. Callback queries pass through so the re-check button keeps
// working for users who are still outside the channel.
func (s *Service) requireSubscription(next tgbot.HandlerFunc) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		if update == nil || update.Message == nil || update.Message.From == nil {
			next(ctx, b, update)
			return
		}
		if update.Message.Text == "/start" {
			next(ctx, b, update)
			return
		}

		if !s.gate.IsSubscribed(ctx, update.Message.From.ID) {
			s.send(ctx, &tgbot.SendMessageParams{
				ChatID:      update.Message.Chat.ID,
				Text:        subscriptionRequiredText,
				ParseMode:   models.ParseModeHTML,
				ReplyMarkup: subscriptionKeyboard(s.joinURL),
			})
			return
		}

		next(ctx, b, update)
	}
}

// send is a log-and-continue wrapper; a failed delivery never aborts a flow.
func (s *Service) send(ctx context.Context, params *tgbot.SendMessageParams) {
	if _, err := s.api.SendMessage(ctx, params); err != nil {
		s.log.Error().Err(err).Interface("chat_id", params.ChatID).Msg("send message failed")
	}
}

func fullName(u *models.User) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}
