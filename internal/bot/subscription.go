package bot

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

// chatMemberGetter is the slice of the Telegram API the gate needs.
// *tgbot.Bot satisfies it; tests substitute a stub.
type chatMemberGetter interface {
	GetChatMember(ctx context.Context, params *tgbot.GetChatMemberParams) (*models.ChatMember, error)
}

// Gate decides whether a user may use the bot, based on channel membership.
// The decision is fail-closed: any API error counts as not subscribed.
type Gate struct {
	api       chatMemberGetter
	channelID string
	log       zerolog.Logger
}

// NewGate builds a membership gate against the given channel.
func NewGate(api chatMemberGetter, channelID string, log zerolog.Logger) *Gate {
	return &Gate{api: api, channelID: channelID, log: log}
}

// IsSubscribed reports whether the user currently belongs to the channel.
// Owner, administrator and plain member count; restricted, left and banned do
// not. Errors are logged and reported as false.
func (g *Gate) IsSubscribed(ctx context.Context, userID int64) bool {
	member, err := g.api.GetChatMember(ctx, &tgbot.GetChatMemberParams{
		ChatID: g.channelID,
		UserID: userID,
	})
	if err != nil {
		g.log.Error().Err(err).
			Int64("telegram_user_id", userID).
			Str("channel_id", g.channelID).
			Msg("subscription check failed")
		return false
	}

	switch member.Type {
	case models.ChatMemberTypeOwner,
		models.ChatMemberTypeAdministrator,
		models.ChatMemberTypeMember:
		return true
	default:
		return false
	}
}
