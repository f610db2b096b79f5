// Package telegram hosts the Telegram client, routing, and handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"habit_tracker_bot/internal/config"
	"habit_tracker_bot/internal/domain"
	"habit_tracker_bot/internal/logging"
	"habit_tracker_bot/internal/reply"
	"habit_tracker_bot/internal/tracker"
)

// botAPI is the subset of *bot.Bot the client uses.
type botAPI interface {
	Start(ctx context.Context)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	SetMyCommands(ctx context.Context, params *bot.SetMyCommandsParams) (bool, error)
}

// EventHandler turns normalized chat events into responses.
type EventHandler interface {
	Start(ctx context.Context, profile domain.User) reply.Response
	Command(ctx context.Context, userID int64, name, remainder string) reply.Response
	Text(ctx context.Context, userID int64, text string) reply.Response
	Button(ctx context.Context, userID int64, data string) reply.Response
}

var (
	defaultAllowedUpdates = bot.AllowedUpdates{
		"message",
		"callback_query",
	}

	createBot = func(token string, options ...bot.Option) (botAPI, error) {
		return bot.New(token, options...)
	}
)

// Client wraps the Telegram bot instance and logging dependencies.
type Client struct {
	bot    botAPI
	logger *logrus.Entry
}

// NewClient initializes the Telegram bot with long polling and routes updates to handler.
func NewClient(cfg config.Config, handler EventHandler, logger *logrus.Entry) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if handler == nil {
		return nil, errors.New("event handler is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	d := &dispatcher{handler: handler, logger: logger}

	tgBot, err := createBot(cfg.TelegramToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithDefaultHandler(d.handle),
		bot.WithErrorsHandler(errorHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}
	d.api = tgBot

	return &Client{
		bot:    tgBot,
		logger: logger,
	}, nil
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (c *Client) RegisterCommands(ctx context.Context, commands []tracker.MenuCommand) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	botCommands := make([]models.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		botCommands = append(botCommands, models.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		})
	}

	if _, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: botCommands}); err != nil {
		return fmt.Errorf("set bot commands: %w", err)
	}

	c.logger.WithFields(logging.Fields{
		"event":    "telegram_commands_registered",
		"commands": len(botCommands),
	}).Info("registered bot commands")

	return nil
}

// Start begins receiving updates via long polling until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger.WithFields(logging.Fields{
		"event":           "telegram_listen",
		"allowed_updates": defaultAllowedUpdates,
	}).Info("starting telegram long polling")

	c.bot.Start(ctx)

	c.logger.WithField("event", "telegram_stopped").Info("telegram polling stopped")
}

type updateMeta struct {
	userID     int64
	chatID     int64
	text       string
	updateType string
}

func extractUpdateMeta(update *models.Update) updateMeta {
	switch {
	case update.Message != nil:
		return updateMeta{
			userID:     userID(update.Message.From),
			chatID:     chatID(&update.Message.Chat),
			text:       strings.TrimSpace(update.Message.Text),
			updateType: "message",
		}
	case update.CallbackQuery != nil:
		return updateMeta{
			userID:     userID(&update.CallbackQuery.From),
			chatID:     messageChatID(update.CallbackQuery.Message),
			text:       strings.TrimSpace(update.CallbackQuery.Data),
			updateType: "callback_query",
		}
	default:
		return updateMeta{updateType: "unknown"}
	}
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram polling error")
	}
}

func userID(user *models.User) int64 {
	if user == nil {
		return 0
	}

	return user.ID
}

func chatID(chat *models.Chat) int64 {
	if chat == nil {
		return 0
	}

	return chat.ID
}

func messageChatID(msg models.MaybeInaccessibleMessage) int64 {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message == nil {
			return 0
		}
		return chatID(&msg.Message.Chat)
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage == nil {
			return 0
		}
		return chatID(&msg.InaccessibleMessage.Chat)
	default:
		return 0
	}
}
