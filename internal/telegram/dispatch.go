package telegram

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"habit_tracker_bot/internal/domain"
	"habit_tracker_bot/internal/logging"
	"habit_tracker_bot/internal/reply"
	"habit_tracker_bot/internal/tracker"
)

// dispatcher normalizes updates into handler events and delivers the responses.
type dispatcher struct {
	api     botAPI
	handler EventHandler
	logger  *logrus.Entry
}

func (d *dispatcher) handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil {
		return
	}

	meta := extractUpdateMeta(update)

	fields := logging.Fields{
		"event":       "telegram_update",
		"update_type": meta.updateType,
	}
	if meta.text != "" {
		fields["text"] = meta.text
	}
	if meta.userID != 0 {
		fields["user_id"] = meta.userID
	}
	if meta.chatID != 0 {
		fields["chat_id"] = meta.chatID
	}
	d.logger.WithFields(fields).Info("telegram update received")

	switch {
	case update.Message != nil:
		d.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	}
}

func (d *dispatcher) handleMessage(ctx context.Context, msg *models.Message) {
	// Photos, stickers and other media carry no text for the dialogue.
	if msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}

	var resp reply.Response
	if name, rest, ok := parseCommand(msg.Text); ok {
		if name == tracker.CommandStart {
			resp = d.handler.Start(ctx, profile(msg.From))
		} else {
			resp = d.handler.Command(ctx, msg.From.ID, name, rest)
		}
	} else {
		resp = d.handler.Text(ctx, msg.From.ID, msg.Text)
	}

	if resp.Text == "" {
		return
	}
	d.send(ctx, msg.Chat.ID, resp)
}

func (d *dispatcher) handleCallback(ctx context.Context, query *models.CallbackQuery) {
	resp := d.handler.Button(ctx, query.From.ID, query.Data)

	// Answering stops the client's loading indicator even when there is no notice.
	if _, err := d.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
		Text:            resp.Notice,
	}); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":   "telegram_answer_error",
			"user_id": query.From.ID,
		}).WithError(err).Warn("failed to answer callback query")
	}

	if resp.Text == "" {
		return
	}

	chat := messageChatID(query.Message)
	if chat == 0 {
		chat = query.From.ID
	}

	if resp.Edit && query.Message.Message != nil {
		d.edit(ctx, chat, query.Message.Message.ID, resp)
		return
	}
	d.send(ctx, chat, resp)
}

func (d *dispatcher) send(ctx context.Context, chat int64, resp reply.Response) {
	params := &bot.SendMessageParams{
		ChatID: chat,
		Text:   resp.Text,
	}
	if kb := inlineKeyboard(resp.Buttons); kb != nil {
		params.ReplyMarkup = kb
	}

	if _, err := d.api.SendMessage(ctx, params); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":   "telegram_send_error",
			"chat_id": chat,
		}).WithError(err).Error("failed to send message")
	}
}

func (d *dispatcher) edit(ctx context.Context, chat int64, messageID int, resp reply.Response) {
	params := &bot.EditMessageTextParams{
		ChatID:    chat,
		MessageID: messageID,
		Text:      resp.Text,
	}
	if kb := inlineKeyboard(resp.Buttons); kb != nil {
		params.ReplyMarkup = kb
	}

	if _, err := d.api.EditMessageText(ctx, params); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":      "telegram_edit_error",
			"chat_id":    chat,
			"message_id": messageID,
		}).WithError(err).Warn("failed to edit message")
	}
}

func inlineKeyboard(rows [][]reply.Button) *models.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}

	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         b.Text,
				CallbackData: b.Data,
			})
		}
		keyboard = append(keyboard, buttons)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

// parseCommand splits "/name@bot rest" into its lowercase name and remainder.
func parseCommand(text string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	head, rest, _ := strings.Cut(text, " ")
	name := strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	return strings.ToLower(name), strings.TrimSpace(rest), true
}

func profile(user *models.User) domain.User {
	return domain.User{
		UserID:    user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}
