package bot

import (
	"context"
	"strings"

	"github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/ynrrishabh/anime/internal/format"
)

// Telegram adapts incoming webhook updates onto the App handlers and
// implements Replier over the Bot API client.
type Telegram struct {
	bot *gotgbot.Bot
	app *App
}

func NewTelegram(botClient *gotgbot.Bot, app *App) *Telegram {
	return &Telegram{bot: botClient, app: app}
}

// HandleUpdate routes one decoded update. Each update owns only its own
// reply message, so updates may be handled concurrently without
// coordination.
func (t *Telegram) HandleUpdate(ctx context.Context, update gotgbot.Update) {
	switch {
	case update.CallbackQuery != nil:
		t.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil && strings.HasPrefix(update.Message.Text, "/"):
		t.handleCommandMessage(ctx, update.Message)
	}
}

func (t *Telegram) handleCommandMessage(ctx context.Context, message *gotgbot.Message) {
	name, args := splitCommand(message.Text)
	if name == "" {
		return
	}

	replier := &telegramReplier{bot: t.bot, chatID: message.Chat.Id}
	t.app.HandleCommand(ctx, name, args, replier)
}

func (t *Telegram) handleCallbackQuery(ctx context.Context, query *gotgbot.CallbackQuery) {
	// Answer immediately so the client stops its spinner; the real
	// response arrives as a message edit.
	_, _ = t.bot.AnswerCallbackQuery(query.Id, nil)

	if query.Message == nil {
		return
	}

	replier := &telegramReplier{
		bot:       t.bot,
		chatID:    query.Message.GetChat().Id,
		messageID: query.Message.GetMessageId(),
	}
	t.app.HandleCallback(ctx, query.Data, replier)
}

// splitCommand parses "/anime@SomeBot one piece" into ("anime", "one
// piece").
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	name, args, _ := strings.Cut(text[1:], " ")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	return strings.ToLower(strings.TrimSpace(name)), strings.TrimSpace(args)
}

type telegramReplier struct {
	bot       *gotgbot.Bot
	chatID    int64
	messageID int64
}

func (r *telegramReplier) ChatID() int64 {
	return r.chatID
}

func (r *telegramReplier) Send(text string, keyboard format.Keyboard) error {
	_, err := r.bot.SendMessage(r.chatID, text, &gotgbot.SendMessageOpts{
		ParseMode:   "HTML",
		ReplyMarkup: toMarkup(keyboard),
	})
	return err
}

func (r *telegramReplier) Edit(text string, keyboard format.Keyboard) error {
	_, _, err := r.bot.EditMessageText(text, &gotgbot.EditMessageTextOpts{
		ChatId:      r.chatID,
		MessageId:   r.messageID,
		ParseMode:   "HTML",
		ReplyMarkup: toMarkup(keyboard),
	})
	return err
}

func toMarkup(keyboard format.Keyboard) gotgbot.InlineKeyboardMarkup {
	rows := make([][]gotgbot.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]gotgbot.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			if button.URL != "" {
				buttons = append(buttons, gotgbot.InlineKeyboardButton{Text: button.Text, Url: button.URL})
				continue
			}
			buttons = append(buttons, gotgbot.InlineKeyboardButton{Text: button.Text, CallbackData: button.Data})
		}
		rows = append(rows, buttons)
	}
	return gotgbot.InlineKeyboardMarkup{InlineKeyboard: rows}
}
