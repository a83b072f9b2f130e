package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/ports"
)

// Approver asks for draft approval over Telegram, so generated tweets
// can be reviewed away from the terminal before publishing.
type Approver struct {
	Bot      *tgbotapi.BotAPI
	ChatID   int64
	channels map[string]chan ports.Action
	mu       sync.Mutex
}

func NewApprover(token string, chatIDStr string) (*Approver, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id: %v", err)
	}

	a := &Approver{
		Bot:      bot,
		ChatID:   chatID,
		channels: make(map[string]chan ports.Action),
	}

	go a.listen()
	return a, nil
}

var _ ports.Approver = (*Approver)(nil)

func (a *Approver) listen() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery == nil {
			continue
		}

		callback := update.CallbackQuery
		action := ports.Action(callback.Data)

		a.mu.Lock()
		for msgID, ch := range a.channels {
			ch <- action
			delete(a.channels, msgID)

			callbackConfig := tgbotapi.NewCallback(callback.ID, "Choice recorded: "+string(action))
			a.Bot.Request(callbackConfig)

			edit := tgbotapi.NewEditMessageReplyMarkup(a.ChatID, update.CallbackQuery.Message.MessageID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
			a.Bot.Send(edit)
			break
		}
		a.mu.Unlock()
	}
}

// Confirm sends the draft with post/regenerate/discard buttons and
// blocks until a button is pressed or ctx is cancelled.
func (a *Approver) Confirm(ctx context.Context, title, body string) (ports.Action, error) {
	safeTitle := escapeMarkdown(title)
	safeBody := escapeMarkdown(body)

	msgText := fmt.Sprintf("*[%s]*\n\n%s", safeTitle, safeBody)
	msg := tgbotapi.NewMessage(a.ChatID, msgText)
	msg.ParseMode = "Markdown"

	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Post", string(ports.ActionPost)),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Regenerate", string(ports.ActionRegenerate)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Discard", string(ports.ActionDiscard)),
		),
	)

	sentMsg, err := a.Bot.Send(msg)
	if err != nil {
		return ports.ActionDiscard, err
	}

	respCh := make(chan ports.Action)
	msgKey := fmt.Sprintf("%d", sentMsg.MessageID)

	a.mu.Lock()
	a.channels[msgKey] = respCh
	a.mu.Unlock()

	select {
	case action := <-respCh:
		return action, nil
	case <-ctx.Done():
		return ports.ActionDiscard, ctx.Err()
	}
}

// escapeMarkdown escapes the characters Telegram's Markdown parser
// chokes on.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
