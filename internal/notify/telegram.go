// Package notify tells the organisers about new and edited registrations.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/services"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a message to the admin chat for selected store events.
// Sending never blocks or fails the mutation that produced the event.
type Telegram struct {
	bot     Sender
	chatID  int64
	enabled func() bool
	log     *zap.Logger
}

// NewTelegram connects to the Bot API with token.
func NewTelegram(token string, chatID int64, enabled func() bool, log *zap.Logger) (*Telegram, error) {
	b, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewTelegramWithSender(b, chatID, enabled, log), nil
}

func NewTelegramWithSender(s Sender, chatID int64, enabled func() bool, log *zap.Logger) *Telegram {
	return &Telegram{bot: s, chatID: chatID, enabled: enabled, log: log}
}

// Attach subscribes the notifier to store events.
func (t *Telegram) Attach(store *services.RecordStore) {
	store.Subscribe(t.Handle)
}

func (t *Telegram) Handle(ev services.Event) {
	if !t.enabled() {
		return
	}
	text, ok := Message(ev)
	if !ok {
		return
	}
	go t.send(text)
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn("telegram notification failed", zap.Error(err))
	}
}

// Message renders ev for the admin chat. ok is false for events that are
// not announced.
func Message(ev services.Event) (string, bool) {
	if ev.Team == nil {
		return "", false
	}
	var title string
	switch ev.Kind {
	case services.EventTeamCreated:
		title = "🆕 New team registered"
	case services.EventTeamUpdated:
		title = "✏️ Team updated"
	default:
		return "", false
	}

	tm := ev.Team
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", title)
	fmt.Fprintf(&b, "#%d %s [%s]\n", tm.ID, tgbotapi.EscapeText(tgbotapi.ModeHTML, tm.Name), tgbotapi.EscapeText(tgbotapi.ModeHTML, tm.Tag))
	for _, p := range tm.Players {
		fmt.Fprintf(&b, "%d. %s (%s)\n", p.Position, tgbotapi.EscapeText(tgbotapi.ModeHTML, p.Nickname), tgbotapi.EscapeText(tgbotapi.ModeHTML, p.PlayerID))
	}
	if r := tm.ReservePlayer; r != nil {
		fmt.Fprintf(&b, "Reserve: %s (%s)\n", tgbotapi.EscapeText(tgbotapi.ModeHTML, r.Nickname), tgbotapi.EscapeText(tgbotapi.ModeHTML, r.PlayerID))
	}
	if c := tm.Contacts.Telegram; c != "" {
		fmt.Fprintf(&b, "Telegram: %s\n", tgbotapi.EscapeText(tgbotapi.ModeHTML, c))
	}
	if c := tm.Contacts.VK; c != "" {
		fmt.Fprintf(&b, "VK: %s\n", tgbotapi.EscapeText(tgbotapi.ModeHTML, c))
	}
	return strings.TrimRight(b.String(), "\n"), true
}
