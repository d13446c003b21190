// Package telegram delivers UPS alerts through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	logx "github.com/samuelemusiani/ups-notifier/pkg/logx"
)

type Config struct {
	Token  string
	ChatID string
	// APIURL overrides the Bot API endpoint (default https://api.telegram.org).
	APIURL  string
	Timeout time.Duration
	// RatePerSec caps outgoing messages; Telegram allows about one per
	// second per chat.
	RatePerSec int
	IPv4Only   bool
}

// NotifyError reports a message that could not be delivered. The poll loop
// logs it and moves on; the message is not retried.
type NotifyError struct {
	ChatID string
	Err    error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("telegram notify chat %s: %v", e.ChatID, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// chat is a tele.Recipient for either a numeric id or an @username.
type chat string

func (c chat) Recipient() string { return string(c) }

type Notifier struct {
	bot     *tele.Bot
	chat    chat
	limiter *rate.Limiter
	log     logx.Logger
}

// New creates the notifier. It performs no network I/O; a bad token only
// shows up on the first Notify.
func New(cfg Config, log logx.Logger) (*Notifier, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if strings.TrimSpace(cfg.ChatID) == "" {
		return nil, errors.New("telegram chat_id is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}

	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(cfg.APIURL, "/"),
		Token:   cfg.Token,
		Client:  newHTTPClient(timeout, cfg.IPv4Only),
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Notifier{
		bot:     b,
		chat:    chat(strings.TrimSpace(cfg.ChatID)),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}, nil
}

// Notify sends msg (plain text) wrapped in the alert template. It blocks
// for one Bot API round-trip; failures are returned as *NotifyError.
func (n *Notifier) Notify(ctx context.Context, msg string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return &NotifyError{ChatID: string(n.chat), Err: err}
	}

	start := time.Now()
	m, err := n.bot.Send(n.chat, Format(msg), &tele.SendOptions{
		ParseMode:             tele.ModeMarkdownV2,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return &NotifyError{ChatID: string(n.chat), Err: err}
	}
	n.log.Debug("notification sent",
		logx.String("chat_id", string(n.chat)),
		logx.Int("message_id", m.ID),
		logx.Duration("took", time.Since(start)),
	)
	return nil
}
