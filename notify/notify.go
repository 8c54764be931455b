// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/danielhkuo/armonia/models"
)

// Notifier tells administrators about assembly milestones. Calls happen on
// the request path: implementations return without waiting on delivery and
// log failures instead of returning them.
type Notifier interface {
	QuorumReached(ctx context.Context, assembly models.Assembly, quorum models.QuorumResult)
	VoteClosed(ctx context.Context, vote models.Vote, results models.VoteResults)
}

// Noop discards every notification
type Noop struct{}

func (Noop) QuorumReached(context.Context, models.Assembly, models.QuorumResult) {}
func (Noop) VoteClosed(context.Context, models.Vote, models.VoteResults) {}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

const (
	// Bounds a single Bot API call
	sendTimeout = 10 * time.Second
	queueSize   = 32
)

type notification struct {
	text string
	args []any
}

// Telegram posts notifications to a single admin chat. Messages are queued
// and sent by one worker goroutine so callers never wait on the Bot API;
// a full queue drops the message.
type Telegram struct {
	api    sender
	chatID int64
	log    *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan notification
	done   chan struct{}
}

// NewTelegram authenticates the bot token against the Telegram API
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: sendTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return newTelegram(api, chatID, log), nil
}

func newTelegram(api sender, chatID int64, log *slog.Logger) *Telegram {
	if log == nil {
		log = slog.Default()
	}
	t := &Telegram{
		api:    api,
		chatID: chatID,
		log:    log,
		queue:  make(chan notification, queueSize),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

// New returns a Telegram notifier when both token and chat are configured,
// otherwise Noop.
func New(token string, chatID int64, log *slog.Logger) Notifier {
	if token == "" || chatID == 0 {
		return Noop{}
	}
	t, err := NewTelegram(token, chatID, log)
	if err != nil {
		log.Warn("telegram notifications disabled", "error", err)
		return Noop{}
	}
	return t
}

func (t *Telegram) QuorumReached(ctx context.Context, assembly models.Assembly, quorum models.QuorumResult) {
	t.enqueue(quorumReachedText(assembly, quorum), "assembly_id", assembly.ID)
}

func (t *Telegram) VoteClosed(ctx context.Context, vote models.Vote, results models.VoteResults) {
	t.enqueue(voteClosedText(vote, results), "vote_id", vote.ID)
}

// Close stops accepting notifications and waits for the queue to drain
func (t *Telegram) Close() error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()
	<-t.done
	return nil
}

func (t *Telegram) enqueue(text string, args ...any) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.log.Warn("telegram notifier closed, notification dropped", args...)
		return
	}
	select {
	case t.queue <- notification{text: text, args: args}:
	default:
		t.log.Warn("telegram queue full, notification dropped", args...)
	}
}

func (t *Telegram) run() {
	defer close(t.done)
	for n := range t.queue {
		t.send(n)
	}
}

func (t *Telegram) send(n notification) {
	msg := tgbotapi.NewMessage(t.chatID, n.text)
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("telegram send failed", append(n.args, "error", err)...)
	}
}

func quorumReachedText(assembly models.Assembly, quorum models.QuorumResult) string {
	return fmt.Sprintf("✅ Quórum alcanzado en «%s»: %.2f%% (requerido %.2f%%), %d de %d unidades presentes",
		assembly.Title, quorum.QuorumPercentage, quorum.RequiredQuorum, quorum.PresentUnits, quorum.TotalUnits)
}

func voteClosedText(vote models.Vote, results models.VoteResults) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗳 Votación cerrada: %s\n", vote.Title)
	fmt.Fprintf(&b, "Votos: %d, peso total: %.2f\n", results.TotalVotes, results.TotalWeight)
	for _, o := range results.Options {
		fmt.Fprintf(&b, "• %s: %d (%.2f%%)\n", o.Option, o.Count, o.Percentage)
	}
	return strings.TrimRight(b.String(), "\n")
}
