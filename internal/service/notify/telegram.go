package notify

import (
	"context"
	"time"

	drepo "PerpSignals/internal/domain/repository"
	"PerpSignals/internal/service/ratelimit"
	phttp "PerpSignals/pkg/http"
	"PerpSignals/pkg/logger"
)

const telegramAPI = "https://api.telegram.org/bot"

// Bot API throttling: short bursts allowed, sustained rate kept safely below
// Telegram's per-chat limit.
const (
	burstLimit    = 5
	msgsPerSecond = 0.5
)

// Telegram delivers messages through the Bot API. Delivery is best effort:
// failures are logged and reported through the bool return, the engine never
// blocks or retries on them.
type Telegram struct {
	token   string
	chatID  int64
	http    *phttp.Client
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(token string, chatID int64, log *logger.Logger) drepo.Notifier {
	return &Telegram{
		token:   token,
		chatID:  chatID,
		http:    phttp.NewClient(phttp.WithTimeout(10 * time.Second)),
		limiter: ratelimit.New(),
		log:     log,
	}
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Notify sends one message to the configured chat.
func (t *Telegram) Notify(ctx context.Context, text string) bool {
	if !t.limiter.Allow("telegram", burstLimit, msgsPerSecond) {
		t.log.Warn("telegram: rate limited, message dropped")
		return false
	}

	var resp sendMessageResponse
	err := t.http.SendAndParse(ctx, &phttp.RequestOptions{
		Method: phttp.MethodPost,
		URL:    telegramAPI + t.token + "/sendMessage",
		Body: sendMessageRequest{
			ChatID:    t.chatID,
			Text:      text,
			ParseMode: "HTML",
		},
	}, &resp)
	if err != nil {
		t.log.Warn("telegram: send failed", logger.Error(err))
		return false
	}
	if !resp.OK {
		t.log.Warn("telegram: rejected", logger.String("description", resp.Description))
		return false
	}
	return true
}

// Nop is a disabled notifier.
type Nop struct{}

// Notify drops the message.
func (Nop) Notify(context.Context, string) bool { return true }
