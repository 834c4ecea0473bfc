package bot

import (
	"context"
	"time"

	"github.com/cartonline/quotebot/internal/config"
	"github.com/cartonline/quotebot/internal/logging"
	"github.com/cartonline/quotebot/internal/maytapi"
	"github.com/cartonline/quotebot/internal/pipeline"
	"go.uber.org/zap"
)

const ReplySlowDown = "You are sending messages too quickly. Please wait a minute and try again."

type Runner interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Outcome
}

// Deduper records message ids; MarkSeen reports true the first time an id
// is seen.
type Deduper interface {
	MarkSeen(messageID string, at time.Time) (bool, error)
}

type Sessions interface {
	Allow(phone string) bool
	WithLock(phone string, fn func() error) error
}

type Messenger interface {
	SendText(ctx context.Context, to, text string) error
}

type Handler struct {
	clients   config.Clients
	seen      Deduper
	sessions  Sessions
	pipeline  Runner
	messenger Messenger
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(clients config.Clients, seen Deduper, sessions Sessions, p Runner, m Messenger, logger *zap.Logger) *Handler {
	return &Handler{
		clients:   clients,
		seen:      seen,
		sessions:  sessions,
		pipeline:  p,
		messenger: m,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckClient rejects Maytapi phone ids with no client configuration.
func (h *Handler) CheckClient(phoneID string) error {
	_, err := h.clients.Lookup(phoneID)
	return err
}

// HandleMessage runs the quote pipeline for one accepted webhook message.
func (h *Handler) HandleMessage(ctx context.Context, in maytapi.Inbound) {
	log := h.logger.With(logging.Phone(in.From), zap.String("client", in.ClientID), zap.String("message_id", in.MessageID))

	client, err := h.clients.Lookup(in.ClientID)
	if err != nil {
		log.Warn("bot: unknown client", zap.Error(err))
		return
	}

	if in.MessageID != "" {
		first, err := h.seen.MarkSeen(in.MessageID, h.now())
		if err != nil {
			log.Warn("bot: dedupe store failed, processing anyway", zap.Error(err))
		} else if !first {
			log.Info("bot: duplicate message skipped")
			return
		}
	}

	if !h.sessions.Allow(in.From) {
		log.Info("bot: rate limited")
		if err := h.messenger.SendText(ctx, in.From, ReplySlowDown); err != nil {
			log.Warn("bot: failed to send slow-down reply", zap.Error(err))
		}
		return
	}

	_ = h.sessions.WithLock(in.From, func() error {
		h.pipeline.Run(ctx, pipeline.Request{
			Client:    client,
			Phone:     in.From,
			Text:      in.Text,
			MessageID: in.MessageID,
		})
		return nil
	})
}
