package maytapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/cartonline/quotebot/internal/metrics"
	"go.uber.org/zap"
)

// Inbound is a text message that passed webhook filtering.
type Inbound struct {
	ClientID  string // Maytapi phone_id the message arrived on
	MessageID string
	From      string // sender phone number
	Name      string
	Text      string
}

// MessageHandler is called for each accepted text message.
type MessageHandler func(ctx context.Context, in Inbound)

// ClientCheck returns an error when phoneID is not a configured client.
type ClientCheck func(phoneID string) error

type WebhookHandler struct {
	checkClient ClientCheck
	onMessage   MessageHandler
	logger      *zap.Logger

	wg       sync.WaitGroup
	dispatch func(fn func())
}

func NewWebhookHandler(checkClient ClientCheck, onMessage MessageHandler, logger *zap.Logger) *WebhookHandler {
	h := &WebhookHandler{
		checkClient: checkClient,
		onMessage:   onMessage,
		logger:      logger,
	}
	h.dispatch = func(fn func()) {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			fn()
		}()
	}
	return h
}

// maxWebhookBody bounds the size of one webhook payload.
const maxWebhookBody = 1 << 20

// HandleIncoming processes one Maytapi webhook POST. The platform gets its
// 200 before the message is handled, so slow or failing collaborators never
// trigger webhook redelivery.
func (h *WebhookHandler) HandleIncoming(w http.ResponseWriter, r *http.Request) {
	var payload WebhookPayload
	body := http.MaxBytesReader(w, r.Body, maxWebhookBody)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		h.logger.Warn("webhook: failed to decode payload", zap.Error(err))
		metrics.WebhookEvents.WithLabelValues("malformed").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	if payload.Type != EventMessage {
		h.logger.Debug("webhook: ignoring event", zap.String("type", payload.Type))
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	clientID := string(payload.PhoneID)
	if err := h.checkClient(clientID); err != nil {
		h.logger.Warn("webhook: rejecting event", zap.String("phone_id", clientID), zap.Error(err))
		metrics.WebhookEvents.WithLabelValues("unknown_client").Inc()
		http.Error(w, "Unknown client phone_id", http.StatusBadRequest)
		return
	}

	msg := payload.Message
	text := strings.TrimSpace(msg.Text)
	if msg.Type != MessageText || msg.FromMe || text == "" || payload.User.Phone == "" {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	in := Inbound{
		ClientID:  clientID,
		MessageID: msg.ID,
		From:      payload.User.Phone,
		Name:      payload.User.Name,
		Text:      text,
	}
	ctx := context.WithoutCancel(r.Context())
	h.dispatch(func() { h.onMessage(ctx, in) })

	metrics.WebhookEvents.WithLabelValues("dispatched").Inc()
	w.WriteHeader(http.StatusOK)
}

// Wait blocks until dispatched messages finish or ctx is done.
func (h *WebhookHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("webhook: timed out waiting for in-flight messages")
	}
}
