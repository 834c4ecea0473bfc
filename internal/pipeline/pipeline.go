// Package pipeline runs one inbound message through the quoting state
// machine: parse, pricing lookup, slab resolution, customer lookup,
// discounting, formatting, reply and ledger append.
//
// Every run ends in exactly one terminal state. User-facing outcomes
// (hint, not found, no price, data error) send a fixed reply; collaborator
// failures and timeouts end in StateFailed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cartonline/quotebot/internal/config"
	"github.com/cartonline/quotebot/internal/logging"
	"github.com/cartonline/quotebot/internal/metrics"
	"github.com/cartonline/quotebot/internal/quote"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultCallTimeout = 10 * time.Second

// SpreadsheetReader looks up pricing and customer rows. A nil result with a
// nil error means the row does not exist.
type SpreadsheetReader interface {
	PricingRow(ctx context.Context, sheetID, sheetName, product, size string) (*quote.PricingRow, error)
	Customer(ctx context.Context, sheetID, sheetName, phone string) (*quote.Customer, error)
}

// Ledger appends one quote to the order log.
type Ledger interface {
	Append(ctx context.Context, sheetID, sheetName string, e quote.LogEntry) error
}

type Messenger interface {
	SendText(ctx context.Context, to, text string) error
}

// Assistant answers messages that are not quote requests.
type Assistant interface {
	Reply(ctx context.Context, phone, text string) (string, error)
}

type DocumentSender interface {
	SendDocument(ctx context.Context, to, filename, mimeType string, data []byte, caption string) error
}

// DocumentRenderer turns a finished quote into a document attachment.
type DocumentRenderer interface {
	Render(q quote.Quote, phone string, at time.Time) (filename, mimeType string, data []byte, err error)
}

// Request is one inbound text message for a resolved client.
type Request struct {
	Client    config.Client
	Phone     string
	Text      string
	MessageID string
}

// Outcome is the result of a run. Quote is set once the run reached
// StateFormatted. Err is nil for StateCompleted and carries the cause for
// every other terminal state.
type Outcome struct {
	RunID string
	State State
	Quote *quote.Quote
	Reply string
	Err   error
}

type Pipeline struct {
	reader    SpreadsheetReader
	ledger    Ledger
	messenger Messenger
	logger    *zap.Logger

	assistant Assistant
	renderer  DocumentRenderer
	documents DocumentSender

	timeout time.Duration
	now     func() time.Time
}

type Option func(*Pipeline)

// WithAssistant enables free-form replies for unparseable messages.
func WithAssistant(a Assistant) Option {
	return func(p *Pipeline) { p.assistant = a }
}

// WithDocument sends a rendered copy of each completed quote after the text
// reply.
func WithDocument(r DocumentRenderer, s DocumentSender) Option {
	return func(p *Pipeline) {
		p.renderer = r
		p.documents = s
	}
}

// WithCallTimeout bounds every collaborator call.
func WithCallTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(reader SpreadsheetReader, ledger Ledger, messenger Messenger, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		reader:    reader,
		ledger:    ledger,
		messenger: messenger,
		logger:    logger,
		timeout:   DefaultCallTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run drives req from StateReceived to a terminal state. It never panics on
// collaborator errors and never returns them to the caller other than
// through Outcome.
func (p *Pipeline) Run(ctx context.Context, req Request) Outcome {
	id := uuid.NewString()
	r := &run{
		p:   p,
		req: req,
		log: p.logger.With(
			zap.String("run_id", id),
			zap.String("client", req.Client.ID),
			logging.Phone(req.Phone),
			zap.String("message_id", req.MessageID),
		),
	}

	state := StateReceived
	for !state.Terminal() {
		next := r.step(ctx, state)
		r.log.Debug("pipeline: transition", zap.Stringer("from", state), zap.Stringer("to", next))
		state = next
	}

	metrics.PipelineRuns.WithLabelValues(state.String()).Inc()
	r.logOutcome(state)

	return Outcome{RunID: id, State: state, Quote: r.quote, Reply: r.reply, Err: r.err}
}

// run carries the values produced by each state for one message.
type run struct {
	p   *Pipeline
	req Request
	log *zap.Logger

	parsed   quote.Request
	row      *quote.PricingRow
	slab     quote.SlabMatch
	customer quote.Customer
	quote    *quote.Quote
	reply    string
	err      error
}

func (r *run) step(ctx context.Context, s State) State {
	switch s {
	case StateReceived:
		return r.parse(ctx)
	case StateParsed:
		return r.lookupPricing(ctx)
	case StatePricingFound:
		return r.resolvePrice(ctx)
	case StatePriceResolved:
		return r.lookupCustomer(ctx)
	case StateDiscountKnown:
		return r.format(ctx)
	case StateFormatted:
		return r.deliver(ctx)
	}
	r.err = fmt.Errorf("no transition out of state %s", s)
	return StateFailed
}

func (r *run) parse(ctx context.Context) State {
	req, err := quote.ParseRequest(r.req.Text)
	if err == nil {
		r.parsed = req
		return StateParsed
	}
	r.err = err

	text := quote.UsageHint
	if r.p.assistant != nil {
		var answer string
		callErr := r.call(ctx, func(ctx context.Context) error {
			var err error
			answer, err = r.p.assistant.Reply(ctx, r.req.Phone, r.req.Text)
			return err
		})
		if callErr != nil {
			r.log.Warn("pipeline: assistant reply failed, sending hint only", zap.Error(callErr))
		} else {
			text = answer + "\n\n" + quote.UsageHint
		}
	}
	return r.replyAndEnd(ctx, text, StateRepliedWithHint)
}

func (r *run) lookupPricing(ctx context.Context) State {
	c := r.req.Client
	err := r.call(ctx, func(ctx context.Context) error {
		var err error
		r.row, err = r.p.reader.PricingRow(ctx, c.SheetID, c.PricingSheet, r.parsed.ProductName, r.parsed.Size)
		return err
	})
	if err != nil {
		r.err = quote.Collaborator("pricing lookup", err)
		return StateFailed
	}
	if r.row == nil {
		r.err = quote.UserInput("pricing lookup", quote.ErrProductNotFound)
		return r.replyAndEnd(ctx, quote.ReplyProductNotFound, StateRepliedNotFound)
	}
	return StatePricingFound
}

func (r *run) resolvePrice(ctx context.Context) State {
	match, err := quote.ResolveSlab(r.row, r.parsed.Quantity)
	if len(match.Malformed) > 0 {
		r.log.Warn("pipeline: skipped malformed slab labels",
			zap.String("product", r.parsed.ProductName),
			zap.String("size", r.parsed.Size),
			zap.Strings("labels", match.Malformed),
		)
	}
	if err != nil {
		r.err = err
		if quote.KindOf(err) == quote.KindDataIntegrity {
			return r.replyAndEnd(ctx, quote.ReplyDataError, StateRepliedDataError)
		}
		return r.replyAndEnd(ctx, quote.ReplyNoPrice, StateRepliedNoPrice)
	}
	r.slab = match
	return StatePriceResolved
}

func (r *run) lookupCustomer(ctx context.Context) State {
	c := r.req.Client
	var found *quote.Customer
	err := r.call(ctx, func(ctx context.Context) error {
		var err error
		found, err = r.p.reader.Customer(ctx, c.SheetID, c.CustomerSheet, r.req.Phone)
		return err
	})
	if err != nil {
		r.err = quote.Collaborator("customer lookup", err)
		return StateFailed
	}
	if found == nil {
		r.customer = quote.NewCustomer()
	} else {
		r.customer = *found
	}
	return StateDiscountKnown
}

func (r *run) format(ctx context.Context) State {
	q, err := quote.Build(r.parsed, r.slab, r.customer)
	if err != nil {
		r.err = err
		return r.replyAndEnd(ctx, quote.ReplyDataError, StateRepliedDataError)
	}
	r.quote = &q
	r.reply = quote.FormatReply(q)
	return StateFormatted
}

// deliver sends the reply and then appends the ledger row. The append runs
// even when the send failed; the two collaborators are independent.
func (r *run) deliver(ctx context.Context) State {
	at := r.p.now()
	c := r.req.Client

	sendErr := r.call(ctx, func(ctx context.Context) error {
		return r.p.messenger.SendText(ctx, r.req.Phone, r.reply)
	})
	if sendErr != nil {
		sendErr = quote.Collaborator("send reply", sendErr)
	}

	entry := quote.NewLogEntry(at, r.req.Phone, *r.quote)
	appendErr := r.call(ctx, func(ctx context.Context) error {
		return r.p.ledger.Append(ctx, c.SheetID, c.OrderSheet, entry)
	})
	if appendErr != nil {
		appendErr = quote.Collaborator("ledger append", appendErr)
	}

	if sendErr == nil {
		r.sendDocument(ctx, at)
	}

	if err := errors.Join(sendErr, appendErr); err != nil {
		r.err = err
		return StateFailed
	}
	return StateCompleted
}

// sendDocument is best effort; failures are logged and do not change the
// run's state.
func (r *run) sendDocument(ctx context.Context, at time.Time) {
	if r.p.renderer == nil || r.p.documents == nil {
		return
	}
	filename, mimeType, data, err := r.p.renderer.Render(*r.quote, r.req.Phone, at)
	if err != nil {
		r.log.Warn("pipeline: rendering quote document failed", zap.Error(err))
		return
	}
	err = r.call(ctx, func(ctx context.Context) error {
		return r.p.documents.SendDocument(ctx, r.req.Phone, filename, mimeType, data, "Your quotation")
	})
	if err != nil {
		r.log.Warn("pipeline: sending quote document failed", zap.Error(err))
	}
}

// replyAndEnd sends a fixed reply and moves to terminal. A failed send
// turns the run into StateFailed.
func (r *run) replyAndEnd(ctx context.Context, text string, terminal State) State {
	r.reply = text
	err := r.call(ctx, func(ctx context.Context) error {
		return r.p.messenger.SendText(ctx, r.req.Phone, text)
	})
	if err != nil {
		r.err = errors.Join(quote.Collaborator("send reply", err), r.err)
		return StateFailed
	}
	return terminal
}

func (r *run) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.p.timeout)
	defer cancel()
	return fn(ctx)
}

func (r *run) logOutcome(s State) {
	fields := []zap.Field{zap.Stringer("state", s)}
	if r.quote != nil {
		fields = append(fields,
			zap.String("product", r.quote.ProductName),
			zap.String("size", r.quote.Size),
			zap.Int("quantity", r.quote.Quantity),
			zap.String("total", r.quote.TotalPrice.StringFixed(2)),
		)
	}
	if r.err != nil {
		fields = append(fields, zap.String("kind", string(quote.KindOf(r.err))), zap.Error(r.err))
	}

	switch s {
	case StateFailed, StateRepliedDataError:
		r.log.Error("pipeline: run finished", fields...)
	default:
		r.log.Info("pipeline: run finished", fields...)
	}
}
