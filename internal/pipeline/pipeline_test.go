package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cartonline/quotebot/internal/config"
	"github.com/cartonline/quotebot/internal/quote"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testClient = config.Client{
	ID:            "4821",
	SheetID:       "sheet-1",
	PricingSheet:  "Product_Pricing",
	CustomerSheet: "Customer_Type",
	OrderSheet:    "Orders",
}

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type fakeReader struct {
	rows      map[string]*quote.PricingRow
	customers map[string]*quote.Customer
	rowErr    error
	custErr   error
	block     bool
}

func (f *fakeReader) PricingRow(ctx context.Context, sheetID, sheetName, product, size string) (*quote.PricingRow, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.rowErr != nil {
		return nil, f.rowErr
	}
	return f.rows[product+"|"+size], nil
}

func (f *fakeReader) Customer(_ context.Context, sheetID, sheetName, phone string) (*quote.Customer, error) {
	if f.custErr != nil {
		return nil, f.custErr
	}
	return f.customers[phone], nil
}

type appended struct {
	sheetID, sheetName string
	entry              quote.LogEntry
}

type fakeLedger struct {
	entries []appended
	err     error
}

func (f *fakeLedger) Append(_ context.Context, sheetID, sheetName string, e quote.LogEntry) error {
	f.entries = append(f.entries, appended{sheetID, sheetName, e})
	return f.err
}

type sent struct{ to, text string }

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeMessenger) SendText(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{to, text})
	return f.err
}

type fakeAssistant struct {
	reply string
	err   error
}

func (f fakeAssistant) Reply(context.Context, string, string) (string, error) {
	return f.reply, f.err
}

type fakeDocs struct {
	filenames []string
	renderErr error
	sendErr   error
}

func (f *fakeDocs) Render(q quote.Quote, phone string, at time.Time) (string, string, []byte, error) {
	if f.renderErr != nil {
		return "", "", nil, f.renderErr
	}
	return "q.pdf", "application/pdf", []byte("%PDF-1.3"), nil
}

func (f *fakeDocs) SendDocument(_ context.Context, to, filename, mimeType string, data []byte, caption string) error {
	f.filenames = append(f.filenames, filename)
	return f.sendErr
}

func nffRow() *quote.PricingRow {
	return &quote.PricingRow{
		Headers: []string{"Product Name", "Size", "1-10", "11-50", "51+"},
		Values:  []string{"NFF", "8x80", "150", "135", "120"},
	}
}

func newReader() *fakeReader {
	return &fakeReader{
		rows: map[string]*quote.PricingRow{"NFF|8x80": nffRow()},
		customers: map[string]*quote.Customer{
			"919800000001": {Type: "VIP", DiscountPercent: decimal.NewFromInt(10)},
		},
	}
}

func newTestPipeline(r SpreadsheetReader, l Ledger, m Messenger, opts ...Option) *Pipeline {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(r, l, m, zap.NewNop(), opts...)
}

func runText(p *Pipeline, phone, text string) Outcome {
	return p.Run(context.Background(), Request{Client: testClient, Phone: phone, Text: text, MessageID: "m1"})
}

func TestRun_CompletedQuote(t *testing.T) {
	ledger := &fakeLedger{}
	msg := &fakeMessenger{}
	p := newTestPipeline(newReader(), ledger, msg)

	out := runText(p, "919800000001", "NFF 8x80 - 100")

	require.Equal(t, StateCompleted, out.State)
	require.NoError(t, out.Err)
	require.NotNil(t, out.Quote)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, "120.00", out.Quote.UnitPrice.StringFixed(2))
	assert.Equal(t, "108.00", out.Quote.FinalUnitPrice.StringFixed(2))
	assert.Equal(t, "10800.00", out.Quote.TotalPrice.StringFixed(2))
	assert.Equal(t, quote.DeliveryTwoDays, out.Quote.DeliveryLabel)

	require.Len(t, msg.sent, 1)
	assert.Equal(t, "919800000001", msg.sent[0].to)
	assert.Equal(t, quote.FormatReply(*out.Quote), msg.sent[0].text)

	require.Len(t, ledger.entries, 1)
	got := ledger.entries[0]
	assert.Equal(t, "sheet-1", got.sheetID)
	assert.Equal(t, "Orders", got.sheetName)
	assert.Equal(t, quote.LogEntry{
		Timestamp:       "2026-03-10T09:30:00Z",
		CustomerPhone:   "919800000001",
		ProductName:     "NFF",
		Size:            "8x80",
		Quantity:        100,
		UnitPrice:       "120.00",
		DiscountPercent: "10",
		FinalUnitPrice:  "108.00",
		TotalPrice:      "10800.00",
		PaymentMethod:   quote.PaymentAdvance,
		DeliveryLabel:   quote.DeliveryTwoDays,
	}, got.entry)
}

func TestRun_NewCustomerDefaults(t *testing.T) {
	reader := newReader()
	reader.rows["Box|10x10"] = &quote.PricingRow{
		Headers: []string{"Product Name", "Size", "1-10", "11+"},
		Values:  []string{"Box", "10x10", "50", "45"},
	}
	p := newTestPipeline(reader, &fakeLedger{}, &fakeMessenger{})

	out := runText(p, "910000000000", "Box 10x10 - 5")

	require.Equal(t, StateCompleted, out.State)
	assert.Equal(t, quote.DefaultCustomerType, out.Quote.CustomerType)
	assert.True(t, out.Quote.DiscountPercent.IsZero())
	assert.Equal(t, "50.00", out.Quote.FinalUnitPrice.StringFixed(2))
	assert.Equal(t, quote.DeliverySameDay, out.Quote.DeliveryLabel)
}

func TestRun_PaymentMethodThreaded(t *testing.T) {
	ledger := &fakeLedger{}
	p := newTestPipeline(newReader(), ledger, &fakeMessenger{})

	out := runText(p, "919800000001", "NFF 8x80 - 100 cartons cod")

	require.Equal(t, StateCompleted, out.State)
	assert.Equal(t, quote.DeliverySevenDays, out.Quote.DeliveryLabel)
	require.Len(t, ledger.entries, 1)
	assert.Equal(t, quote.PaymentCOD, ledger.entries[0].entry.PaymentMethod)
}

func TestRun_Hint(t *testing.T) {
	tests := []struct {
		name      string
		assistant Assistant
		want      string
	}{
		{"no assistant", nil, quote.UsageHint},
		{"assistant reply", fakeAssistant{reply: "Hi! We sell rolls."}, "Hi! We sell rolls.\n\n" + quote.UsageHint},
		{"assistant failure", fakeAssistant{err: errors.New("quota")}, quote.UsageHint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.assistant != nil {
				opts = append(opts, WithAssistant(tt.assistant))
			}
			reader := newReader()
			ledger := &fakeLedger{}
			msg := &fakeMessenger{}
			p := newTestPipeline(reader, ledger, msg, opts...)

			out := runText(p, "919800000001", "hello")

			assert.Equal(t, StateRepliedWithHint, out.State)
			assert.ErrorIs(t, out.Err, quote.ErrNoMatch)
			require.Len(t, msg.sent, 1)
			assert.Equal(t, tt.want, msg.sent[0].text)
			assert.Empty(t, ledger.entries)
		})
	}
}

func TestRun_QuantityTooLarge(t *testing.T) {
	ledger := &fakeLedger{}
	msg := &fakeMessenger{}
	p := newTestPipeline(newReader(), ledger, msg)

	out := runText(p, "919800000001", "NFF 8x80 - 3000000000")

	assert.Equal(t, StateRepliedWithHint, out.State)
	assert.ErrorIs(t, out.Err, quote.ErrQuantityTooLarge)
	assert.Nil(t, out.Quote)
	require.Len(t, msg.sent, 1)
	assert.Equal(t, quote.UsageHint, msg.sent[0].text)
	assert.Empty(t, ledger.entries)
}

func TestRun_NotFound(t *testing.T) {
	ledger := &fakeLedger{}
	msg := &fakeMessenger{}
	p := newTestPipeline(newReader(), ledger, msg)

	out := runText(p, "919800000001", "XYZ 8x80 - 100")

	assert.Equal(t, StateRepliedNotFound, out.State)
	assert.ErrorIs(t, out.Err, quote.ErrProductNotFound)
	assert.Equal(t, quote.KindUserInput, quote.KindOf(out.Err))
	require.Len(t, msg.sent, 1)
	assert.Equal(t, quote.ReplyProductNotFound, msg.sent[0].text)
	assert.Empty(t, ledger.entries)
}

func TestRun_NoPrice(t *testing.T) {
	reader := newReader()
	reader.rows["NFF|8x80"] = &quote.PricingRow{
		Headers: []string{"Product Name", "Size", "1-10", "11-50"},
		Values:  []string{"NFF", "8x80", "150", "135"},
	}
	msg := &fakeMessenger{}
	p := newTestPipeline(reader, &fakeLedger{}, msg)

	out := runText(p, "919800000001", "NFF 8x80 - 100")

	assert.Equal(t, StateRepliedNoPrice, out.State)
	assert.ErrorIs(t, out.Err, quote.ErrNoPrice)
	require.Len(t, msg.sent, 1)
	assert.Equal(t, quote.ReplyNoPrice, msg.sent[0].text)
}

func TestRun_DataErrors(t *testing.T) {
	t.Run("discount above 100", func(t *testing.T) {
		reader := newReader()
		reader.customers["919800000001"] = &quote.Customer{Type: "VIP", DiscountPercent: decimal.NewFromInt(120)}
		ledger := &fakeLedger{}
		msg := &fakeMessenger{}
		p := newTestPipeline(reader, ledger, msg)

		out := runText(p, "919800000001", "NFF 8x80 - 100")

		assert.Equal(t, StateRepliedDataError, out.State)
		assert.ErrorIs(t, out.Err, quote.ErrDiscountOutOfRange)
		assert.Equal(t, quote.KindDataIntegrity, quote.KindOf(out.Err))
		assert.Nil(t, out.Quote)
		require.Len(t, msg.sent, 1)
		assert.Equal(t, quote.ReplyDataError, msg.sent[0].text)
		assert.Empty(t, ledger.entries)
	})

	t.Run("bad price cell", func(t *testing.T) {
		reader := newReader()
		reader.rows["NFF|8x80"].Values[4] = "TBD"
		msg := &fakeMessenger{}
		p := newTestPipeline(reader, &fakeLedger{}, msg)

		out := runText(p, "919800000001", "NFF 8x80 - 100")

		assert.Equal(t, StateRepliedDataError, out.State)
		assert.ErrorIs(t, out.Err, quote.ErrBadPriceCell)
	})
}

func TestRun_MalformedSlabSkipped(t *testing.T) {
	reader := newReader()
	reader.rows["NFF|8x80"] = &quote.PricingRow{
		Headers: []string{"Product Name", "Size", "a-b", "51+"},
		Values:  []string{"NFF", "8x80", "1", "120"},
	}
	p := newTestPipeline(reader, &fakeLedger{}, &fakeMessenger{})

	out := runText(p, "919800000001", "NFF 8x80 - 100")

	require.Equal(t, StateCompleted, out.State)
	assert.Equal(t, "108.00", out.Quote.FinalUnitPrice.StringFixed(2))
}

func TestRun_CollaboratorFailures(t *testing.T) {
	t.Run("pricing read", func(t *testing.T) {
		reader := newReader()
		reader.rowErr = errors.New("sheets: 503")
		msg := &fakeMessenger{}
		p := newTestPipeline(reader, &fakeLedger{}, msg)

		out := runText(p, "919800000001", "NFF 8x80 - 100")

		assert.Equal(t, StateFailed, out.State)
		assert.Equal(t, quote.KindCollaborator, quote.KindOf(out.Err))
		assert.Empty(t, msg.sent)
	})

	t.Run("customer read", func(t *testing.T) {
		reader := newReader()
		reader.custErr = errors.New("sheets: 500")
		p := newTestPipeline(reader, &fakeLedger{}, &fakeMessenger{})

		out := runText(p, "919800000001", "NFF 8x80 - 100")

		assert.Equal(t, StateFailed, out.State)
		assert.Equal(t, quote.KindCollaborator, quote.KindOf(out.Err))
	})

	t.Run("reply send still appends ledger", func(t *testing.T) {
		ledger := &fakeLedger{}
		msg := &fakeMessenger{err: errors.New("maytapi down")}
		p := newTestPipeline(newReader(), ledger, msg)

		out := runText(p, "919800000001", "NFF 8x80 - 100")

		assert.Equal(t, StateFailed, out.State)
		assert.ErrorContains(t, out.Err, "maytapi down")
		assert.Len(t, ledger.entries, 1)
	})

	t.Run("ledger append", func(t *testing.T) {
		ledger := &fakeLedger{err: errors.New("quota exceeded")}
		msg := &fakeMessenger{}
		p := newTestPipeline(newReader(), ledger, msg)

		out := runText(p, "919800000001", "NFF 8x80 - 100")

		assert.Equal(t, StateFailed, out.State)
		assert.ErrorContains(t, out.Err, "quota exceeded")
		assert.Len(t, msg.sent, 1)
	})

	t.Run("hint send", func(t *testing.T) {
		msg := &fakeMessenger{err: errors.New("maytapi down")}
		p := newTestPipeline(newReader(), &fakeLedger{}, msg)

		out := runText(p, "919800000001", "hello")

		assert.Equal(t, StateFailed, out.State)
		assert.Equal(t, quote.KindCollaborator, quote.KindOf(out.Err))
	})
}

func TestRun_CallTimeout(t *testing.T) {
	reader := newReader()
	reader.block = true
	p := newTestPipeline(reader, &fakeLedger{}, &fakeMessenger{}, WithCallTimeout(20*time.Millisecond))

	out := runText(p, "919800000001", "NFF 8x80 - 100")

	assert.Equal(t, StateFailed, out.State)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
}

func TestRun_Document(t *testing.T) {
	t.Run("sent after reply", func(t *testing.T) {
		docs := &fakeDocs{}
		p := newTestPipeline(newReader(), &fakeLedger{}, &fakeMessenger{}, WithDocument(docs, docs))

		out := runText(p, "919800000001", "NFF 8x80 - 100")

		assert.Equal(t, StateCompleted, out.State)
		assert.Equal(t, []string{"q.pdf"}, docs.filenames)
	})

	t.Run("failure does not change state", func(t *testing.T) {
		docs := &fakeDocs{sendErr: errors.New("media rejected")}
		p := newTestPipeline(newReader(), &fakeLedger{}, &fakeMessenger{}, WithDocument(docs, docs))

		out := runText(p, "919800000001", "NFF 8x80 - 100")

		assert.Equal(t, StateCompleted, out.State)
		assert.NoError(t, out.Err)
	})

	t.Run("skipped when reply failed", func(t *testing.T) {
		docs := &fakeDocs{}
		msg := &fakeMessenger{err: errors.New("down")}
		p := newTestPipeline(newReader(), &fakeLedger{}, msg, WithDocument(docs, docs))

		runText(p, "919800000001", "NFF 8x80 - 100")

		assert.Empty(t, docs.filenames)
	})
}

func TestRun_Idempotent(t *testing.T) {
	p := newTestPipeline(newReader(), &fakeLedger{}, &fakeMessenger{})

	a := runText(p, "919800000001", "NFF 8x80 - 100")
	b := runText(p, "919800000001", "NFF 8x80 - 100")

	require.Equal(t, StateCompleted, a.State)
	assert.Equal(t, a.Reply, b.Reply)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateReceived, StateParsed, StatePricingFound, StatePriceResolved, StateDiscountKnown, StateFormatted} {
		assert.False(t, s.Terminal(), s)
	}
	for _, s := range []State{StateRepliedWithHint, StateRepliedNotFound, StateRepliedNoPrice, StateRepliedDataError, StateCompleted, StateFailed} {
		assert.True(t, s.Terminal(), s)
	}
}
