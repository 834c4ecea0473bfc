package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cartonline/quotebot/internal/config"
	"github.com/cartonline/quotebot/internal/maytapi"
	"github.com/cartonline/quotebot/internal/pipeline"
	"github.com/cartonline/quotebot/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	reqs []pipeline.Request
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) pipeline.Outcome {
	f.reqs = append(f.reqs, req)
	return pipeline.Outcome{State: pipeline.StateCompleted}
}

type memSeen struct {
	ids map[string]bool
	err error
}

func (m *memSeen) MarkSeen(id string, _ time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.ids[id] {
		return false, nil
	}
	m.ids[id] = true
	return true, nil
}

type fakeMessenger struct {
	texts []string
}

func (f *fakeMessenger) SendText(_ context.Context, _, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

type fixture struct {
	h      *Handler
	runner *fakeRunner
	seen   *memSeen
	msg    *fakeMessenger
}

func newFixture(perMinute int) fixture {
	f := fixture{
		runner: &fakeRunner{},
		seen:   &memSeen{ids: map[string]bool{}},
		msg:    &fakeMessenger{},
	}
	clients := config.NewClients(config.Client{ID: "4821", SheetID: "sheet-1"})
	f.h = NewHandler(clients, f.seen, session.NewManager(perMinute), f.runner, f.msg, zap.NewNop())
	return f
}

func inbound(id, text string) maytapi.Inbound {
	return maytapi.Inbound{ClientID: "4821", MessageID: id, From: "919800000001", Text: text}
}

func TestHandleMessage_RunsPipeline(t *testing.T) {
	f := newFixture(10)

	f.h.HandleMessage(context.Background(), inbound("m1", "NFF 8x80 - 100"))

	require.Len(t, f.runner.reqs, 1)
	got := f.runner.reqs[0]
	assert.Equal(t, "sheet-1", got.Client.SheetID)
	assert.Equal(t, "Orders", got.Client.OrderSheet)
	assert.Equal(t, "919800000001", got.Phone)
	assert.Equal(t, "NFF 8x80 - 100", got.Text)
	assert.Equal(t, "m1", got.MessageID)
}

func TestHandleMessage_Duplicate(t *testing.T) {
	f := newFixture(10)

	f.h.HandleMessage(context.Background(), inbound("m1", "NFF 8x80 - 100"))
	f.h.HandleMessage(context.Background(), inbound("m1", "NFF 8x80 - 100"))

	assert.Len(t, f.runner.reqs, 1)
}

func TestHandleMessage_DedupeStoreErrorStillRuns(t *testing.T) {
	f := newFixture(10)
	f.seen.err = errors.New("bolt closed")

	f.h.HandleMessage(context.Background(), inbound("m1", "hi"))

	assert.Len(t, f.runner.reqs, 1)
}

func TestHandleMessage_RateLimited(t *testing.T) {
	f := newFixture(2)

	for _, id := range []string{"a", "b", "c"} {
		f.h.HandleMessage(context.Background(), inbound(id, "hi"))
	}

	assert.Len(t, f.runner.reqs, 2)
	assert.Equal(t, []string{ReplySlowDown}, f.msg.texts)
}

func TestHandleMessage_UnknownClient(t *testing.T) {
	f := newFixture(10)
	in := inbound("m1", "hi")
	in.ClientID = "9999"

	f.h.HandleMessage(context.Background(), in)

	assert.Empty(t, f.runner.reqs)
	assert.ErrorIs(t, f.h.CheckClient("9999"), config.ErrUnknownClient)
	assert.NoError(t, f.h.CheckClient("4821"))
}
