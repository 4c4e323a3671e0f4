package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sipward/sipsession/session"
)

// stubEngine is a controllable in-memory transaction engine. It records
// every transaction it builds; tests drive outcomes by publishing the
// transaction events on the shared bus, the way a real engine's worker
// context would.
type stubEngine struct {
	bus session.EventBus

	mu      sync.Mutex
	txs     []*stubTransaction
	newCtx  context.Context
	sendErr error
	nextID  int
}

func newStubEngine(bus session.EventBus) *stubEngine {
	return &stubEngine{bus: bus}
}

func (e *stubEngine) NewTransaction(ctx context.Context, req *session.TransactionRequest) (session.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.newCtx = ctx
	e.nextID++
	callID := req.CallID
	if callID == "" {
		callID = fmt.Sprintf("call-%d", e.nextID)
	}
	tx := &stubTransaction{eng: e, req: req, callID: callID, state: session.TransactionStateInit}
	e.txs = append(e.txs, tx)
	return tx, nil
}

// failNextSend makes the next Send on any transaction fail with err.
func (e *stubEngine) failNextSend(err error) {
	e.mu.Lock()
	e.sendErr = err
	e.mu.Unlock()
}

func (e *stubEngine) lastNewCtx() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newCtx
}

func (e *stubEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.txs)
}

func (e *stubEngine) tx(t *testing.T, i int) *stubTransaction {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if i >= len(e.txs) {
		t.Fatalf("engine built %d transactions, want at least %d", len(e.txs), i+1)
	}
	return e.txs[i]
}

type stubTransaction struct {
	eng    *stubEngine
	req    *session.TransactionRequest
	callID string

	mu        sync.Mutex
	state     session.TransactionState
	expiresIn time.Duration
	sendCalls int
	endCalls  int
}

func (t *stubTransaction) Send(_ context.Context, _ time.Duration) error {
	t.eng.mu.Lock()
	err := t.eng.sendErr
	t.eng.sendErr = nil
	t.eng.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendCalls++
	if err != nil {
		return err
	}
	t.state = session.TransactionStateInProgress
	return nil
}

// End is advisory, like the real engine's: it marks the transaction ended
// but reports no event. Tests deliver the terminal RequestEnded event
// explicitly via reportEnded.
func (t *stubTransaction) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endCalls++
	t.state = session.TransactionStateEnded
}

func (t *stubTransaction) CallID() string { return t.callID }

func (t *stubTransaction) CSeq() uint32 { return t.req.CSeq }

func (t *stubTransaction) ContactURI() string { return t.req.ContactURI }

func (t *stubTransaction) Route() session.Route { return t.req.Route }

func (t *stubTransaction) State() session.TransactionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *stubTransaction) ExpiresIn() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expiresIn
}

func (t *stubTransaction) sends() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sendCalls
}

func (t *stubTransaction) ends() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endCalls
}

func (t *stubTransaction) succeed(code int, hdrs session.Headers, expires time.Duration) {
	t.mu.Lock()
	t.state = session.TransactionStateSucceeded
	t.expiresIn = expires
	t.mu.Unlock()
	t.eng.bus.Publish(context.Background(), t, session.RequestSucceeded{Code: code, Headers: hdrs, Expires: expires})
}

func (t *stubTransaction) fail(code int, reason string) {
	t.mu.Lock()
	t.state = session.TransactionStateFailed
	t.mu.Unlock()
	t.eng.bus.Publish(context.Background(), t, session.RequestFailed{Code: code, Reason: reason})
}

func (t *stubTransaction) reportWillExpire(expires time.Duration) {
	t.eng.bus.Publish(context.Background(), t, session.RequestWillExpire{Expires: expires})
}

func (t *stubTransaction) reportEnded() {
	t.mu.Lock()
	t.state = session.TransactionStateEnded
	t.mu.Unlock()
	t.eng.bus.Publish(context.Background(), t, session.RequestEnded{})
}

// eventRecorder collects the session-level events published for one sender.
type eventRecorder struct {
	mu     sync.Mutex
	events []session.Event
	cancel func()
}

func recordEvents(t *testing.T, bus session.EventBus, sender any) *eventRecorder {
	t.Helper()
	r := &eventRecorder{}
	r.cancel = bus.Subscribe(sender, func(_ context.Context, _ any, evt session.Event) {
		r.mu.Lock()
		r.events = append(r.events, evt)
		r.mu.Unlock()
	})
	t.Cleanup(r.cancel)
	return r
}

// take drains and returns the recorded events.
func (r *eventRecorder) take() []session.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = nil
	return events
}
