package session

import (
	"context"
	"log/slog"
	"sync"

	"braces.dev/errtrace"

	"github.com/sipward/sipsession/log"
)

// MessageOptions contains options for a [Message].
type MessageOptions struct {
	// Credentials is the auth material handed to the engine.
	Credentials *Credentials
	// Bus is the event bus shared with the transaction engine.
	// If nil, a private [NewBus] is used; that only works when the factory
	// publishes on the same bus.
	Bus EventBus
	// Log is the logger that will be used with the session.
	// If nil, the [log.Default] will be used.
	Log *slog.Logger
}

func (o *MessageOptions) credentials() *Credentials {
	if o == nil {
		return nil
	}
	return o.Credentials
}

func (o *MessageOptions) bus() EventBus {
	if o == nil || o.Bus == nil {
		return NewBus()
	}
	return o.Bus
}

func (o *MessageOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

// Message is a single-shot instant message session. It owns exactly one
// transaction, built at construction, and never sends a second request.
// It publishes [MessageSucceeded] or [MessageFailed] on the bus with
// itself as sender.
type Message struct {
	req *TransactionRequest
	tx  Transaction
	bus EventBus
	log *slog.Logger

	mu     sync.Mutex
	cancel func() // active bus subscription, nil when not subscribed
}

// NewMessage creates a message session and builds its transaction; ctx
// covers the construction only, dispatch takes its own context in [Message.Send].
// Options are optional, if nil, default values are used (see [MessageOptions]).
func NewMessage(ctx context.Context, from, to string, route Route, contentType string, body []byte, txf TransactionFactory, opts *MessageOptions) (*Message, error) {
	if from == "" || to == "" {
		return nil, errtrace.Wrap(NewInvalidArgumentError("from and to URIs must not be empty"))
	}
	if txf == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("invalid transaction factory"))
	}

	req := &TransactionRequest{
		Method:      RequestMethodMessage,
		From:        from,
		To:          to,
		Target:      to,
		Route:       route,
		Credentials: opts.credentials(),
		CSeq:        1,
		ContentType: contentType,
		Body:        body,
	}
	tx, err := txf.NewTransaction(ctx, req)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	m := &Message{req: req, tx: tx, bus: opts.bus(), log: opts.log()}
	return m, nil
}

// LogValue implements [slog.LogValuer].
func (m *Message) LogValue() slog.Value {
	if m == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.String("from", m.req.From),
		slog.String("to", m.req.To),
		slog.String("state", string(m.tx.State())),
	)
}

func (m *Message) FromURI() string { return m.req.From }

func (m *Message) ToURI() string { return m.req.To }

func (m *Message) Route() Route { return m.req.Route }

func (m *Message) ContentType() string { return m.req.ContentType }

func (m *Message) Body() []byte { return m.req.Body }

// IsSent reports whether the message left the initial state.
func (m *Message) IsSent() bool { return m.tx.State() != TransactionStateInit }

// InProgress reports whether the message is awaiting its outcome.
func (m *Message) InProgress() bool { return m.tx.State() == TransactionStateInProgress }

// OnEvent subscribes fn to this session's events on the bus.
func (m *Message) OnEvent(fn EventHandler) (cancel func()) {
	return m.bus.Subscribe(m, fn)
}

// Send dispatches the message. Sending twice returns [ErrAlreadySent];
// a dispatch failure is returned after the half-made bus subscription is
// removed, and leaves the message sendable again.
func (m *Message) Send(ctx context.Context, opts *SendOptions) error {
	m.mu.Lock()
	if m.tx.State() != TransactionStateInit {
		m.mu.Unlock()
		return errtrace.Wrap(ErrAlreadySent)
	}
	if m.cancel == nil {
		m.cancel = m.bus.Subscribe(m.tx, m.handleTransaction)
	}
	m.mu.Unlock()

	m.log.LogAttrs(ctx, slog.LevelDebug, "send message", slog.Any("message", m))
	if err := m.tx.Send(ctx, opts.timeout()); err != nil {
		m.mu.Lock()
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.mu.Unlock()
		return errtrace.Wrap(err)
	}
	return nil
}

// End terminates the underlying transaction. Valid in any state.
func (m *Message) End() { m.tx.End() }

func (m *Message) handleTransaction(ctx context.Context, sender any, evt Event) {
	tx, ok := sender.(Transaction)
	if !ok || tx != m.tx {
		return
	}
	switch e := evt.(type) {
	case RequestSucceeded:
		if e.Expires > 0 {
			// a MESSAGE has no lease, the engine should never report one
			tx.End()
		}
		m.log.LogAttrs(ctx, slog.LevelDebug, "message succeeded", slog.Any("message", m))
		m.bus.Publish(ctx, m, MessageSucceeded{})
	case RequestFailed:
		m.log.LogAttrs(ctx, slog.LevelDebug, "message failed",
			slog.Any("message", m), slog.Int("code", e.Code))
		m.bus.Publish(ctx, m, MessageFailed{Code: e.Code, Reason: reasonOr(e.Reason, e.Code)})
	case RequestEnded:
		m.mu.Lock()
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.mu.Unlock()
	}
}
