package session

import (
	"context"
	"time"
)

//go:generate go tool mockgen -source=transaction.go -destination=../internal/testutil/sessmock/transaction.go -package=sessmock

// RequestMethod is a SIP request method handled by this layer.
type RequestMethod string

const (
	RequestMethodRegister RequestMethod = "REGISTER"
	RequestMethodPublish  RequestMethod = "PUBLISH"
	RequestMethodMessage  RequestMethod = "MESSAGE"
)

// TransactionState is the lifecycle state of a [Transaction].
// Transactions move from init to in_progress and then to exactly one of
// the terminal states; a terminated transaction is never reused.
type TransactionState string

const (
	TransactionStateInit       TransactionState = "init"
	TransactionStateInProgress TransactionState = "in_progress"
	TransactionStateSucceeded  TransactionState = "succeeded"
	TransactionStateFailed     TransactionState = "failed"
	TransactionStateEnded      TransactionState = "ended"
)

// IsTerminal reports whether the state is final.
func (s TransactionState) IsTerminal() bool {
	switch s {
	case TransactionStateSucceeded, TransactionStateFailed, TransactionStateEnded:
		return true
	default:
		return false
	}
}

// Credentials is authentication material threaded through to the engine.
// This layer never inspects it.
type Credentials struct {
	Username string
	Realm    string
	Password string
}

// TransactionRequest describes one outgoing request for the engine to build.
type TransactionRequest struct {
	Method RequestMethod
	// From, To and Target are opaque URIs; the session layer never parses
	// them beyond deriving the REGISTER request target from the
	// address-of-record host.
	From   string
	To     string
	Target string
	// ContactURI is the contact to advertise, REGISTER only.
	ContactURI  string
	Route       Route
	Credentials *Credentials
	// CallID correlates the request with the dialog of its predecessor.
	// Empty on the first request of a session; the engine generates one.
	CallID string
	CSeq   uint32
	// ContentType and Body are set together; both empty for body-less requests.
	ContentType string
	Body        []byte
	// Headers carries the extra protocol headers (Expires, Event, SIP-If-Match).
	Headers map[string]string
}

// Transaction represents one outgoing SIP request and its eventual outcome,
// produced by the external transaction engine. Implementations must be
// comparable by identity (pointer types): sessions use equality to match
// completion events against the transaction they originated from, and bus
// subscriptions are keyed by the transaction value.
//
// Outcomes are not returned from Send; they arrive later as events
// published on the bus with the transaction as sender.
type Transaction interface {
	// Send dispatches the request. It returns an error only when dispatch
	// itself fails; protocol outcomes are delivered asynchronously.
	// A zero timeout means the engine default.
	Send(ctx context.Context, timeout time.Duration) error
	// End terminates the transaction. Idempotent, asynchronous: the
	// terminal [RequestEnded] event follows on the bus.
	End()

	CallID() string
	CSeq() uint32
	ContactURI() string
	Route() Route
	State() TransactionState
	// ExpiresIn is the remaining lifetime granted by the peer,
	// non-zero only after a successful response carrying an expiry.
	ExpiresIn() time.Duration
}

// TransactionFactory builds transactions. Implemented by the transaction
// engine; the factory and the sessions must share one [EventBus].
type TransactionFactory interface {
	NewTransaction(ctx context.Context, req *TransactionRequest) (Transaction, error)
}

// SendOptions are per-operation options for Register, Publish, Send and End.
type SendOptions struct {
	// Timeout bounds the engine-side wait for a final response.
	// Zero means the engine default.
	Timeout time.Duration
}

func (o *SendOptions) timeout() time.Duration {
	if o == nil {
		return 0
	}
	return o.Timeout
}
