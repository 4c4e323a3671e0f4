package session

import (
	"context"
	"log/slog"
	"time"

	"braces.dev/errtrace"

	"github.com/sipward/sipsession/log"
)

// PublicationOptions contains options for a [Publication].
type PublicationOptions struct {
	// Credentials is the auth material handed to the engine with every request.
	Credentials *Credentials
	// Expiry is the publication lifetime to request.
	// If zero, [DefaultExpiry] is used.
	Expiry time.Duration
	// Bus is the event bus shared with the transaction engine.
	// If nil, a private [NewBus] is used; that only works when the factory
	// publishes on the same bus.
	Bus EventBus
	// Log is the logger that will be used with the session.
	// If nil, the [log.Default] will be used.
	Log *slog.Logger
}

func (o *PublicationOptions) credentials() *Credentials {
	if o == nil {
		return nil
	}
	return o.Credentials
}

func (o *PublicationOptions) expiry() time.Duration {
	if o == nil || o.Expiry <= 0 {
		return DefaultExpiry
	}
	return o.Expiry
}

func (o *PublicationOptions) bus() EventBus {
	if o == nil || o.Bus == nil {
		return NewBus()
	}
	return o.Bus
}

func (o *PublicationOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

// Publication manages the publish/refresh/unpublish lifecycle for one
// (address-of-record, event package) pair. Successful publishes store the
// entity tag returned by the peer; a later body-less refresh presents it
// in SIP-If-Match for conditional update. It publishes Publication* events
// on the bus with itself as sender.
type Publication struct {
	baseSession
	eventPkg    string
	contentType string
	etag        string // guarded by mu
}

// NewPublication creates an idle publication session for the given
// address-of-record and event package. Options are optional, if nil,
// default values are used (see [PublicationOptions]).
func NewPublication(target, eventPkg, contentType string, txf TransactionFactory, opts *PublicationOptions) (*Publication, error) {
	if target == "" {
		return nil, errtrace.Wrap(NewInvalidArgumentError("target URI must not be empty"))
	}
	if eventPkg == "" {
		return nil, errtrace.Wrap(NewInvalidArgumentError("event package must not be empty"))
	}
	if contentType == "" {
		return nil, errtrace.Wrap(NewInvalidArgumentError("content type must not be empty"))
	}
	if txf == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("invalid transaction factory"))
	}

	p := &Publication{eventPkg: eventPkg, contentType: contentType}
	p.baseSession.init(p, p.handleTransaction, target, txf,
		opts.credentials(), opts.expiry(), opts.bus(), opts.log())
	return p, nil
}

// LogValue implements [slog.LogValuer].
func (p *Publication) LogValue() slog.Value {
	if p == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.String("target", p.target),
		slog.String("event", p.eventPkg),
		slog.String("state", string(p.state())),
	)
}

// Event returns the event package this session publishes for.
func (p *Publication) Event() string { return p.eventPkg }

// ContentType returns the content type of published bodies.
func (p *Publication) ContentType() string { return p.contentType }

// IsPublished reports whether a publication is currently confirmed.
func (p *Publication) IsPublished() bool { return p.isActive() }

// ExpiresIn returns the remaining lifetime of the confirmed publication,
// zero when inactive.
func (p *Publication) ExpiresIn() time.Duration { return p.expiresIn() }

// EntityTag returns the entity tag from the last successful publish, or
// empty when none is held.
func (p *Publication) EntityTag() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.etag
}

// OnEvent subscribes fn to this session's events on the bus.
func (p *Publication) OnEvent(fn EventHandler) (cancel func()) {
	return p.bus.Subscribe(p, fn)
}

// Publish sends a PUBLISH with the given body, superseding any in-flight
// attempt. A nil body is a conditional refresh: it requires a prior
// confirmed publish ([ErrInvalidArgument] otherwise) and a held entity tag
// ([ErrNoEntityTag] otherwise).
func (p *Publication) Publish(ctx context.Context, body []byte, route Route, opts *SendOptions) error {
	_, err := p.startTransaction(ctx, false, func(_ Transaction, callID string, cseq uint32) (*TransactionRequest, error) {
		if body == nil {
			if p.last == nil {
				return nil, NewInvalidArgumentError("initial publish requires a body")
			}
			if p.etag == "" {
				return nil, ErrNoEntityTag
			}
		}
		req := &TransactionRequest{
			Method:      RequestMethodPublish,
			From:        p.target,
			To:          p.target,
			Target:      p.target,
			Route:       route,
			Credentials: p.creds,
			CallID:      callID,
			CSeq:        cseq,
			Body:        body,
			Headers:     p.extraHeaders(expiresValue(p.expiry)),
		}
		if body != nil {
			req.ContentType = p.contentType
		}
		return req, nil
	}, opts)
	return errtrace.Wrap(err)
}

// End unpublishes by sending a zero-Expires PUBLISH reusing the confirmed
// publication's route, and publishes [PublicationWillEnd] before the
// outcome is known. Unlike [Registration.End], ending an inactive
// publication is an error ([ErrNotPublished]).
func (p *Publication) End(ctx context.Context, opts *SendOptions) error {
	started, err := p.startTransaction(ctx, true, func(_ Transaction, callID string, cseq uint32) (*TransactionRequest, error) {
		if p.last == nil {
			return nil, ErrNotPublished
		}
		return &TransactionRequest{
			Method:      RequestMethodPublish,
			From:        p.target,
			To:          p.target,
			Target:      p.target,
			Route:       p.last.Route(),
			Credentials: p.creds,
			CallID:      callID,
			CSeq:        cseq,
			Headers:     p.extraHeaders("0"),
		}, nil
	}, opts)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if started {
		p.publish(ctx, PublicationWillEnd{})
	}
	return nil
}

// extraHeaders runs with mu held (from startTransaction's build callback).
func (p *Publication) extraHeaders(expires string) map[string]string {
	hdrs := map[string]string{
		"Event":   p.eventPkg,
		"Expires": expires,
	}
	if p.etag != "" {
		hdrs["SIP-If-Match"] = p.etag
	}
	return hdrs
}

func (p *Publication) handleTransaction(ctx context.Context, sender any, evt Event) {
	tx, ok := sender.(Transaction)
	if !ok {
		return
	}
	switch e := evt.(type) {
	case RequestSucceeded:
		p.requestSucceeded(ctx, tx, e)
	case RequestFailed:
		p.requestFailed(ctx, tx, e)
	case RequestWillExpire:
		p.requestWillExpire(ctx, tx, e)
	case RequestEnded:
		p.requestEnded(ctx, tx)
	}
}

func (p *Publication) requestSucceeded(ctx context.Context, tx Transaction, e RequestSucceeded) {
	p.mu.Lock()
	if tx != p.current {
		p.mu.Unlock()
		return
	}
	p.current = nil

	if p.ending {
		retired := p.last
		p.last = nil
		p.etag = ""
		p.mustFire(sessEvtTornDown)
		p.mu.Unlock()

		if retired != nil {
			retired.End()
		}
		p.log.LogAttrs(ctx, slog.LevelDebug, "publication ended", slog.Any("publication", p))
		p.publish(ctx, PublicationEnded{Expired: false})
		return
	}

	p.last = tx
	// absent SIP-ETag leaves the session unable to refresh conditionally
	p.etag = e.Headers.Get("SIP-ETag")
	p.mustFire(sessEvtConfirm)
	p.mu.Unlock()

	p.log.LogAttrs(ctx, slog.LevelDebug, "publication succeeded",
		slog.Any("publication", p), slog.Any("expires_in", e.Expires))
	p.publish(ctx, PublicationSucceeded{
		Code:      e.Code,
		Reason:    reasonOr(e.Reason, e.Code),
		ExpiresIn: e.Expires,
		Route:     tx.Route(),
	})
}

func (p *Publication) requestFailed(ctx context.Context, tx Transaction, e RequestFailed) {
	p.mu.Lock()
	if tx != p.current {
		p.mu.Unlock()
		return
	}
	p.current = nil
	if e.Code == StatusConditionalRequestFailed {
		// the peer no longer knows our tag, next publish must carry a body
		p.etag = ""
	}
	ending := p.ending
	if ending {
		p.mustFire(sessEvtEndRefused)
	} else {
		p.mustFire(sessEvtReject)
	}
	p.mu.Unlock()

	p.log.LogAttrs(ctx, slog.LevelDebug, "publication request failed",
		slog.Any("publication", p), slog.Int("code", e.Code))
	if ending {
		p.publish(ctx, PublicationDidNotEnd{Code: e.Code, Reason: reasonOr(e.Reason, e.Code)})
		return
	}
	p.publish(ctx, PublicationFailed{Code: e.Code, Reason: reasonOr(e.Reason, e.Code), Route: tx.Route()})
}

func (p *Publication) requestWillExpire(ctx context.Context, tx Transaction, e RequestWillExpire) {
	p.mu.Lock()
	if tx != p.last {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.publish(ctx, PublicationWillExpire{Expires: e.Expires})
}

func (p *Publication) requestEnded(ctx context.Context, tx Transaction) {
	p.mu.Lock()
	p.unsubscribeLocked(tx)
	if tx != p.last {
		p.mu.Unlock()
		return
	}
	p.last = nil
	p.etag = ""
	stray := p.current
	p.current = nil
	p.mustFire(sessEvtTerminate)
	p.mu.Unlock()

	if stray != nil {
		stray.End()
	}
	p.log.LogAttrs(ctx, slog.LevelDebug, "publication terminated", slog.Any("publication", p))
	p.publish(ctx, PublicationEnded{Expired: true})
}
