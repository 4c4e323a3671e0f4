// Package session implements the client-side session lifecycle layer of a
// SIP user agent: long-lived, periodically refreshed REGISTER and PUBLISH
// dialogs and one-shot MESSAGE sends, built on top of an external SIP
// transaction engine.
//
// The engine is consumed through two narrow contracts. [TransactionFactory]
// builds a [Transaction] from a [TransactionRequest]; the transaction owns
// the wire protocol, retransmissions and timeouts. Outcomes are delivered
// asynchronously over an [EventBus] keyed by the transaction, as
// [RequestSucceeded], [RequestFailed], [RequestWillExpire] and
// [RequestEnded] events. The application must hand the same bus to the
// engine and to the sessions it creates.
//
// Sessions track at most one in-flight transaction and at most one
// confirmed transaction. Starting a new operation ends and forgets the
// in-flight one; the replacement inherits its Call-ID and increments its
// CSeq, so a refresh cycle stays within one dialog. Completion callbacks
// compare transaction identity before acting: an outcome for a superseded
// transaction is a no-op apart from observer cleanup.
//
// # Locking
//
// Each session guards its state with a plain mutex. The lock is never held
// across calls into [Transaction.Send], [Transaction.End] or
// [EventBus.Publish], so an engine that reports completion synchronously
// from Send, or a bus that dispatches on the publisher's goroutine, cannot
// deadlock the session. The in-flight reference is installed before Send
// and rolled back if dispatch fails, which keeps the identity checks
// correct even when the outcome races the Send call itself. One visible
// consequence: with such a synchronous engine a teardown completes inside
// Send, so its Ended event reaches subscribers before the WillEnd event
// that End publishes after Send returns. With an engine that reports
// asynchronously, WillEnd precedes the outcome as usual.
//
// Sessions never retry on their own. Refreshing before expiry is the
// caller's job, typically from a timer armed on the Succeeded and
// WillExpire events.
package session
