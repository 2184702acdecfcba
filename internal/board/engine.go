package board

import (
	"context"
	"errors"
	"fmt"

	"github.com/avens/taskdeck/internal/api"
	"github.com/avens/taskdeck/internal/domain"
	"github.com/sirupsen/logrus"
)

// Service is the slice of the work-item API the engine issues transitions
// through. api.Client implements it; tests substitute fakes.
type Service interface {
	SetItemStatus(ctx context.Context, itemID string, status domain.Status) (*domain.WorkItem, error)
	StartItem(ctx context.Context, itemID string) (*domain.WorkItem, error)
	SubmitItemForReview(ctx context.Context, itemID string) (*domain.WorkItem, error)
	CompleteItem(ctx context.Context, itemID string) (*domain.WorkItem, error)
	ReopenItem(ctx context.Context, itemID string) (*domain.WorkItem, error)
}

// Outcome is the terminal resolution kind of a reconciliation.
type Outcome int

const (
	// OutcomeConfirmed means the server acknowledged the transition.
	OutcomeConfirmed Outcome = iota
	// OutcomeReverted means the call failed and the optimistic change was
	// rolled back.
	OutcomeReverted
	// OutcomeConflict means the server rejected the transition because its
	// state diverged from the client's assumption; the change was rolled back.
	OutcomeConflict
	// OutcomeSuperseded means a full board reload cleared the transition
	// while its call was in flight. The reloaded state is authoritative and
	// the call result is discarded without touching the store.
	OutcomeSuperseded
)

// Resolution reports how a pending transition ended. Every issued call
// produces exactly one Resolution; the engine never leaves a transition open
// after its call returns.
type Resolution struct {
	ItemID  string
	From    domain.Status
	To      domain.Status
	Outcome Outcome
	Item    *domain.WorkItem // final item state on confirmation, nil otherwise
	Err     error
	Message string // user-facing toast text for failures, empty on success

	// Notification context captured on the event loop at confirmation time,
	// so Notify never reads the store from another goroutine.
	actorID string
	project *domain.Project
}

// Engine is the optimistic mutator and reconciliation controller.
//
// Store mutations (Begin, Finish) must run on the event-loop goroutine that
// owns the store. Call and Notify only touch the network and may run
// anywhere; event-loop callers issue them from background commands and feed
// the result back in. Execute chains all three for synchronous callers.
type Engine struct {
	store      *Store
	svc        Service
	dispatcher *Dispatcher
	log        *logrus.Logger
}

// NewEngine wires the engine to its store, service, and dispatcher. The
// dispatcher may be nil for callers that do not send notifications.
func NewEngine(store *Store, svc Service, dispatcher *Dispatcher, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{store: store, svc: svc, dispatcher: dispatcher, log: log}
}

// Begin accepts a transition intent, enforces the single-flight gate, and
// applies the optimistic status change so the board reflects the move without
// waiting on the network.
//
// It fails with ErrTransitionInFlight when the item already has an open
// transition (no state change), ErrNoChange when the target equals the
// current status (no call, no pending transition), and ErrItemNotFound for an
// unknown item.
func (e *Engine) Begin(intent domain.TransitionIntent) (*PendingTransition, error) {
	if _, open := e.store.PendingFor(intent.ItemID); open {
		return nil, ErrTransitionInFlight
	}

	snapshot, err := e.store.Item(intent.ItemID)
	if err != nil {
		return nil, err
	}

	// The snapshot is authoritative for the current status; a stale From in
	// the intent must not pick the wrong dedicated operation.
	from := snapshot.Status
	op, _ := Resolve(from, intent.To)
	if op == OpNone {
		return nil, ErrNoChange
	}

	p := &PendingTransition{
		ItemID:   intent.ItemID,
		From:     from,
		To:       intent.To,
		Op:       op,
		Snapshot: snapshot,
	}
	if err := e.store.OpenTransition(p); err != nil {
		return nil, err
	}
	if err := e.store.ApplyPatch(intent.ItemID, StatusPatch(intent.To)); err != nil {
		e.store.CloseTransition(intent.ItemID)
		return nil, err
	}
	return p, nil
}

// Call issues the remote operation resolved for the transition. It never
// touches the store.
func (e *Engine) Call(ctx context.Context, p *PendingTransition) (*domain.WorkItem, error) {
	switch p.Op {
	case OpStart:
		return e.svc.StartItem(ctx, p.ItemID)
	case OpSubmitForReview:
		return e.svc.SubmitItemForReview(ctx, p.ItemID)
	case OpComplete:
		return e.svc.CompleteItem(ctx, p.ItemID)
	case OpReopen:
		return e.svc.ReopenItem(ctx, p.ItemID)
	case OpSetStatus:
		return e.svc.SetItemStatus(ctx, p.ItemID, p.To)
	}
	return nil, fmt.Errorf("unexpected operation %s", p.Op)
}

// Finish resolves a pending transition from the call result. On success the
// authoritative server echo (when present) supersedes the optimistic guess;
// without a payload the optimistic state stands. On any failure the item is
// restored byte-for-byte from the snapshot. The transition is closed in every
// path.
//
// A full reload clears pending transitions while calls may still be in
// flight. Finish therefore only acts when p is still the transition
// registered for the item; a stale result must neither overwrite reloaded
// data nor close a transition opened after the reload.
func (e *Engine) Finish(p *PendingTransition, echo *domain.WorkItem, callErr error) Resolution {
	if cur, open := e.store.PendingFor(p.ItemID); !open || cur != p {
		e.log.WithFields(logrus.Fields{
			"item": p.ItemID,
			"op":   p.Op.String(),
		}).Info("transition superseded by reload, result discarded")
		return Resolution{ItemID: p.ItemID, From: p.From, To: p.To, Outcome: OutcomeSuperseded}
	}
	if callErr != nil {
		return e.reject(p, callErr)
	}
	return e.confirm(p, echo)
}

// Notify dispatches the notification for a confirmed resolution. Exactly one
// notification is sent per confirmed transition, none for a failed one.
// It reads only the Resolution, never the store, so it is safe to run off
// the event loop.
func (e *Engine) Notify(ctx context.Context, res Resolution) {
	if e.dispatcher == nil || res.Outcome != OutcomeConfirmed || res.Item == nil {
		return
	}
	e.dispatcher.Dispatch(ctx, res.Item, res.From, res.To, res.actorID, res.project)
}

// Execute drives a pending transition to its terminal resolution: remote
// call, store reconciliation, notification.
func (e *Engine) Execute(ctx context.Context, p *PendingTransition) Resolution {
	echo, err := e.Call(ctx, p)
	res := e.Finish(p, echo, err)
	e.Notify(ctx, res)
	return res
}

// confirm merges the server response and closes the transition.
func (e *Engine) confirm(p *PendingTransition, echo *domain.WorkItem) Resolution {
	res := Resolution{
		ItemID:  p.ItemID,
		From:    p.From,
		To:      p.To,
		Outcome: OutcomeConfirmed,
		actorID: e.store.Actor(),
		project: e.store.Project(),
	}

	if echo != nil {
		if err := e.store.ReplaceItem(*echo); err != nil {
			// The item vanished from the store mid-flight (full reload).
			// The reload is authoritative; drop the echo.
			e.log.WithField("item", p.ItemID).Warn("confirmed transition for item no longer in store")
			e.store.CloseTransition(p.ItemID)
			return res
		}
	}
	final, err := e.store.Item(p.ItemID)
	e.store.CloseTransition(p.ItemID)
	if err != nil {
		return res
	}
	res.Item = final

	e.log.WithFields(logrus.Fields{
		"item": p.ItemID,
		"op":   p.Op.String(),
		"from": string(p.From),
		"to":   string(p.To),
	}).Info("transition confirmed")

	return res
}

// reject rolls the item back to its pre-optimistic snapshot and classifies
// the failure for the user-facing toast.
func (e *Engine) reject(p *PendingTransition, cause error) Resolution {
	if err := e.store.ReplaceItem(*p.Snapshot); err != nil && !errors.Is(err, ErrItemNotFound) {
		e.log.WithError(err).WithField("item", p.ItemID).Error("rollback failed")
	}
	e.store.CloseTransition(p.ItemID)

	outcome := OutcomeReverted
	var msg string
	switch {
	case errors.Is(cause, api.ErrConflict):
		outcome = OutcomeConflict
		msg = "Someone else changed this item; refresh and try again"
	case errors.Is(cause, api.ErrNotFound):
		msg = "Item no longer exists on the server"
	default:
		_, label := Resolve(p.From, p.To)
		msg = fmt.Sprintf("Could not %s: %v", label, cause)
	}

	e.log.WithError(cause).WithFields(logrus.Fields{
		"item": p.ItemID,
		"op":   p.Op.String(),
	}).Warn("transition reverted")

	return Resolution{ItemID: p.ItemID, From: p.From, To: p.To, Outcome: outcome, Err: cause, Message: msg}
}
