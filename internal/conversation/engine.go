// Package conversation implements the menu-driven ordering flow as a finite
// state machine. One engine instance serves all users; per-user state lives in
// the session store and every transition runs under that user's session lock.
package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/habtamu-tamere/Bot/internal/catalog"
	"github.com/habtamu-tamere/Bot/internal/logging"
	"github.com/habtamu-tamere/Bot/internal/order"
	"github.com/habtamu-tamere/Bot/internal/session"
)

// Notifier forwards a freshly created order to the admin channel. Failures are
// non-fatal: the order is already persisted and stays pending.
type Notifier interface {
	OrderCreated(ctx context.Context, o order.Order) error
}

// Identity carries the sender's current Telegram handle and display names.
// The engine keeps it on the session so the finalized order records who
// placed it.
type Identity struct {
	Username  string
	FirstName string
	LastName  string
}

// Engine drives a user through tier selection, add-on toggling, contact
// capture and confirmation. Transitions are looked up in a static table keyed
// by (state, action kind); anything not in the table is rejected with
// ErrInvalidTransition and the caller re-renders the current prompt.
type Engine struct {
	cat      *catalog.Catalog
	sessions *session.Store
	orders   order.Repository
	notifier Notifier

	table map[session.State]map[ActionKind]transition
}

type transition func(ctx context.Context, sess session.Session, act Action) (Reply, error)

// NewEngine wires the engine with its collaborators. notifier may be nil in
// tests; order persistence is mandatory.
func NewEngine(cat *catalog.Catalog, sessions *session.Store, orders order.Repository, notifier Notifier) *Engine {
	e := &Engine{
		cat:      cat,
		sessions: sessions,
		orders:   orders,
		notifier: notifier,
	}
	e.table = map[session.State]map[ActionKind]transition{
		session.StateIdle: {
			ActionStart:      e.onStart,
			ActionSelectTier: e.onSelectTier,
			ActionCancel:     e.onCancel,
		},
		session.StateSelectingTier: {
			ActionStart:      e.onStart,
			ActionSelectTier: e.onSelectTier,
			ActionCancel:     e.onCancel,
		},
		session.StateSelectingAddons: {
			ActionToggleAddon: e.onToggleAddon,
			ActionProceed:     e.onProceed,
			ActionBack:        e.onBackToTiers,
			ActionStart:       e.onStart,
			ActionCancel:      e.onCancel,
		},
		session.StateEnteringContact: {
			ActionText:          e.onContactText,
			ActionContactShared: e.onContactText,
			ActionStart:         e.onStart,
			ActionCancel:        e.onCancel,
		},
		session.StateEnteringBusiness: {
			ActionText:   e.onBusinessText,
			ActionStart:  e.onStart,
			ActionCancel: e.onCancel,
		},
		session.StateEnteringRequests: {
			ActionText:   e.onRequestsText,
			ActionStart:  e.onStart,
			ActionCancel: e.onCancel,
		},
		session.StateConfirming: {
			ActionConfirm: e.onConfirm,
			ActionBack:    e.onEdit,
			ActionStart:   e.onStart,
			ActionCancel:  e.onCancel,
		},
		// The job posting and CV drafting flows collect their text outside the
		// engine, but cancel and restart still go through it so the session is
		// cleared the same way everywhere.
		session.StatePostingJob: {
			ActionStart:  e.onStart,
			ActionCancel: e.onCancel,
		},
		session.StateDraftingCV: {
			ActionStart:  e.onStart,
			ActionCancel: e.onCancel,
		},
	}
	return e
}

// Handle processes one decoded user action and returns the reply to render.
func (e *Engine) Handle(ctx context.Context, userID int64, ident Identity, act Action) (Reply, error) {
	sess, ok := e.sessions.Peek(userID)
	if !ok {
		// No session: only entry actions make sense, everything else routes
		// the user back to the beginning instead of surfacing an error.
		switch act.Kind {
		case ActionStart, ActionSelectTier:
			sess = e.sessions.GetOrCreate(userID)
		case ActionCancel:
			return cancelledReply(), nil
		default:
			return startOverReply(), nil
		}
	}
	if ident != (Identity{}) {
		e.sessions.SetIdentity(userID, ident.Username, ident.FirstName, ident.LastName)
		sess.Username = ident.Username
		sess.FirstName = ident.FirstName
		sess.LastName = ident.LastName
	}

	byAction, ok := e.table[sess.State]
	if !ok {
		return startOverReply(), nil
	}
	tr, ok := byAction[act.Kind]
	if !ok {
		logging.Debug(ctx, "engine", "transition.rejected",
			slog.String("state", string(sess.State)),
			slog.String("action", string(act.Kind)),
			slog.Int64("user_id", userID),
		)
		return Reply{}, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, act.Kind, sess.State)
	}
	return tr(ctx, sess, act)
}

// Prompt re-renders the prompt for the user's current state. The adapter uses
// it to recover from rejected transitions.
func (e *Engine) Prompt(userID int64) Reply {
	sess, ok := e.sessions.Peek(userID)
	if !ok {
		return startOverReply()
	}
	switch sess.State {
	case session.StateSelectingTier:
		return e.tierPrompt()
	case session.StateSelectingAddons:
		return e.addonPrompt(sess)
	case session.StateEnteringContact:
		return e.contactPrompt()
	case session.StateEnteringBusiness:
		return e.businessPrompt()
	case session.StateEnteringRequests:
		return e.requestsPrompt()
	case session.StateConfirming:
		return e.summaryPrompt(sess, e.cat.Total(sess.TierID, sess.Addons))
	default:
		return startOverReply()
	}
}

// onStart (re)enters tier selection. An in-flight order is discarded so the
// user always starts from a clean slate.
func (e *Engine) onStart(ctx context.Context, sess session.Session, _ Action) (Reply, error) {
	e.sessions.Clear(sess.UserID)
	e.sessions.SetIdentity(sess.UserID, sess.Username, sess.FirstName, sess.LastName)
	e.sessions.SetState(sess.UserID, session.StateSelectingTier)
	return e.tierPrompt(), nil
}

func (e *Engine) onSelectTier(ctx context.Context, sess session.Session, act Action) (Reply, error) {
	if err := e.sessions.SetTier(sess.UserID, act.Payload); err != nil {
		return Reply{}, err
	}
	e.sessions.SetState(sess.UserID, session.StateSelectingAddons)
	cur, _ := e.sessions.Peek(sess.UserID)
	logging.Debug(ctx, "engine", "tier.selected",
		slog.String("tier", act.Payload),
		slog.Int64("user_id", sess.UserID),
	)
	return e.addonPrompt(cur), nil
}

func (e *Engine) onToggleAddon(ctx context.Context, sess session.Session, act Action) (Reply, error) {
	if err := e.sessions.ToggleAddon(sess.UserID, act.Payload); err != nil {
		return Reply{}, err
	}
	cur, _ := e.sessions.Peek(sess.UserID)
	return e.addonPrompt(cur), nil
}

func (e *Engine) onProceed(_ context.Context, sess session.Session, _ Action) (Reply, error) {
	e.sessions.SetState(sess.UserID, session.StateEnteringContact)
	return e.contactPrompt(), nil
}

func (e *Engine) onBackToTiers(_ context.Context, sess session.Session, _ Action) (Reply, error) {
	e.sessions.SetState(sess.UserID, session.StateSelectingTier)
	return e.tierPrompt(), nil
}

func (e *Engine) onContactText(_ context.Context, sess session.Session, act Action) (Reply, error) {
	if act.Payload == "" {
		return Reply{}, fmt.Errorf("%w: empty contact", ErrInvalidTransition)
	}
	if err := e.sessions.SetContact(sess.UserID, act.Payload); err != nil {
		return startOverReply(), nil
	}
	e.sessions.SetState(sess.UserID, session.StateEnteringBusiness)
	return e.businessPrompt(), nil
}

func (e *Engine) onBusinessText(_ context.Context, sess session.Session, act Action) (Reply, error) {
	if act.Payload == "" {
		return Reply{}, fmt.Errorf("%w: empty business name", ErrInvalidTransition)
	}
	if err := e.sessions.SetBusiness(sess.UserID, act.Payload); err != nil {
		return startOverReply(), nil
	}
	e.sessions.SetState(sess.UserID, session.StateEnteringRequests)
	return e.requestsPrompt(), nil
}

func (e *Engine) onRequestsText(_ context.Context, sess session.Session, act Action) (Reply, error) {
	if act.Payload == "" {
		return Reply{}, fmt.Errorf("%w: empty requests", ErrInvalidTransition)
	}
	if err := e.sessions.SetRequests(sess.UserID, act.Payload); err != nil {
		return startOverReply(), nil
	}
	e.sessions.SetState(sess.UserID, session.StateConfirming)

	// Totals are always re-derived from the live catalog before the summary.
	cur, _ := e.sessions.Peek(sess.UserID)
	total, err := e.sessions.ComputeTotal(sess.UserID)
	if err != nil {
		return startOverReply(), nil
	}
	return e.summaryPrompt(cur, total), nil
}

// onEdit handles the confirmation-screen back edges: empty payload returns to
// add-on selection, BackToTier returns to package selection.
func (e *Engine) onEdit(_ context.Context, sess session.Session, act Action) (Reply, error) {
	if act.Payload == BackToTier {
		e.sessions.SetState(sess.UserID, session.StateSelectingTier)
		return e.tierPrompt(), nil
	}
	e.sessions.SetState(sess.UserID, session.StateSelectingAddons)
	cur, _ := e.sessions.Peek(sess.UserID)
	return e.addonPrompt(cur), nil
}

func (e *Engine) onConfirm(ctx context.Context, sess session.Session, _ Action) (Reply, error) {
	cur, ok := e.sessions.Peek(sess.UserID)
	if !ok {
		return startOverReply(), nil
	}
	total, err := e.sessions.ComputeTotal(sess.UserID)
	if err != nil {
		return startOverReply(), nil
	}

	o := order.Order{
		UserID:    cur.UserID,
		Username:  cur.Username,
		FirstName: cur.FirstName,
		LastName:  cur.LastName,
		Phone:     cur.Contact,
		Business:  cur.Business,
		TierID:    cur.TierID,
		Addons:    append([]string(nil), cur.Addons...),
		Total:     total,
		Requests:  cur.Requests,
		Status:    order.StatusPending,
	}
	id, err := e.orders.Create(ctx, o)
	if err != nil {
		// Persistence failure is fatal to the transition: the session stays
		// in CONFIRMING and no confirmation reaches the user.
		logging.Error(ctx, "engine", "order.create",
			slog.String("status", "fail"),
			slog.Int64("user_id", cur.UserID),
			slog.String("err", err.Error()),
		)
		return Reply{}, err
	}
	o.ID = id

	if e.notifier != nil {
		if err := e.notifier.OrderCreated(ctx, o); err != nil {
			logging.Warn(ctx, "engine", "order.notify",
				slog.String("status", "fail"),
				slog.Int64("order_id", id),
				slog.String("err", err.Error()),
			)
		}
	}

	e.sessions.Clear(cur.UserID)
	logging.Info(ctx, "engine", "order.confirmed",
		slog.Int64("order_id", id),
		slog.Int64("user_id", cur.UserID),
		slog.String("tier", o.TierID),
		slog.Int("total", total),
	)
	return completedReply(id), nil
}

func (e *Engine) onCancel(ctx context.Context, sess session.Session, _ Action) (Reply, error) {
	e.sessions.Clear(sess.UserID)
	logging.Debug(ctx, "engine", "order.cancelled",
		slog.Int64("user_id", sess.UserID),
	)
	return cancelledReply(), nil
}
