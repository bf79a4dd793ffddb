package call

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oggyb/callfirst/internal/app"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// expireTimeout bounds the store work done when a countdown runs out.
const expireTimeout = 10 * time.Second

// FeedbackPrompt sends the user who ended a call to the feedback flow.
type FeedbackPrompt struct {
	CallEventID string
	UserID      string
}

// Controller runs scheduled calls: join, countdown, end, cancel and the
// missed-call sweep.
//
// Every state change is a compare-and-set in the store, so when several
// paths race (two joins, an end against the countdown) exactly one of them
// performs the transition. Countdowns live in this process; a live call
// whose countdown was lost is ended the next time it is looked at.
type Controller struct {
	appCtx *app.AppContext

	mu         sync.Mutex
	countdowns map[string]*countdown
}

type countdown struct {
	timer  clockwork.Timer
	joined []string
	stop   sync.Once
}

func NewController(appCtx *app.AppContext) *Controller {
	return &Controller{
		appCtx:     appCtx,
		countdowns: make(map[string]*countdown),
	}
}

// GetCallEvent returns the event and, while it is live, the time left on its
// countdown. It returns nil when the event does not exist.
func (c *Controller) GetCallEvent(ctx context.Context, actor, id string) (*db.CallEvent, time.Duration, error) {
	if actor == "" {
		return nil, 0, svcErr.Unauthenticated("sign in required")
	}
	e, err := c.appCtx.Store.GetCallEvent(ctx, id)
	if err != nil || e == nil {
		return nil, 0, err
	}
	if _, err := c.participants(ctx, e, actor); err != nil {
		return nil, 0, err
	}
	if e.State != db.CallLive {
		return e, 0, nil
	}
	c.ensureCountdown(e, "")
	return e, c.remaining(e), nil
}

// JoinCall lets a participant into the call.
//
// Behavior:
//   - Before the scheduled start: Precondition "call has not started yet".
//   - The first joiner moves scheduled → live and starts the countdown; later
//     joiners just join the live call.
//   - Joining later than start + missed grace marks the call missed.
//   - Finished calls are Conflict.
func (c *Controller) JoinCall(ctx context.Context, actor, id string) (*db.CallEvent, error) {
	e, err := c.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := c.appCtx.Now()

	if e.State == db.CallScheduled {
		if now.Before(e.ScheduledStart) {
			return nil, svcErr.Precondition("call has not started yet")
		}
		if now.After(e.ScheduledStart.Add(c.appCtx.Config.Call.MissedGrace)) {
			if _, err := c.markMissed(ctx, e.ID, now); err != nil {
				return nil, err
			}
			return nil, svcErr.Conflict("call was missed")
		}
		ok, err := c.appCtx.Store.TransitionCallEvent(ctx, e.ID, []db.CallState{db.CallScheduled}, db.CallLive, now)
		if err != nil {
			return nil, err
		}
		if ok {
			c.appCtx.Logger.Info("call live", "call_event_id", e.ID, "joined_by", actor)
		}
		if e, err = c.appCtx.Store.GetCallEvent(ctx, id); err != nil {
			return nil, err
		}
	}

	if e.State != db.CallLive {
		return nil, svcErr.Conflict("call is %s", e.State)
	}
	c.ensureCountdown(e, actor)
	return e, nil
}

// EndCall completes a live call.
//
// Behavior:
//   - live → completed; the caller whose transition wins gets the single
//     FeedbackPrompt and the countdown is stopped.
//   - A caller that loses the race (or ends an already completed call) gets
//     the completed event and no prompt.
//   - Scheduled calls are Precondition, missed or canceled ones Conflict.
func (c *Controller) EndCall(ctx context.Context, actor, id string) (*db.CallEvent, *FeedbackPrompt, error) {
	e, err := c.load(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	switch e.State {
	case db.CallScheduled:
		return nil, nil, svcErr.Precondition("call has not started yet")
	case db.CallMissed, db.CallCanceled:
		return nil, nil, svcErr.Conflict("call is %s", e.State)
	}

	e, won, err := c.complete(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !won {
		return e, nil, nil
	}
	c.appCtx.Logger.Info("call ended", "call_event_id", id, "ended_by", actor)
	return e, &FeedbackPrompt{CallEventID: id, UserID: actor}, nil
}

// CancelCall cancels a scheduled call. Canceling a canceled call is a no-op.
func (c *Controller) CancelCall(ctx context.Context, actor, id string) (*db.CallEvent, error) {
	e, err := c.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if e.State == db.CallCanceled {
		return e, nil
	}
	ok, err := c.appCtx.Store.TransitionCallEvent(ctx, id, []db.CallState{db.CallScheduled}, db.CallCanceled, c.appCtx.Now())
	if err != nil {
		return nil, err
	}
	if e, err = c.appCtx.Store.GetCallEvent(ctx, id); err != nil {
		return nil, err
	}
	if !ok && e.State != db.CallCanceled {
		return nil, svcErr.Conflict("call is %s", e.State)
	}
	c.appCtx.Logger.Info("call canceled", "call_event_id", id, "by", actor)
	return e, nil
}

// transitions lists the state changes a client may request.
var transitions = map[db.CallState][]db.CallState{
	db.CallScheduled: {db.CallLive, db.CallCanceled, db.CallMissed},
	db.CallLive:      {db.CallCompleted},
}

// SetCallEventState requests a transition by target state and routes it to
// the matching operation. Transitions outside scheduled → live|canceled|missed
// and live → completed are InvalidInput. Moving a live call to live is a
// join.
func (c *Controller) SetCallEventState(ctx context.Context, actor, id string, to db.CallState) (*db.CallEvent, *FeedbackPrompt, error) {
	if !to.Valid() {
		return nil, nil, svcErr.InvalidInput("unknown call state %q", to)
	}
	e, err := c.load(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	if !allowed(e.State, to) {
		return nil, nil, svcErr.InvalidInput("cannot move a %s call to %s", e.State, to)
	}

	switch to {
	case db.CallLive:
		e, err = c.JoinCall(ctx, actor, id)
		return e, nil, err
	case db.CallCompleted:
		return c.EndCall(ctx, actor, id)
	case db.CallCanceled:
		e, err = c.CancelCall(ctx, actor, id)
		return e, nil, err
	default:
		now := c.appCtx.Now()
		if now.Before(e.ScheduledStart) {
			return nil, nil, svcErr.Precondition("call has not started yet")
		}
		ok, err := c.markMissed(ctx, id, now)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, svcErr.Conflict("call is no longer scheduled")
		}
		e, err = c.appCtx.Store.GetCallEvent(ctx, id)
		return e, nil, err
	}
}

func allowed(from, to db.CallState) bool {
	if from == to {
		return from == db.CallLive || from == db.CallCanceled || from == db.CallCompleted
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SweepMissed marks scheduled calls missed once their start plus the missed
// grace has passed, and returns how many it marked.
func (c *Controller) SweepMissed(ctx context.Context) (int, error) {
	now := c.appCtx.Now()
	overdue, err := c.appCtx.Store.ListOverdueCalls(ctx, now.Add(-c.appCtx.Config.Call.MissedGrace))
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, e := range overdue {
		ok, err := c.markMissed(ctx, e.ID, now)
		if err != nil {
			return marked, err
		}
		if ok {
			marked++
		}
	}
	if marked > 0 {
		c.appCtx.Logger.Info("missed calls swept", "count", marked)
	}
	return marked, nil
}

// Close stops every running countdown. Live calls stay live in the store.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cd := range c.countdowns {
		if cd.timer != nil {
			cd.stop.Do(func() { cd.timer.Stop() })
		}
		delete(c.countdowns, id)
	}
}

func (c *Controller) markMissed(ctx context.Context, id string, now time.Time) (bool, error) {
	ok, err := c.appCtx.Store.TransitionCallEvent(ctx, id, []db.CallState{db.CallScheduled}, db.CallMissed, now)
	if err != nil {
		return false, err
	}
	if ok {
		c.appCtx.Logger.Info("call missed", "call_event_id", id)
	}
	return ok, nil
}

// complete runs live → completed and releases the countdown. won reports
// whether this call performed the transition.
func (c *Controller) complete(ctx context.Context, id string) (*db.CallEvent, bool, error) {
	won, err := c.appCtx.Store.TransitionCallEvent(ctx, id, []db.CallState{db.CallLive}, db.CallCompleted, c.appCtx.Now())
	if err != nil {
		return nil, false, err
	}
	c.release(id)
	e, err := c.appCtx.Store.GetCallEvent(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if e == nil || e.State != db.CallCompleted {
		return nil, false, svcErr.Conflict("call could not be completed")
	}
	return e, won, nil
}

// expire is the countdown's end path. Only a countdown that wins the
// completion notifies anyone.
func (c *Controller) expire(id string, joined []string) {
	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	e, won, err := c.complete(ctx, id)
	if err != nil {
		c.appCtx.Logger.Error("failed to end call after countdown", "call_event_id", id, "err", err)
		return
	}
	if !won {
		return
	}
	c.appCtx.Logger.Info("call countdown finished", "call_event_id", id)

	if len(joined) == 0 {
		m, err := c.participants(ctx, e, "")
		if err != nil {
			c.appCtx.Logger.Error("failed to load call participants", "call_event_id", id, "err", err)
			return
		}
		joined = []string{m.UserAID, m.UserBID}
	}
	if err := c.appCtx.Notifier.CallEnded(ctx, e, joined); err != nil {
		c.appCtx.Logger.Warn("call ended notification failed", "call_event_id", id, "err", err)
	}
}

// ensureCountdown starts the event's countdown unless one is running and
// records joiner as present.
func (c *Controller) ensureCountdown(e *db.CallEvent, joiner string) {
	c.mu.Lock()
	cd, running := c.countdowns[e.ID]
	if !running {
		cd = &countdown{}
		c.countdowns[e.ID] = cd
	}
	if joiner != "" && !contains(cd.joined, joiner) {
		cd.joined = append(cd.joined, joiner)
	}
	if running {
		c.mu.Unlock()
		return
	}

	id := e.ID
	fire := func() {
		c.mu.Lock()
		joined := append([]string(nil), cd.joined...)
		c.mu.Unlock()
		c.expire(id, joined)
	}
	left := c.remaining(e)
	if left > 0 {
		cd.timer = c.appCtx.Clock.AfterFunc(left, fire)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	go fire()
}

// release stops and forgets the countdown of id, if any.
func (c *Controller) release(id string) {
	c.mu.Lock()
	cd, ok := c.countdowns[id]
	delete(c.countdowns, id)
	c.mu.Unlock()
	if ok && cd.timer != nil {
		cd.stop.Do(func() { cd.timer.Stop() })
	}
}

func (c *Controller) remaining(e *db.CallEvent) time.Duration {
	if e.StartedAt == nil {
		return e.Duration()
	}
	left := e.StartedAt.Add(e.Duration()).Sub(c.appCtx.Clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// load fetches an event that must exist and checks actor takes part in it.
func (c *Controller) load(ctx context.Context, actor, id string) (*db.CallEvent, error) {
	if actor == "" {
		return nil, svcErr.Unauthenticated("sign in required")
	}
	e, err := c.appCtx.Store.GetCallEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, svcErr.Precondition("call %s does not exist", id)
	}
	if _, err := c.participants(ctx, e, actor); err != nil {
		return nil, err
	}
	return e, nil
}

// participants returns the match behind e. A non-empty actor must be one of
// its users.
func (c *Controller) participants(ctx context.Context, e *db.CallEvent, actor string) (*db.Match, error) {
	th, err := c.appCtx.Store.GetThread(ctx, e.ThreadID)
	if err != nil {
		return nil, err
	}
	if th == nil {
		return nil, svcErr.Precondition("call thread %s does not exist", e.ThreadID)
	}
	m, err := c.appCtx.Store.GetMatch(ctx, th.MatchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, svcErr.Precondition("match %s does not exist", th.MatchID)
	}
	if actor != "" && !m.HasUser(actor) {
		return nil, svcErr.PermissionDenied("not a participant of this call")
	}
	return m, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
