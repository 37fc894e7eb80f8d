package dialer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"autodialer/internal/leads"
	"autodialer/internal/queue"
	"autodialer/internal/voicemail"
)

var (
	ErrSessionInProgress = errors.New("dialer: a session is already in progress")
	ErrNoTargets         = errors.New("dialer: queue has no eligible targets")
	ErrNoActiveSession   = errors.New("dialer: no open session")
	ErrNotActive         = errors.New("dialer: session is not active")
	ErrNotPaused         = errors.New("dialer: session is not paused")
)

// Options carries the static identity spoken in voicemail scripts and the
// loop's retry timing.
type Options struct {
	SalespersonName string
	DealershipName  string
	CallbackNumber  string

	// TickRetryDelay spaces retries after an infrastructure error inside a
	// tick (store or directory unavailable). Call outcomes are not retried
	// through this path.
	TickRetryDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.TickRetryDelay <= 0 {
		o.TickRetryDelay = 5 * time.Second
	}
	return o
}

// Controller owns the dialing loop lifecycle: start, pause, resume, stop.
//
// At most one session is open at a time. The loop runs on a single
// goroutine; pause and stop cancel the loop's context, which aborts a
// pending pacing wait immediately but lets an in-flight call finish and
// have its outcome recorded.
type Controller struct {
	store      Store
	queue      queue.Store
	dir        leads.Directory
	dispatcher *Dispatcher
	processor  *Processor
	locker     Locker

	opts  Options
	log   *slog.Logger
	clock func() time.Time

	mu        sync.Mutex
	runCancel context.CancelFunc
	runDone   chan struct{}
}

func NewController(store Store, q queue.Store, dir leads.Directory, dispatcher *Dispatcher, processor *Processor, locker Locker, opts Options, log *slog.Logger) *Controller {
	return &Controller{
		store:      store,
		queue:      q,
		dir:        dir,
		dispatcher: dispatcher,
		processor:  processor,
		locker:     locker,
		opts:       opts.withDefaults(),
		log:        log,
		clock:      time.Now,
	}
}

// Start opens a new session and launches the dialing loop. pacingSeconds
// zero is allowed and means back-to-back dialing.
func (c *Controller) Start(ctx context.Context, name string, pacingSeconds int) (Session, error) {
	if pacingSeconds < 0 {
		return Session{}, errors.New("dialer: pacing must be >= 0")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok, err := c.store.OpenSession(ctx); err != nil {
		return Session{}, err
	} else if ok {
		return Session{}, ErrSessionInProgress
	}

	now := c.clock().UTC()

	// Entries left in calling by a crashed process would otherwise be
	// invisible to the scheduler forever.
	if n, err := c.queue.RequeueStale(ctx, now); err != nil {
		return Session{}, err
	} else if n > 0 {
		c.log.Warn("requeued stale calling entries", "count", n)
	}

	open, err := c.queue.OpenCount(ctx)
	if err != nil {
		return Session{}, err
	}
	if open == 0 {
		return Session{}, ErrNoTargets
	}

	if c.locker != nil {
		held, err := c.locker.Acquire(ctx)
		if err != nil {
			return Session{}, err
		}
		if !held {
			return Session{}, ErrSessionInProgress
		}
	}

	s := Session{
		ID:            uuid.NewString(),
		Name:          name,
		Status:        SessionStatusActive,
		PacingSeconds: pacingSeconds,
		TotalTargets:  open,
		StartedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.store.CreateSession(ctx, s); err != nil {
		c.releaseLock(ctx)
		return Session{}, err
	}

	c.log.Info("dial session started",
		"session_id", s.ID, "name", s.Name,
		"pacing_seconds", s.PacingSeconds, "total_targets", s.TotalTargets)

	c.launch(s.ID)
	return s, nil
}

// Pause stops scheduling new calls. An in-flight call finishes and its
// outcome is still recorded; the paused session keeps its place in line.
func (c *Controller) Pause(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok, err := c.store.OpenSession(ctx)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNoActiveSession
	}
	if s.Status != SessionStatusActive {
		return Session{}, ErrNotActive
	}

	c.cancelRun()

	s.Status = SessionStatusPaused
	s.UpdatedAt = c.clock().UTC()
	if err := c.store.UpdateSession(ctx, s); err != nil {
		return Session{}, err
	}
	c.log.Info("dial session paused", "session_id", s.ID)
	return s, nil
}

// Resume relaunches the loop of a paused session.
func (c *Controller) Resume(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok, err := c.store.OpenSession(ctx)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNoActiveSession
	}
	if s.Status != SessionStatusPaused {
		return Session{}, ErrNotPaused
	}

	// The previous loop may still be draining an in-flight call. Wait for
	// it so two loops never run at once.
	if err := waitDone(ctx, c.runDone); err != nil {
		return Session{}, err
	}

	// The lock may have lapsed during the pause, and after a process
	// restart this controller never held it at all. Take it back before
	// relaunching or the first tick halts the loop.
	if err := c.reacquireLock(ctx); err != nil {
		return Session{}, err
	}

	now := c.clock().UTC()
	if n, err := c.queue.RequeueStale(ctx, now); err != nil {
		return Session{}, err
	} else if n > 0 {
		c.log.Warn("requeued stale calling entries", "count", n)
	}

	s.Status = SessionStatusActive
	s.UpdatedAt = now
	if err := c.store.UpdateSession(ctx, s); err != nil {
		return Session{}, err
	}
	c.launch(s.ID)
	c.log.Info("dial session resumed", "session_id", s.ID)
	return s, nil
}

// Stop ends the open session. Works from both active and paused states;
// an in-flight call still gets its outcome recorded after the fact.
func (c *Controller) Stop(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok, err := c.store.OpenSession(ctx)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNoActiveSession
	}

	c.cancelRun()

	now := c.clock().UTC()
	s.Status = SessionStatusCompleted
	s.CurrentTargetID = ""
	s.EndedAt = terminalAt(now)
	s.UpdatedAt = now
	if err := c.store.UpdateSession(ctx, s); err != nil {
		return Session{}, err
	}
	c.releaseLock(ctx)
	c.log.Info("dial session stopped", "session_id", s.ID,
		"completed_calls", s.CompletedCalls)
	return s, nil
}

// Session returns the open session, or the most recent state of the given
// one when id is non-empty.
func (c *Controller) Session(ctx context.Context, id string) (Session, error) {
	if id != "" {
		return c.store.GetSession(ctx, id)
	}
	s, ok, err := c.store.OpenSession(ctx)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNoActiveSession
	}
	return s, nil
}

// Shutdown pauses an active session so a restarted process can resume it,
// then waits for the loop to drain.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	s, ok, err := c.store.OpenSession(ctx)
	if err == nil && ok && s.Status == SessionStatusActive {
		c.cancelRun()
		s.Status = SessionStatusPaused
		s.UpdatedAt = c.clock().UTC()
		err = c.store.UpdateSession(ctx, s)
	} else {
		c.cancelRun()
	}
	done := c.runDone
	c.mu.Unlock()

	if werr := waitDone(ctx, done); werr != nil {
		return werr
	}
	return err
}

func (c *Controller) launch(sessionID string) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.runCancel = cancel
	c.runDone = done
	go c.run(runCtx, sessionID, done)
}

func (c *Controller) cancelRun() {
	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
}

// waitDone blocks until the loop goroutine behind done exits. Callers
// snapshot done while holding mu.
func waitDone(ctx context.Context, done chan struct{}) error {
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reacquireLock restores ownership of the session lock for a resuming
// controller. Refresh succeeds when this process still owns the key; a
// fresh acquire covers an expired key or a restarted process.
func (c *Controller) reacquireLock(ctx context.Context) error {
	if c.locker == nil {
		return nil
	}
	held, err := c.locker.Refresh(ctx)
	if err != nil {
		return err
	}
	if !held {
		held, err = c.locker.Acquire(ctx)
		if err != nil {
			return err
		}
	}
	if !held {
		return ErrSessionInProgress
	}
	return nil
}

func (c *Controller) releaseLock(ctx context.Context) {
	if c.locker == nil {
		return
	}
	if err := c.locker.Release(context.WithoutCancel(ctx)); err != nil {
		c.log.Warn("session lock release failed", "error", err)
	}
}

// run is the pacing loop. ctx cancellation aborts the wait between calls;
// tick itself runs on a detached context so an in-flight call always gets
// processed.
func (c *Controller) run(ctx context.Context, sessionID string, done chan struct{}) {
	defer close(done)

	var delay time.Duration
	for {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return
		}

		next, again := c.tick(ctx, sessionID)
		if !again {
			return
		}
		delay = next
	}
}

// tick dials one target end to end. It returns the delay before the next
// tick and whether the loop should continue.
func (c *Controller) tick(ctx context.Context, sessionID string) (time.Duration, bool) {
	// Detached so pause/stop cancellation never drops an outcome mid-write.
	wctx := context.WithoutCancel(ctx)
	log := c.log.With("session_id", sessionID)

	if c.locker != nil {
		if held, err := c.locker.Refresh(wctx); err != nil {
			log.Warn("session lock refresh failed", "error", err)
		} else if !held {
			log.Error("session lock lost, halting loop")
			return 0, false
		}
	}

	s, err := c.store.GetSession(wctx, sessionID)
	if err != nil {
		log.Error("session load failed", "error", err)
		return c.opts.TickRetryDelay, true
	}
	if s.Status != SessionStatusActive {
		return 0, false
	}

	now := c.clock().UTC()
	entry, ok, err := c.queue.NextEligible(wctx, now)
	if err != nil {
		log.Error("queue scan failed", "error", err)
		return c.opts.TickRetryDelay, true
	}
	if !ok {
		c.complete(wctx, s)
		return 0, false
	}

	// Last pre-dial cancellation check; past this point the call goes out
	// and pause or stop waits for its outcome.
	if ctx.Err() != nil {
		return 0, false
	}

	if err := c.store.SetCurrentTarget(wctx, s.ID, entry.ID, now); err != nil {
		log.Error("current target update failed", "error", err)
		return c.opts.TickRetryDelay, true
	}
	if err := c.queue.MarkCalling(wctx, entry.ID, now); err != nil {
		log.Error("entry transition to calling failed",
			"entry_id", entry.ID, "error", err)
		return c.opts.TickRetryDelay, true
	}

	res := c.dispatcher.Dispatch(wctx, entry, c.scriptVars(wctx, entry))

	updated, err := c.processor.Process(wctx, sessionID, entry, res)
	if err != nil {
		log.Error("outcome processing failed",
			"entry_id", entry.ID, "outcome", res.Outcome, "error", err)
		return c.opts.TickRetryDelay, true
	}
	log.Info("call processed",
		"entry_id", entry.ID, "lead_id", entry.LeadID,
		"attempt", entry.AttemptCount+1, "outcome", res.Outcome,
		"duration_seconds", res.DurationSeconds,
		"completed_calls", updated.CompletedCalls)

	// Pause or stop may have landed while the call was in flight.
	if updated.Status != SessionStatusActive || ctx.Err() != nil {
		return 0, false
	}
	return updated.PacingInterval(), true
}

// complete retires a session whose queue ran dry.
func (c *Controller) complete(ctx context.Context, s Session) {
	now := c.clock().UTC()
	s.Status = SessionStatusCompleted
	s.CurrentTargetID = ""
	s.EndedAt = terminalAt(now)
	s.UpdatedAt = now
	if err := c.store.UpdateSession(ctx, s); err != nil {
		c.log.Error("session completion update failed",
			"session_id", s.ID, "error", err)
		return
	}
	c.releaseLock(ctx)
	c.log.Info("dial session completed",
		"session_id", s.ID,
		"completed_calls", s.CompletedCalls,
		"successful_connects", s.SuccessfulConnects,
		"voicemails_dropped", s.VoicemailsDropped)
}

// scriptVars builds the substitution map for the entry's voicemail script.
// A missing lead leaves those placeholders verbatim rather than blocking
// the dial.
func (c *Controller) scriptVars(ctx context.Context, e queue.Entry) map[string]string {
	vars := map[string]string{
		voicemail.VarSalespersonName: c.opts.SalespersonName,
		voicemail.VarDealershipName:  c.opts.DealershipName,
		voicemail.VarPhoneNumber:     c.opts.CallbackNumber,
	}
	lead, err := c.dir.Lead(ctx, e.LeadID)
	if err != nil {
		c.log.Warn("lead lookup for script vars failed",
			"lead_id", e.LeadID, "error", err)
		return vars
	}
	vars[voicemail.VarFirstName] = lead.FirstName
	vars[voicemail.VarVehicleInterest] = lead.VehicleInterest
	return vars
}
