package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yourname/macrotracker/internal"
	"github.com/yourname/macrotracker/internal/llm"
	"github.com/yourname/macrotracker/internal/storage"
)

type FoodRequest struct {
	Description string `json:"description" form:"food_input" validate:"max=500"`
}

func ValidateFoodRequest(req *FoodRequest) error {
	return validate.Struct(req)
}

type Summary struct {
	SessionID  string                                    `json:"session_id"`
	Totals     internal.NutrientTotals                   `json:"totals"`
	Goals      internal.NutrientGoals                    `json:"goals"`
	Remaining  map[internal.NutrientKey]float64          `json:"remaining"`
	Progress   map[internal.NutrientKey]NutrientProgress `json:"progress"`
	TokenLimit int                                       `json:"token_limit"`
	QuotaLeft  int                                       `json:"quota_left"`
	Exhausted  bool                                      `json:"quota_exhausted"`
}

type TrackerOptions struct {
	Goals      internal.NutrientGoals
	TokenLimit int
	Parse      ParseOptions
}

// Tracker runs the submit/clear/summary use cases against per-session totals.
// Writers of the same session are serialised; different sessions proceed in
// parallel.
type Tracker struct {
	repo      storage.SessionRepository
	estimator llm.Completer
	opts      TrackerOptions
	logger    internal.Logger
	locks     *sessionLocks
	now       func() time.Time
}

func NewTracker(repo storage.SessionRepository, estimator llm.Completer, opts TrackerOptions, logger internal.Logger) *Tracker {
	return &Tracker{
		repo:      repo,
		estimator: estimator,
		opts:      opts,
		logger:    logger,
		locks:     newSessionLocks(),
		now:       time.Now,
	}
}

func (t *Tracker) Goals() internal.NutrientGoals {
	return t.opts.Goals
}

// Summary returns the current totals for sessionID. Unknown sessions report
// zeroed totals.
func (t *Tracker) Summary(ctx context.Context, sessionID string) (*Summary, error) {
	sess, err := t.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return t.summarize(sess), nil
}

// Submit estimates description, adds it to the session totals and returns the
// new summary. An empty description changes nothing. On ErrExternalCall or
// ErrParse the nutrient totals and food log are left as they were.
func (t *Tracker) Submit(ctx context.Context, sessionID, description string) (*Summary, error) {
	description = strings.TrimSpace(description)

	unlock := t.locks.lock(sessionID)
	defer unlock()

	sess, err := t.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if description == "" {
		return t.summarize(sess), nil
	}
	if t.quotaExhausted(sess.Totals) {
		t.logger.Warnf("session %s: token limit %d reached", sessionID, t.opts.TokenLimit)
		return t.summarize(sess), internal.ErrQuotaExceeded
	}

	completion, err := t.estimator.Complete(ctx, llm.SystemPrompt, description)
	if err != nil {
		t.logger.Errorf("session %s: estimate %q: %v", sessionID, description, err)
		if !errors.Is(err, internal.ErrExternalCall) {
			err = fmt.Errorf("%w: %v", internal.ErrExternalCall, err)
		}
		return t.summarize(sess), err
	}

	// Tokens were spent whether or not the reply parses.
	sess.Totals.TokensUsed += completion.TokensUsed

	record, parseErr := ParseNutrition(completion.Text, t.opts.Parse)
	if parseErr != nil {
		t.logger.Warnf("session %s: reply %q: %v", sessionID, completion.Text, parseErr)
	} else {
		sess.Totals = ApplyRecord(sess.Totals, record, description)
	}

	if err := t.save(ctx, sess); err != nil {
		return nil, err
	}
	if parseErr != nil {
		return t.summarize(sess), parseErr
	}
	t.logger.Infof("session %s: added %q (%d kcal)", sessionID, description, record.Calories)
	return t.summarize(sess), nil
}

// Clear resets the session totals, token usage included.
func (t *Tracker) Clear(ctx context.Context, sessionID string) (*Summary, error) {
	unlock := t.locks.lock(sessionID)
	defer unlock()

	sess, err := t.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Totals = ResetTotals()
	if err := t.save(ctx, sess); err != nil {
		return nil, err
	}
	t.logger.Infof("session %s: totals cleared", sessionID)
	return t.summarize(sess), nil
}

func (t *Tracker) quotaExhausted(totals internal.NutrientTotals) bool {
	return t.opts.TokenLimit > 0 && totals.TokensUsed >= t.opts.TokenLimit
}

func (t *Tracker) load(ctx context.Context, sessionID string) (*internal.Session, error) {
	sess, err := t.repo.GetSession(ctx, sessionID)
	if errors.Is(err, internal.ErrSessionNotFound) {
		now := t.now()
		return &internal.Session{
			ID:        sessionID,
			Totals:    ResetTotals(),
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (t *Tracker) save(ctx context.Context, sess *internal.Session) error {
	sess.UpdatedAt = t.now()
	if err := t.repo.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (t *Tracker) summarize(sess *internal.Session) *Summary {
	s := &Summary{
		SessionID:  sess.ID,
		Totals:     sess.Totals,
		Goals:      t.opts.Goals,
		Remaining:  Remaining(t.opts.Goals, sess.Totals),
		Progress:   CalculateProgress(t.opts.Goals, sess.Totals),
		TokenLimit: t.opts.TokenLimit,
		Exhausted:  t.quotaExhausted(sess.Totals),
	}
	if t.opts.TokenLimit > 0 && !s.Exhausted {
		s.QuotaLeft = t.opts.TokenLimit - sess.Totals.TokensUsed
	}
	return s
}

// sessionLocks hands out one mutex per session id, dropping it once no
// goroutine holds or waits on it.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	sl, ok := l.locks[id]
	if !ok {
		sl = &sessionLock{}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
