// Package quota implements the daily coin allowance. The balance lives in
// client-held storage and is never checked against server-side truth.
package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xaenox/tonebuddy/internal/models"
	"github.com/xaenox/tonebuddy/internal/storage"
)

const (
	CoinsKey = "tonebuddy_coins"
	ResetKey = "tonebuddy_last_reset"

	DefaultDailyAllowance = 10

	dateLayout = "2006-01-02"
)

type Manager struct {
	store     storage.Storage
	allowance int
	now       func() time.Time
	loc       *time.Location
}

type Option func(*Manager)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLocation sets the client's timezone used to decide the calendar day
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// NewManager returns a manager over store. A non-positive allowance selects
// DefaultDailyAllowance.
func NewManager(store storage.Storage, allowance int, opts ...Option) *Manager {
	if allowance <= 0 {
		allowance = DefaultDailyAllowance
	}
	m := &Manager{
		store:     store,
		allowance: allowance,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Allowance is the balance restored at the start of every day
func (m *Manager) Allowance() int {
	return m.allowance
}

// Today is the current calendar date in the client's timezone
func (m *Manager) Today() string {
	return m.now().In(m.loc).Format(dateLayout)
}

// ResetIfNewDay restores the allowance when the stored reset date is not
// today. It reports whether a reset happened.
func (m *Manager) ResetIfNewDay(ctx context.Context) (bool, error) {
	today := m.Today()

	last, _, err := m.store.Get(ctx, ResetKey)
	if err != nil {
		return false, fmt.Errorf("read reset date: %w", err)
	}
	if last == today {
		return false, nil
	}

	if err := m.store.Set(ctx, ResetKey, today); err != nil {
		return false, fmt.Errorf("write reset date: %w", err)
	}
	if err := m.store.Set(ctx, CoinsKey, strconv.Itoa(m.allowance)); err != nil {
		return false, fmt.Errorf("write coins: %w", err)
	}
	return true, nil
}

// Remaining returns the stored balance, or the allowance on a first visit.
// Unparsable balances read as the allowance and negative ones as zero.
func (m *Manager) Remaining(ctx context.Context) (int, error) {
	raw, ok, err := m.store.Get(ctx, CoinsKey)
	if err != nil {
		return 0, fmt.Errorf("read coins: %w", err)
	}
	if !ok {
		return m.allowance, nil
	}

	coins, err := strconv.Atoi(raw)
	if err != nil {
		return m.allowance, nil
	}
	if coins < 0 {
		return 0, nil
	}
	return coins, nil
}

// TrySpend takes one coin. It reports false, leaving storage untouched,
// when the balance is already zero.
func (m *Manager) TrySpend(ctx context.Context) (bool, error) {
	coins, err := m.Remaining(ctx)
	if err != nil {
		return false, err
	}
	if coins <= 0 {
		return false, nil
	}

	if err := m.store.Set(ctx, CoinsKey, strconv.Itoa(coins-1)); err != nil {
		return false, fmt.Errorf("write coins: %w", err)
	}
	return true, nil
}

// State is a snapshot of what the client currently holds
func (m *Manager) State(ctx context.Context) (models.QuotaState, error) {
	remaining, err := m.Remaining(ctx)
	if err != nil {
		return models.QuotaState{}, err
	}
	last, _, err := m.store.Get(ctx, ResetKey)
	if err != nil {
		return models.QuotaState{}, fmt.Errorf("read reset date: %w", err)
	}
	return models.QuotaState{Remaining: remaining, LastResetDate: last}, nil
}
