package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/core"
	"kharcha/internal/ports"
)

// Summary is the state of a user's ledger after an interaction.
type Summary struct {
	User       string
	NewUser    bool
	RolledOver bool
	Ledger     core.Ledger
	Status     core.Status
}

// ErrChartsDisabled is returned by Charts when no renderer is configured.
var ErrChartsDisabled = errors.New("charts disabled")

// Dependencies wires the tracker to its adapters. Charts and Publisher may
// be nil.
type Dependencies struct {
	Registry  ports.UserRegistry
	Ledgers   ports.LedgerStore
	Markers   ports.MarkerStore
	Reports   ports.ReportWriter
	Charts    ports.ChartRenderer
	Publisher ports.EventPublisher
	Clock     core.Clock
}

// TrackerService runs every user interaction as one serial
// load, rollover, mutate, save, report, chart sequence.
type TrackerService struct {
	registry  ports.UserRegistry
	ledgers   ports.LedgerStore
	reports   ports.ReportWriter
	charts    ports.ChartRenderer
	publisher ports.EventPublisher
	rollover  *RolloverEngine
	clock     core.Clock
	newID     func() string
}

func NewTrackerService(deps Dependencies) *TrackerService {
	return &TrackerService{
		registry:  deps.Registry,
		ledgers:   deps.Ledgers,
		reports:   deps.Reports,
		charts:    deps.Charts,
		publisher: deps.Publisher,
		rollover:  NewRolloverEngine(deps.Ledgers, deps.Markers, deps.Reports),
		clock:     deps.Clock,
		newID:     uuid.NewString,
	}
}

// session is the per-interaction state produced by open.
type session struct {
	user    string
	created bool
	rolled  bool
	now     time.Time
	ledger  core.Ledger
}

// open registers the user, loads the ledger, makes sure this month's report
// exists and runs the month rollover when due.
func (s *TrackerService) open(ctx context.Context, name string) (session, error) {
	user, err := core.NormalizeUser(name)
	if err != nil {
		return session{}, err
	}

	created, err := s.registry.Register(ctx, user)
	if err != nil {
		return session{}, fmt.Errorf("register user: %w", err)
	}

	l, err := s.ledgers.Load(ctx, user)
	if err != nil {
		return session{}, fmt.Errorf("load ledger: %w", err)
	}

	now := s.clock.Now()
	if l.Budget() > 0 {
		if _, _, err := s.reports.EnsureExists(ctx, user, now); err != nil {
			return session{}, fmt.Errorf("ensure report: %w", err)
		}
	}

	closing := core.Evaluate(l)
	l, rolled, err := s.rollover.Check(ctx, user, now, l)
	if err != nil {
		return session{}, fmt.Errorf("rollover: %w", err)
	}
	if rolled {
		s.publish(ctx, core.LedgerEvent{
			Type:     core.EventMonthClosed,
			User:     user,
			MonthKey: core.MonthKey(core.PreviousMonthEnd(now)),
			Status:   closing,
		}, now)
	}

	return session{user: user, created: created, rolled: rolled, now: now, ledger: l}, nil
}

func (s *TrackerService) summary(sess session) Summary {
	return Summary{
		User:       sess.user,
		NewUser:    sess.created,
		RolledOver: sess.rolled,
		Ledger:     sess.ledger,
		Status:     core.Evaluate(sess.ledger),
	}
}

// Open starts an interaction for name and returns the current state.
func (s *TrackerService) Open(ctx context.Context, name string) (Summary, error) {
	sess, err := s.open(ctx, name)
	if err != nil {
		return Summary{}, err
	}
	slog.InfoContext(ctx, "Session opened",
		"user", sess.user, "new_user", sess.created, "rolled_over", sess.rolled)
	return s.summary(sess), nil
}

// Summary returns the ledger and its budget status.
func (s *TrackerService) Summary(ctx context.Context, name string) (Summary, error) {
	sess, err := s.open(ctx, name)
	if err != nil {
		return Summary{}, err
	}
	return s.summary(sess), nil
}

// SetInitialBudget sets the budget of a user who has none yet.
func (s *TrackerService) SetInitialBudget(ctx context.Context, name string, amount float64) (Summary, error) {
	if err := validateAmount(amount); err != nil {
		return Summary{}, err
	}
	sess, err := s.open(ctx, name)
	if err != nil {
		return Summary{}, err
	}
	if sess.ledger.Budget() > 0 {
		return Summary{}, core.ErrBudgetAlreadySet
	}

	sess.ledger.SetBudget(amount)
	if err := s.ledgers.Save(ctx, sess.user, sess.ledger); err != nil {
		return Summary{}, fmt.Errorf("save ledger: %w", err)
	}
	if _, _, err := s.reports.EnsureExists(ctx, sess.user, sess.now); err != nil {
		return Summary{}, fmt.Errorf("ensure report: %w", err)
	}
	s.refreshCharts(ctx, sess)

	sum := s.summary(sess)
	s.publish(ctx, core.LedgerEvent{
		Type:     core.EventBudgetSet,
		User:     sess.user,
		MonthKey: core.MonthKey(sess.now),
		Category: core.BudgetCategory,
		Amount:   amount,
		Status:   sum.Status,
	}, sess.now)

	slog.InfoContext(ctx, "Budget set", "user", sess.user, "budget", amount)
	return sum, nil
}

// ModifyBudget replaces the budget and rewrites this month's report header.
func (s *TrackerService) ModifyBudget(ctx context.Context, name string, amount float64) (Summary, error) {
	if err := validateAmount(amount); err != nil {
		return Summary{}, err
	}
	sess, err := s.open(ctx, name)
	if err != nil {
		return Summary{}, err
	}

	sess.ledger.SetBudget(amount)
	if err := s.ledgers.Save(ctx, sess.user, sess.ledger); err != nil {
		return Summary{}, fmt.Errorf("save ledger: %w", err)
	}
	if err := s.reports.UpdateBudget(ctx, sess.user, sess.now, amount); err != nil {
		return Summary{}, fmt.Errorf("update report budget: %w", err)
	}
	s.refreshCharts(ctx, sess)

	sum := s.summary(sess)
	s.publish(ctx, core.LedgerEvent{
		Type:     core.EventBudgetModified,
		User:     sess.user,
		MonthKey: core.MonthKey(sess.now),
		Category: core.BudgetCategory,
		Amount:   amount,
		Status:   sum.Status,
	}, sess.now)

	slog.InfoContext(ctx, "Budget modified", "user", sess.user, "budget", amount)
	return sum, nil
}

// AddExpense adds amount to category, logs it in the monthly report and
// returns the resulting status.
func (s *TrackerService) AddExpense(ctx context.Context, name, category string, amount float64) (Summary, error) {
	if err := validateAmount(amount); err != nil {
		return Summary{}, err
	}
	sess, err := s.open(ctx, name)
	if err != nil {
		return Summary{}, err
	}

	if err := sess.ledger.AddExpense(category, amount); err != nil {
		return Summary{}, err
	}
	if err := s.ledgers.Save(ctx, sess.user, sess.ledger); err != nil {
		return Summary{}, fmt.Errorf("save ledger: %w", err)
	}
	if err := s.reports.AppendExpense(ctx, sess.user, category, amount, sess.now); err != nil {
		return Summary{}, fmt.Errorf("append report: %w", err)
	}
	s.refreshCharts(ctx, sess)

	sum := s.summary(sess)
	s.publish(ctx, core.LedgerEvent{
		Type:     core.EventExpenseAdded,
		User:     sess.user,
		MonthKey: core.MonthKey(sess.now),
		Category: category,
		Amount:   amount,
		Status:   sum.Status,
	}, sess.now)

	switch sum.Status.Tier() {
	case core.Exceeded:
		slog.WarnContext(ctx, "Budget exceeded",
			"user", sess.user, "percent_used", sum.Status.PercentUsed)
	case core.NearLimit:
		slog.WarnContext(ctx, "Budget near limit",
			"user", sess.user, "percent_used", sum.Status.PercentUsed)
	}
	slog.InfoContext(ctx, "Expense added",
		"user", sess.user, "category", category, "amount", amount)
	return sum, nil
}

// Reports lists the user's monthly reports, newest first.
func (s *TrackerService) Reports(ctx context.Context, name string) ([]string, error) {
	sess, err := s.open(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.reports.EnsureExists(ctx, sess.user, sess.now); err != nil {
		return nil, fmt.Errorf("ensure report: %w", err)
	}
	return s.reports.List(ctx, sess.user)
}

// Report returns the contents of one of the user's reports.
func (s *TrackerService) Report(ctx context.Context, name, report string) ([]byte, error) {
	sess, err := s.open(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.reports.Read(ctx, sess.user, report)
}

// Charts regenerates the current month's charts and returns their paths.
func (s *TrackerService) Charts(ctx context.Context, name string) (core.ChartPaths, error) {
	sess, err := s.open(ctx, name)
	if err != nil {
		return core.ChartPaths{}, err
	}
	if s.charts == nil {
		return core.ChartPaths{}, ErrChartsDisabled
	}
	paths, err := s.charts.Render(ctx, sess.user, sess.now, sess.ledger)
	if err != nil {
		return core.ChartPaths{}, fmt.Errorf("render charts: %w", err)
	}
	return paths, nil
}

// refreshCharts regenerates the charts after a mutation. The ledger is
// already saved, so a rendering failure is only logged.
func (s *TrackerService) refreshCharts(ctx context.Context, sess session) {
	if s.charts == nil {
		return
	}
	if _, err := s.charts.Render(ctx, sess.user, sess.now, sess.ledger); err != nil {
		slog.ErrorContext(ctx, "Failed to render charts", "user", sess.user, "error", err)
	}
}

func (s *TrackerService) publish(ctx context.Context, ev core.LedgerEvent, at time.Time) {
	if s.publisher == nil {
		return
	}
	ev.ID = s.newID()
	ev.OccurredAt = at
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		// ledger is saved locally, the event is best effort
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", ev.Type, "user", ev.User, "error", err)
	}
}

func validateAmount(amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: %v", core.ErrInvalidAmount, amount)
	}
	return nil
}

// IsUserError reports whether err is caused by the caller's input rather
// than by storage.
func IsUserError(err error) bool {
	return errors.Is(err, core.ErrEmptyUser) ||
		errors.Is(err, core.ErrInvalidUser) ||
		errors.Is(err, core.ErrUnknownCategory) ||
		errors.Is(err, core.ErrReservedCategory) ||
		errors.Is(err, core.ErrInvalidAmount)
}
