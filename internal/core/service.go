package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"initiative/pkg/domain"
)

// ErrJournalUnavailable is returned when a journal operation is requested
// while the data store could not be reached.
var ErrJournalUnavailable = errors.New("journal unavailable")

// Clock provides timestamps for operation timing.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// MetricsRecorder observes the outcome and duration of service operations.
// outcome is one of the Outcome labels.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation, outcome string, duration time.Duration)
}

// Tracer starts a span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended exactly once with the operation's error, if any.
type TraceSpan interface {
	// SetChange records the change the operation applies.
	SetChange(change domain.Change)
	// SetAffected records the thing the operation touched.
	SetAffected(id domain.ID)
	End(err error)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, string, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) SetChange(domain.Change) {}
func (noopSpan) SetAffected(domain.ID)    {}
func (noopSpan) End(error)                {}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger shared by the service and its repository.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used to time operations.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMetricsRecorder installs a metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// Service owns a Repository and its History and is the application state
// handed to command handlers. Calls are serialized so the repository sees a
// single writer.
type Service struct {
	mu      sync.Mutex
	repo    *Repository
	history *History
	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service over ds. Call Init before using the journal.
func NewService(ds domain.DataStore, opts ...Option) *Service {
	s := &Service{
		logger:  noopLogger{},
		clock:   systemClock{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.repo = NewRepository(ds, WithRepositoryLogger(s.logger))
	s.history = NewHistory(s.repo)
	return s
}

func (s *Service) run(ctx context.Context, op string, fn func(context.Context, TraceSpan) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, span := s.tracer.Start(ctx, op)
	start := s.clock.Now()
	err := fn(ctx, span)
	elapsed := s.clock.Now().Sub(start)
	outcome := Outcome(err)
	s.metrics.Observe(ctx, op, outcome, elapsed)
	span.End(err)
	if err != nil {
		s.logger.Warn("operation failed", "operation", op, "outcome", outcome, "error", err)
	} else {
		s.logger.Debug("operation completed", "operation", op, "duration", elapsed)
	}
	return err
}

func (s *Service) read(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Init loads the journal. It never fails; check DataStoreEnabled afterwards.
func (s *Service) Init(ctx context.Context) {
	_ = s.run(ctx, "init", func(ctx context.Context, _ TraceSpan) error {
		s.repo.Init(ctx)
		return nil
	})
}

// Apply runs change through the history and returns the ID of the touched
// thing. Save and Unsave need a reachable data store.
func (s *Service) Apply(ctx context.Context, change domain.Change) (domain.ID, error) {
	var id domain.ID
	err := s.run(ctx, "apply_"+domain.ChangeKind(change), func(ctx context.Context, span TraceSpan) error {
		span.SetChange(change)
		switch change.(type) {
		case domain.Save, domain.Unsave:
			if !s.repo.DataStoreEnabled() {
				return ErrJournalUnavailable
			}
		}
		var err error
		id, err = s.history.Apply(ctx, change)
		if err == nil {
			span.SetAffected(id)
		}
		return err
	})
	return id, err
}

// Undo reverses the most recent change.
func (s *Service) Undo(ctx context.Context) (domain.ID, error) {
	var id domain.ID
	err := s.run(ctx, "undo", func(ctx context.Context, span TraceSpan) error {
		if change, ok := s.history.PeekUndo(); ok {
			span.SetChange(change)
		}
		var err error
		id, err = s.history.Undo(ctx)
		if err == nil {
			span.SetAffected(id)
		}
		return err
	})
	return id, err
}

// Redo reapplies the most recently undone change.
func (s *Service) Redo(ctx context.Context) (domain.ID, error) {
	var id domain.ID
	err := s.run(ctx, "redo", func(ctx context.Context, span TraceSpan) error {
		if change, ok := s.history.PeekRedo(); ok {
			span.SetChange(change)
		}
		var err error
		id, err = s.history.Redo(ctx)
		if err == nil {
			span.SetAffected(id)
		}
		return err
	})
	return id, err
}

// SetTime updates the game clock.
func (s *Service) SetTime(ctx context.Context, t domain.Time) {
	_ = s.run(ctx, "set_time", func(ctx context.Context, _ TraceSpan) error {
		s.repo.SetTime(ctx, t)
		return nil
	})
}

// Load looks a thing up by name or UUID.
func (s *Service) Load(id domain.ID) (thing domain.Thing, ok bool) {
	s.read(func() { thing, ok = s.repo.Load(id) })
	return thing, ok
}

// Journal returns the persisted things.
func (s *Service) Journal() (things []domain.Thing) {
	s.read(func() { things = s.repo.Journal() })
	return things
}

// Recent returns the unsaved things, oldest first.
func (s *Service) Recent() (things []domain.Thing) {
	s.read(func() { things = s.repo.Recent() })
	return things
}

// All returns journal and recent things.
func (s *Service) All() (things []domain.Thing) {
	s.read(func() { things = s.repo.All() })
	return things
}

// Time returns the game clock.
func (s *Service) Time() (t domain.Time) {
	s.read(func() { t = s.repo.Time() })
	return t
}

// DataStoreEnabled reports whether the journal is available.
func (s *Service) DataStoreEnabled() (enabled bool) {
	s.read(func() { enabled = s.repo.DataStoreEnabled() })
	return enabled
}

// UndoHistory returns pending undo changes, most recent first.
func (s *Service) UndoHistory() (changes []domain.Change) {
	s.read(func() { changes = s.history.UndoHistory() })
	return changes
}

// PeekRedo returns the change the next Redo would apply.
func (s *Service) PeekRedo() (change domain.Change, ok bool) {
	s.read(func() { change, ok = s.history.PeekRedo() })
	return change, ok
}
