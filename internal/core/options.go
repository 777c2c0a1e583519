package core

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces globally unique entity ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 ids. It is stateless and
// safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns prefix-1, prefix-2, ... and is meant for tests
// and fixtures that need stable ids.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator emitting ids with the given prefix.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id in the sequence.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.prefix + strconv.Itoa(g.n)
}

// Option configures a Store.
type Option func(*options)

type options struct {
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	clock     Clock
	ids       IDGenerator
	keyPrefix string
}

func defaultOptions() options {
	return options{
		logger:    noopLogger{},
		metrics:   noopMetrics{},
		tracer:    noopTracer{},
		clock:     ClockFunc(timeNow),
		ids:       UUIDv7Generator{},
		keyPrefix: DefaultKeyPrefix,
	}
}

// WithLogger installs a structured logger. Nil keeps the noop logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsRecorder installs an operation metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer installs a span tracer.
func WithTracer(t Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithClock overrides the time source. Times are truncated to milliseconds.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.ids = g
		}
	}
}

// WithKeyPrefix namespaces every durable key. Empty keeps the default.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}
