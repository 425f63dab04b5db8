package store

import (
	"fmt"
	"log/slog"

	"github.com/delaneyj/rxstate/internal/serial"
)

// Option configures any of the store constructors. Options that do not apply
// to a kind of store are ignored by it.
type Option func(*settings)

type settings struct {
	name   string
	logger *slog.Logger
	hot    bool
	queue  *serial.Queue

	logActions       bool
	logState         bool
	logSubscriptions bool
	logStatus        bool

	// typed options are held as any and asserted by the constructor that
	// knows the type parameters
	actionFilter any
	stateFilter  any
	equal        any
	dispatcher   any
	load         any
	save         any
}

func applyOptions(opts []Option) *settings {
	s := &settings{}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// optionOf returns the typed option held in v, or the zero value when none
// was given. A mismatched type is a programming error.
func optionOf[T any](name string, v any) T {
	var zero T
	if v == nil {
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("store: %s option has type %T, want %T", name, v, zero))
	}
	return typed
}

// WithHot activates a reducer store at construction and keeps it active
// with no subscribers.
func WithHot() Option {
	return func(s *settings) {
		s.hot = true
	}
}

// WithName labels the store in log output.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithLogger enables logging. Nothing is logged without a logger; the
// WithLog* options pick what gets logged.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithLogActions logs every action a reducer store consumes.
func WithLogActions() Option {
	return func(s *settings) {
		s.logActions = true
	}
}

// WithLogActionsWhere logs the actions keep returns true for.
func WithLogActionsWhere[A Action](keep func(A) bool) Option {
	return func(s *settings) {
		s.logActions = true
		s.actionFilter = keep
	}
}

// WithLogState logs every state change.
func WithLogState() Option {
	return func(s *settings) {
		s.logState = true
	}
}

// WithLogStateWhere logs the state changes whose next state keep returns
// true for.
func WithLogStateWhere[S any](keep func(S) bool) Option {
	return func(s *settings) {
		s.logState = true
		s.stateFilter = keep
	}
}

func WithLogSubscriptions() Option {
	return func(s *settings) {
		s.logSubscriptions = true
	}
}

func WithLogStatus() Option {
	return func(s *settings) {
		s.logStatus = true
	}
}

// WithEqual replaces the equality used to suppress repeated values.
func WithEqual[T any](eq func(a, b T) bool) Option {
	return func(s *settings) {
		s.equal = eq
	}
}

// WithDispatcher makes a reducer store consume actions from d instead of a
// dispatcher of its own. Stores sharing a dispatcher see each other's
// actions and share its delivery queue.
func WithDispatcher[A Action](d *Dispatcher[A]) Option {
	return func(s *settings) {
		s.dispatcher = d
	}
}

// WithLoad gives a Store a getter. The store starts in Initial and loads on
// its first subscriber.
func WithLoad[T any](get LoadFunc[T]) Option {
	return func(s *settings) {
		s.load = get
	}
}

// WithSave gives a Store a setter, run after every Next.
func WithSave[T any](set SaveFunc[T]) Option {
	return func(s *settings) {
		s.save = set
	}
}

// WithQueue makes the store deliver notifications through q. Stores that
// feed each other from several goroutines can share one queue so that all
// of their notifications are totally ordered.
func WithQueue(q *Queue) Option {
	return func(s *settings) {
		s.queue = q
	}
}

// Queue serializes notification delivery for the stores that share it.
type Queue = serial.Queue

func NewQueue() *Queue {
	return serial.New()
}

func (s *settings) queueOr(fallback *serial.Queue) *serial.Queue {
	if s.queue != nil {
		return s.queue
	}
	if fallback != nil {
		return fallback
	}
	return serial.New()
}
