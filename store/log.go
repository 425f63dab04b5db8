package store

import (
	"log/slog"

	"github.com/delaneyj/rxstate/diff"
)

func (s *settings) enabled() bool {
	return s.logger != nil
}

func (s *settings) attrs(extra ...any) []any {
	if s.name == "" {
		return extra
	}
	return append([]any{slog.String("store", s.name)}, extra...)
}

func logAction[A Action](s *settings, action A) {
	if !s.enabled() || !s.logActions {
		return
	}
	if keep := optionOf[func(A) bool]("action filter", s.actionFilter); keep != nil && !keep(action) {
		return
	}
	s.logger.Info("action", s.attrs(
		slog.String("type", action.ActionType()),
		slog.Any("action", action),
	)...)
}

// logState renders record-shaped states as a changeset and anything else as
// the pair of values.
func logState[S any](s *settings, prev, next S) {
	if !s.enabled() || !s.logState {
		return
	}
	if keep := optionOf[func(S) bool]("state filter", s.stateFilter); keep != nil && !keep(next) {
		return
	}

	before, okBefore := any(prev).(map[string]any)
	after, okAfter := any(next).(map[string]any)
	if okBefore && okAfter {
		s.logger.Info("state", s.attrs(
			slog.String("changes", diff.FormatChangeset(diff.Objects(before, after))),
		)...)
		return
	}
	s.logger.Info("state", s.attrs(slog.Any("from", prev), slog.Any("to", next))...)
}

// logResult logs a loaded value, for stores that have no previous value to
// compare with.
func logResult[T any](s *settings, v T) {
	if !s.enabled() || !s.logState {
		return
	}
	if keep := optionOf[func(T) bool]("state filter", s.stateFilter); keep != nil && !keep(v) {
		return
	}
	s.logger.Info("state", s.attrs(slog.Any("value", v))...)
}

func (s *settings) logSubscribe(count int) {
	if !s.enabled() || !s.logSubscriptions {
		return
	}
	s.logger.Info("subscribe", s.attrs(slog.Int("subscribers", count))...)
}

func (s *settings) logUnsubscribe(count int) {
	if !s.enabled() || !s.logSubscriptions {
		return
	}
	s.logger.Info("unsubscribe", s.attrs(slog.Int("subscribers", count))...)
}

func (s *settings) logStatusChange(from, to Status) {
	if !s.enabled() || !s.logStatus || from == to {
		return
	}
	s.logger.Info("status", s.attrs(slog.String("from", from.String()), slog.String("to", to.String()))...)
}

// logEffectError is unconditional once a logger is set: a failed effect is a
// fault, not a trace.
func (s *settings) logEffectError(index int, err error) {
	if !s.enabled() {
		return
	}
	s.logger.Error("effect failed", s.attrs(slog.Int("effect", index), slog.Any("err", err))...)
}
