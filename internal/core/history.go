package core

import (
	"context"

	"smokecheck/pkg/domain"
)

// AddHistory stamps entry with a fresh id and timestamp, prepends it and
// keeps the HistoryCapacity most recent entries.
func (s *Store) AddHistory(ctx context.Context, entry domain.QuickCalcEntry) (out domain.QuickCalcEntry, err error) {
	ctx, done := s.instrument(ctx, "add_history")
	defer func() { done(err) }()
	s.Initialize(ctx)
	s.mu.Lock()
	entry.ID = s.newID()
	entry.Timestamp = s.now()
	if entry.ShutterType != nil {
		t := *entry.ShutterType
		entry.ShutterType = &t
	}
	next := make([]domain.QuickCalcEntry, 0, HistoryCapacity)
	next = append(next, entry)
	next = append(next, s.history...)
	if len(next) > HistoryCapacity {
		next = next[:HistoryCapacity]
	}
	s.history = next
	payload, err := EncodeHistory(next)
	s.mu.Unlock()
	if err != nil {
		return domain.QuickCalcEntry{}, err
	}
	if err := s.write(ctx, s.keys.History, payload); err != nil {
		return domain.QuickCalcEntry{}, err
	}
	return cloneEntry(entry), nil
}

// History returns the log, most recent first.
func (s *Store) History(ctx context.Context) []domain.QuickCalcEntry {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.QuickCalcEntry, 0, len(s.history))
	for _, e := range s.history {
		out = append(out, cloneEntry(e))
	}
	return out
}

// ClearHistory empties the log and persists the empty list.
func (s *Store) ClearHistory(ctx context.Context) (err error) {
	ctx, done := s.instrument(ctx, "clear_history")
	defer func() { done(err) }()
	s.Initialize(ctx)
	s.mu.Lock()
	s.history = []domain.QuickCalcEntry{}
	payload, err := EncodeHistory(s.history)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.write(ctx, s.keys.History, payload)
}

func cloneEntry(e domain.QuickCalcEntry) domain.QuickCalcEntry {
	if e.ShutterType != nil {
		t := *e.ShutterType
		e.ShutterType = &t
	}
	return e
}
