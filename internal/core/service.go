package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service owns all browsing sessions and applies the pipeline operations to
// them. Each session's record set, threshold and filtered set are replaced
// wholesale by the operations below; nothing is mutated in place.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*session

	maxSessions int

	// now is the clock used for age arithmetic. Overridable in tests.
	now func() time.Time
}

// NewService creates a Service. maxSessions caps concurrent sessions to
// bound memory; 0 means unlimited.
func NewService(maxSessions int) *Service {
	return &Service{
		sessions:    make(map[string]*session),
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// EnsureSession returns the session for id, creating a fresh one when id is
// empty or unknown. The returned ID is what the caller should persist (in a
// cookie) for subsequent requests.
func (s *Service) EnsureSession(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = s.now()
		return sess.ID, nil
	}

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return "", fmt.Errorf("session limit reached (%d)", s.maxSessions)
	}

	sess := &session{
		ID:       uuid.New().String(),
		State:    StateNoFile,
		lastSeen: s.now(),
	}
	s.sessions[sess.ID] = sess
	return sess.ID, nil
}

// StartUpload reserves an upload slot for the session and returns a token
// for CommitUpload. Calling it again before the first commit invalidates
// the earlier token: the newest upload wins regardless of which file
// finishes reading first.
func (s *Service) StartUpload(sessionID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return 0, ErrSessionNotFound
	}

	sess.uploadSeq++
	return sess.uploadSeq, nil
}

// CommitUpload ingests the uploaded bytes and installs the resulting record
// set, replacing any prior one entirely.
//
// Preconditions, in order:
//   - token must still be the session's newest upload (else ErrStaleUpload,
//     the session is untouched);
//   - fileName must be non-empty (else the no-file error state);
//   - the extension must be supported (else the unsupported-format error
//     state, prior record set kept);
//   - the bytes must parse (else an error state, prior record set kept).
func (s *Service) CommitUpload(ctx context.Context, sessionID string, token uint64, fileName string, data []byte) (Snapshot, error) {
	// Parsing happens outside the lock; only the install is serialized.
	var (
		ds       *Dataset
		parseErr error
	)
	if fileName == "" {
		parseErr = ErrNoFile
	} else {
		ds, parseErr = Ingest(fileName, data, s.now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	sess.lastSeen = s.now()

	if token != sess.uploadSeq {
		// A newer upload started while this one was being read. Ignore it.
		return sess.snapshotLocked(), ErrStaleUpload
	}

	if parseErr != nil {
		sess.State = StateError
		sess.Message = UserMessage(parseErr)
		slog.InfoContext(ctx, "upload rejected",
			"session", sess.ID, "file", fileName, "error", parseErr)
		return sess.snapshotLocked(), parseErr
	}

	sess.Dataset = ds
	sess.Filtered = nil
	sess.Threshold = 0
	sess.State = StateLoaded
	sess.Message = ""

	slog.InfoContext(ctx, "file ingested",
		"session", sess.ID, "file", fileName, "records", len(ds.Records))

	return sess.snapshotLocked(), nil
}

// ApplyFilter filters the session's record set by the raw threshold text.
// The filtered set is recomputed wholesale; re-running with the same
// threshold yields the same result.
func (s *Service) ApplyFilter(ctx context.Context, sessionID, rawThreshold string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	sess.lastSeen = s.now()

	if sess.Dataset == nil {
		sess.State = StateError
		sess.Message = MsgNoFile
		return sess.snapshotLocked(), ErrNoFile
	}

	threshold, err := ParseThreshold(rawThreshold)
	if err != nil {
		sess.State = StateError
		sess.Message = MsgMissingThreshold
		return sess.snapshotLocked(), err
	}

	sess.Threshold = threshold
	sess.Filtered = Filter(sess.Dataset.Records, threshold, s.now())

	if len(sess.Filtered) == 0 {
		sess.State = StateNoResults
		sess.Message = MsgNoResults
	} else {
		sess.State = StateFiltered
		sess.Message = ""
	}

	slog.InfoContext(ctx, "filter applied",
		"session", sess.ID, "threshold", threshold,
		"matched", len(sess.Filtered), "total", len(sess.Dataset.Records))

	return sess.snapshotLocked(), nil
}

// Reset returns the session to the no-file state unconditionally, discarding
// the record set, threshold and any error text.
func (s *Service) Reset(sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}

	sess.Dataset = nil
	sess.Filtered = nil
	sess.Threshold = 0
	sess.State = StateNoFile
	sess.Message = ""
	sess.lastSeen = s.now()

	return sess.snapshotLocked(), nil
}

// ExportFiltered serializes the session's filtered result set to an xlsx
// workbook. Only valid when the last filter produced records.
func (s *Service) ExportFiltered(sessionID string) ([]byte, string, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.RUnlock()
		return nil, "", ErrSessionNotFound
	}

	if sess.State != StateFiltered || len(sess.Filtered) == 0 {
		s.mu.RUnlock()
		return nil, "", ErrNothingToExport
	}

	columns := append([]string(nil), sess.Dataset.Columns...)
	records := cloneRecords(sess.Filtered)
	s.mu.RUnlock()

	data, err := BuildWorkbook(columns, records)
	if err != nil {
		return nil, "", err
	}

	return data, ExportFileName, nil
}

// Snapshot returns the current renderable view of the session.
func (s *Service) Snapshot(sessionID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}

	return sess.snapshotLocked(), nil
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartSessionSweeper evicts sessions idle for longer than ttl, checking
// every interval. Runs until ctx is cancelled.
func (s *Service) StartSessionSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := s.sweep(ttl)
			if evicted > 0 {
				slog.Debug("sessions evicted", "count", evicted)
			}
		}
	}
}

func (s *Service) sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}
