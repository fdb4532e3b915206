package core

import "time"

// SessionState is the authoritative state of one browsing session. It
// replaces the ad-hoc combination of flags the UI would otherwise juggle;
// every transition goes through the Service so the state can never drift
// from the data it describes.
type SessionState string

const (
	// StateNoFile is the initial state: nothing uploaded yet.
	StateNoFile SessionState = "no_file"
	// StateLoaded means a file was ingested and the full record set is shown.
	StateLoaded SessionState = "loaded"
	// StateFiltered means the last filter produced at least one record.
	StateFiltered SessionState = "filtered"
	// StateNoResults means the last filter matched nothing.
	StateNoResults SessionState = "no_results"
	// StateError means the last action failed a precondition; Message holds
	// the user-facing text.
	StateError SessionState = "error"
)

// session is the per-browser working set. All fields are guarded by the
// Service mutex; sessions are replaced wholesale, never mutated concurrently.
type session struct {
	ID        string
	State     SessionState
	Message   string
	Dataset   *Dataset
	Filtered  []Record
	Threshold int

	// uploadSeq orders uploads within the session. A commit carrying a
	// token older than the latest StartUpload is stale and discarded, so a
	// slow first upload can never overwrite a faster second one.
	uploadSeq uint64

	lastSeen time.Time
}

// snapshotLocked captures the renderable view of the session. Caller holds
// at least a read lock.
func (s *session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.ID,
		State:     s.State,
		Message:   s.Message,
		Threshold: s.Threshold,
	}

	if s.Dataset != nil {
		snap.FileName = s.Dataset.FileName
		snap.Columns = append([]string(nil), s.Dataset.Columns...)
		snap.TotalRecords = len(s.Dataset.Records)
	}

	switch s.State {
	case StateFiltered, StateNoResults:
		snap.Records = cloneRecords(s.Filtered)
	case StateLoaded:
		if s.Dataset != nil {
			snap.Records = cloneRecords(s.Dataset.Records)
		}
	}

	return snap
}

// Snapshot is the read-only view handed to the web layer for rendering.
type Snapshot struct {
	SessionID    string       `json:"sessionId"`
	State        SessionState `json:"state"`
	Message      string       `json:"message,omitempty"`
	FileName     string       `json:"fileName,omitempty"`
	Columns      []string     `json:"columns,omitempty"`
	Records      []Record     `json:"records"`
	TotalRecords int          `json:"totalRecords"`
	Threshold    int          `json:"threshold"`
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
