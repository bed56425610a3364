package contracts

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// RunState is the controller's re-entrancy state
type RunState string

const (
	RunIdle    RunState = "idle"
	RunRunning RunState = "running"
)

// Verdict is the classifier outcome for one item
type Verdict string

const (
	VerdictKeep    Verdict = "keep"
	VerdictDrop    Verdict = "drop"
	VerdictNeither Verdict = "neither"
)

// Number is a float that encodes NaN/Inf as JSON null
type Number float64

// Valid reports whether the number is finite
func (n Number) Valid() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON implements json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(n), 'f', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN
func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Number(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// String renders NaN the way the diagnostics log it
func (n Number) String() string {
	if !n.Valid() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// ItemDiagnostic is the post-hoc record kept for every processed item
// ⭐ SSOT: 종목별 진단 기록 구조체
type ItemDiagnostic struct {
	Index         int           `json:"index"`
	Identifier    string        `json:"symbol"`
	RowResolved   bool          `json:"row_resolved"`
	Selected      bool          `json:"selected"`
	SelectionPath []string      `json:"selection_path,omitempty"`
	ConfigMissing []string      `json:"config_missing,omitempty"`
	Refreshed     bool          `json:"refreshed"`
	PrimaryText   string        `json:"primary_text"`
	SecondaryText string        `json:"secondary_text"`
	Primary       Number        `json:"primary"`
	Secondary     Number        `json:"secondary"`
	Thresholds    Thresholds    `json:"thresholds"`
	Verdict       Verdict       `json:"verdict"`
	Deleted       bool          `json:"deleted"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// RunStatus is the terminal state of a run
type RunStatus string

const (
	RunCompleted      RunStatus = "completed"
	RunNoSource       RunStatus = "no_source"
	RunFaulted        RunStatus = "faulted"
	RunCancelled      RunStatus = "cancelled"
	RunDeliveryFailed RunStatus = "delivery_failed"
)

// RunSummary describes one finished batch run
type RunSummary struct {
	RunID       string           `json:"run_id"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	Status      RunStatus        `json:"status"`
	Source      ListingSource    `json:"source"`
	Items       []string         `json:"items"`
	Kept        int              `json:"kept"`
	Dropped     int              `json:"dropped"`
	Deleted     int              `json:"deleted"`
	Neither     int              `json:"neither"`
	Records     []MetricRecord   `json:"records"`
	Diagnostics []ItemDiagnostic `json:"diagnostics"`
	Destination string           `json:"destination"`
	ConfigHash  string           `json:"config_hash,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Duration returns the wall-clock run time
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
