package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/aryankumar/netdiscover/internal/store"
)

// Status is the outcome of processing a single device
type Status int

const (
	// StatusClassified means the banner matched a pattern and was stored
	StatusClassified Status = iota

	// StatusUnclassified means the device answered but matched no pattern;
	// it is stored as unknown
	StatusUnclassified

	// StatusEmpty means the command produced no output; nothing is stored
	StatusEmpty

	// StatusFailed means the session or the write failed
	StatusFailed
)

// String returns the lower-case status name
func (s Status) String() string {
	switch s {
	case StatusClassified:
		return "classified"
	case StatusUnclassified:
		return "unclassified"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// DeviceResult describes what happened to one device. It never crosses the
// worker/pool boundary as an error.
type DeviceResult struct {
	Hostname string
	WorkerID int
	Status   Status

	// Lines is the number of output lines received
	Lines int

	// Record is the row written for classified and unclassified devices
	Record store.Record

	// Err is set for StatusFailed, wrapped in a *util.DeviceError
	Err error

	Duration time.Duration
}

// Persisted reports whether a row was written for the device
func (r DeviceResult) Persisted() bool {
	return r.Status == StatusClassified || r.Status == StatusUnclassified
}

// Outcome is the terminal state of a pool run
type Outcome int

const (
	// OutcomeCompleted means every worker drained the queue
	OutcomeCompleted Outcome = iota

	// OutcomeAbortedFatal means a worker hit a pool-fatal error
	OutcomeAbortedFatal

	// OutcomeCancelled means the caller's context ended
	OutcomeCancelled

	// OutcomeStalled means the drain timeout expired
	OutcomeStalled
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeAbortedFatal:
		return "aborted"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeStalled:
		return "stalled"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Report is returned by Pool.Run
type Report struct {
	Outcome Outcome

	// Reason is the error behind a non-completed outcome
	Reason error

	Workers int
	Devices int

	// Results holds one entry per finished device, in completion order
	Results []DeviceResult

	Duration time.Duration
}

// Unprocessed returns how many devices never reached a result
func (r Report) Unprocessed() int {
	if n := r.Devices - len(r.Results); n > 0 {
		return n
	}
	return 0
}

// Summary builds aggregate counts for the report
func (r Report) Summary() Summary {
	s := Summarize(r.Results)
	s.Unprocessed = r.Unprocessed()
	return s
}

// CountByStatus returns the number of results with the given status
func CountByStatus(results []DeviceResult, status Status) int {
	count := 0
	for _, r := range results {
		if r.Status == status {
			count++
		}
	}
	return count
}

// FilterByStatus returns only the results with the given status
func FilterByStatus(results []DeviceResult, status Status) []DeviceResult {
	filtered := make([]DeviceResult, 0, len(results))
	for _, r := range results {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FindHost returns the result for hostname
func FindHost(results []DeviceResult, hostname string) (DeviceResult, bool) {
	for _, r := range results {
		if r.Hostname == hostname {
			return r, true
		}
	}
	return DeviceResult{}, false
}

// GroupByWorker groups results by the worker that processed them
func GroupByWorker(results []DeviceResult) map[int][]DeviceResult {
	grouped := make(map[int][]DeviceResult)
	for _, r := range results {
		grouped[r.WorkerID] = append(grouped[r.WorkerID], r)
	}
	return grouped
}

// AverageDuration calculates the average duration of all results
func AverageDuration(results []DeviceResult) time.Duration {
	if len(results) == 0 {
		return 0
	}

	var total time.Duration
	for _, r := range results {
		total += r.Duration
	}
	return total / time.Duration(len(results))
}

// MaxDuration returns the longest duration among all results
func MaxDuration(results []DeviceResult) time.Duration {
	var longest time.Duration
	for _, r := range results {
		longest = max(longest, r.Duration)
	}
	return longest
}

// Errors extracts the per-device errors of failed results
func Errors(results []DeviceResult) []error {
	errs := make([]error, 0)
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// Summary provides aggregate counts of a run
type Summary struct {
	Total        int
	Classified   int
	Unclassified int
	Empty        int
	Failed       int
	Unprocessed  int
	AvgDuration  time.Duration
	MaxDuration  time.Duration
}

// Summarize creates a summary of the results
func Summarize(results []DeviceResult) Summary {
	return Summary{
		Total:        len(results),
		Classified:   CountByStatus(results, StatusClassified),
		Unclassified: CountByStatus(results, StatusUnclassified),
		Empty:        CountByStatus(results, StatusEmpty),
		Failed:       CountByStatus(results, StatusFailed),
		AvgDuration:  AverageDuration(results),
		MaxDuration:  MaxDuration(results),
	}
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Total: %d, ", s.Total)
	fmt.Fprintf(&sb, "Classified: %d, ", s.Classified)
	fmt.Fprintf(&sb, "Unclassified: %d, ", s.Unclassified)
	fmt.Fprintf(&sb, "Empty: %d, ", s.Empty)
	fmt.Fprintf(&sb, "Failed: %d", s.Failed)

	if s.Unprocessed > 0 {
		fmt.Fprintf(&sb, ", Unprocessed: %d", s.Unprocessed)
	}
	if s.Total > 0 {
		fmt.Fprintf(&sb, ", Avg: %s", s.AvgDuration.Round(time.Millisecond))
		fmt.Fprintf(&sb, ", Max: %s", s.MaxDuration.Round(time.Millisecond))
	}

	return sb.String()
}

// HasFailures returns true if any device failed
func HasFailures(results []DeviceResult) bool {
	return CountByStatus(results, StatusFailed) > 0
}

// SuccessRate returns the share of devices that were persisted, as a
// percentage (0.0 to 100.0)
func SuccessRate(results []DeviceResult) float64 {
	if len(results) == 0 {
		return 0.0
	}
	persisted := 0
	for _, r := range results {
		if r.Persisted() {
			persisted++
		}
	}
	return float64(persisted) / float64(len(results)) * 100.0
}
