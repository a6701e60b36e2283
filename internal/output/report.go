package output

import (
	"cmp"
	"slices"
	"time"

	"github.com/aryankumar/netdiscover/internal/executor"
	"github.com/aryankumar/netdiscover/internal/store"
)

// Report is the rendered view of a discovery run
type Report struct {
	Outcome  string      `json:"outcome" yaml:"outcome"`
	Reason   string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	Duration string      `json:"duration" yaml:"duration"`
	Devices  []DeviceRow `json:"devices" yaml:"devices"`
	Summary  SummaryView `json:"summary" yaml:"summary"`
}

// DeviceRow is one device line of a report
type DeviceRow struct {
	Hostname string `json:"hostname" yaml:"hostname"`
	Vendor   string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	OS       string `json:"os,omitempty" yaml:"os,omitempty"`
	Protocol string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Status   string `json:"status" yaml:"status"`
	Worker   int    `json:"worker" yaml:"worker"`
	Lines    int    `json:"lines" yaml:"lines"`
	Duration string `json:"duration" yaml:"duration"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SummaryView holds the aggregate counts of a report
type SummaryView struct {
	Total        int `json:"total" yaml:"total"`
	Classified   int `json:"classified" yaml:"classified"`
	Unclassified int `json:"unclassified" yaml:"unclassified"`
	Empty        int `json:"empty" yaml:"empty"`
	Failed       int `json:"failed" yaml:"failed"`
	Unprocessed  int `json:"unprocessed" yaml:"unprocessed"`
}

// NewReport merges the pool report with the rows read back from the store.
// Stored rows take precedence over the in-memory record of a device.
// Devices are sorted by hostname.
func NewReport(r executor.Report, records []store.Record) Report {
	stored := make(map[string]store.Record, len(records))
	for _, rec := range records {
		stored[rec.Hostname] = rec
	}

	rows := make([]DeviceRow, 0, len(r.Results))
	for _, res := range r.Results {
		row := DeviceRow{
			Hostname: res.Hostname,
			Status:   res.Status.String(),
			Worker:   res.WorkerID,
			Lines:    res.Lines,
			Duration: res.Duration.Round(time.Millisecond).String(),
		}
		if res.Persisted() {
			rec := res.Record
			if s, ok := stored[res.Hostname]; ok {
				rec = s
			}
			row.Vendor, row.OS, row.Protocol = rec.Vendor, rec.OS, rec.Protocol
		}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b DeviceRow) int {
		return cmp.Compare(a.Hostname, b.Hostname)
	})

	s := r.Summary()
	report := Report{
		Outcome:  r.Outcome.String(),
		Duration: r.Duration.Round(time.Millisecond).String(),
		Devices:  rows,
		Summary: SummaryView{
			Total:        s.Total,
			Classified:   s.Classified,
			Unclassified: s.Unclassified,
			Empty:        s.Empty,
			Failed:       s.Failed,
			Unprocessed:  s.Unprocessed,
		},
	}
	if r.Reason != nil {
		report.Reason = r.Reason.Error()
	}
	return report
}
