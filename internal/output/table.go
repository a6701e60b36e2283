package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// TableFormatter formats output as a borderless table
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(f.createTable(w), v)
	case []map[string]interface{}:
		return f.formatMapSlice(f.createTable(w), v)
	default:
		fmt.Fprintln(w, v)
		return nil
	}
}

// FormatReport outputs one row per device followed by a summary line
func (f *TableFormatter) FormatReport(w io.Writer, report Report) error {
	colors := NewColorScheme(w, f.options.NoColor)

	if len(report.Devices) == 0 {
		fmt.Fprintln(w, "No devices")
	} else {
		table := f.createTable(w)

		headers := []string{"HOSTNAME", "VENDOR", "OS", "PROTOCOL", "STATUS", "DURATION"}
		if f.options.Wide {
			headers = append(headers, "WORKER", "LINES", "ERROR")
		}

		if !f.options.NoHeaders {
			if colors.Disabled {
				table.SetHeader(headers)
			} else {
				coloredHeaders := make([]string, len(headers))
				for i, h := range headers {
					coloredHeaders[i] = colors.Header(h)
				}
				table.SetHeader(coloredHeaders)
			}
		}

		for _, row := range report.Devices {
			table.Append(f.formatDeviceRow(row, colors))
		}
		table.Render()
	}

	f.printSummary(w, report, colors)
	return nil
}

// formatDeviceRow formats a single device as a table row
func (f *TableFormatter) formatDeviceRow(row DeviceRow, colors *ColorScheme) []string {
	dash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}

	out := []string{
		colors.Hostname("%s", row.Hostname),
		dash(row.Vendor),
		dash(row.OS),
		dash(row.Protocol),
		colors.StatusColor(row.Status)("%s", row.Status),
		colors.Duration("%s", row.Duration),
	}

	if f.options.Wide {
		errText := row.Error
		if len(errText) > 60 {
			errText = errText[:57] + "..."
		}
		out = append(out,
			fmt.Sprintf("%d", row.Worker),
			fmt.Sprintf("%d", row.Lines),
			dash(errText))
	}

	return out
}

// formatMap formats a map as a two-column table (key-value pairs)
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%v", data[k])})
	}

	table.Render()
	return nil
}

// formatMapSlice formats a slice of maps as a table
func (f *TableFormatter) formatMapSlice(table *tablewriter.Table, data []map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	var keys []string
	for k := range data[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if !f.options.NoHeaders {
		headers := make([]string, len(keys))
		for i, k := range keys {
			headers[i] = strings.ToUpper(k)
		}
		table.SetHeader(headers)
	}

	for _, item := range data {
		row := make([]string, 0, len(keys))
		for _, k := range keys {
			row = append(row, fmt.Sprintf("%v", item[k]))
		}
		table.Append(row)
	}

	table.Render()
	return nil
}

// createTable creates a new borderless, tab-padded table
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints a summary of the report
func (f *TableFormatter) printSummary(w io.Writer, report Report, colors *ColorScheme) {
	s := report.Summary

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: ")

	classified := colors.Success("%d classified", s.Classified)

	failed := fmt.Sprintf("%d failed", s.Failed)
	if s.Failed > 0 {
		failed = colors.Error("%s", failed)
	}

	parts := []string{
		classified,
		fmt.Sprintf("%d unclassified", s.Unclassified),
		fmt.Sprintf("%d empty", s.Empty),
		failed,
	}
	if s.Unprocessed > 0 {
		parts = append(parts, colors.Warning("%d unprocessed", s.Unprocessed))
	}
	parts = append(parts, colors.Duration("took %s", report.Duration))

	fmt.Fprintf(w, "%s (%s)\n", strings.Join(parts, ", "), report.Outcome)
	if report.Reason != "" {
		fmt.Fprintf(w, "Reason: %s\n", colors.Error("%s", report.Reason))
	}
}
