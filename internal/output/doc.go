// Package output renders discovery reports.
//
// NewReport merges an executor.Report with the rows read back from the
// result store into a Report view. A Formatter then writes it as a
// borderless table, JSON, or YAML:
//
//	report := output.NewReport(runReport, records)
//	formatter := output.NewFormatter(output.FormatTable, output.WithWide(true))
//	formatter.FormatReport(os.Stdout, report)
//
// Colors are used only when writing to a terminal and can be turned off
// with WithNoColor.
package output
