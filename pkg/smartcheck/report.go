// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"strings"

	nagios "github.com/atc0005/go-nagios"
	"github.com/rs/zerolog/log"
)

// FindingSource tells where an AttributeFinding was read from.
type FindingSource int

const (
	SourceATAAttribute FindingSource = iota
	SourceATAErrorLog
	SourceNVMeField
	SourceSCSIField
)

func (s FindingSource) String() string {
	switch s {
	case SourceATAAttribute:
		return "ata_attribute"
	case SourceATAErrorLog:
		return "ata_error_log"
	case SourceNVMeField:
		return "nvme_field"
	case SourceSCSIField:
		return "scsi_field"
	default:
		return "unknown"
	}
}

// AttributeFinding is one parsed value destined for performance data.
type AttributeFinding struct {
	Name    string        `json:"name"`
	Raw     int64         `json:"raw"`
	Display string        `json:"display"`
	Perf    bool          `json:"perf"`
	Source  FindingSource `json:"source"`
	Warn    string        `json:"warn,omitempty"`
	Crit    string        `json:"crit,omitempty"`
	Min     string        `json:"min,omitempty"`
	Max     string        `json:"max,omitempty"`
}

// PerfData converts the finding into a Nagios performance data point.
func (f AttributeFinding) PerfData() nagios.PerformanceData {
	return nagios.PerformanceData{
		Label: f.Name,
		Value: f.Display,
		Warn:  f.Warn,
		Crit:  f.Crit,
		Min:   f.Min,
		Max:   f.Max,
	}
}

// String renders the finding as "label=value;warn;crit;min;max".
func (f AttributeFinding) String() string {
	return FormatPerfData(f.PerfData())
}

// FormatPerfData renders a data point with all five fields, leaving unset ones empty.
func FormatPerfData(pd nagios.PerformanceData) string {
	var b strings.Builder
	b.WriteString(pd.Label)
	b.WriteByte('=')
	b.WriteString(pd.Value)
	b.WriteString(pd.UnitOfMeasurement)
	for _, field := range []string{pd.Warn, pd.Crit, pd.Min, pd.Max} {
		b.WriteByte(';')
		b.WriteString(field)
	}
	return b.String()
}

// DeviceReport is the outcome of checking one DeviceTarget.
type DeviceReport struct {
	Target   DeviceTarget       `json:"target"`
	Model    string             `json:"model"`
	Serial   string             `json:"serial"`
	Mode     OutputMode         `json:"mode"`
	Severity Severity           `json:"severity"`
	Errors   []string           `json:"errors,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
	Notices  []string           `json:"notices,omitempty"`
	Findings []AttributeFinding `json:"findings,omitempty"`
}

// Messages returns errors, warnings and notices in that order.
func (r *DeviceReport) Messages() []string {
	out := make([]string, 0, len(r.Errors)+len(r.Warnings)+len(r.Notices))
	out = append(out, r.Errors...)
	out = append(out, r.Warnings...)
	return append(out, r.Notices...)
}

// PerfData returns the findings flagged for performance data.
func (r *DeviceReport) PerfData() []AttributeFinding {
	var out []AttributeFinding
	for _, f := range r.Findings {
		if f.Perf {
			out = append(out, f)
		}
	}
	return out
}

// deviceState accumulates messages and severity while a target is checked.
// It is owned by a single goroutine and frozen into a DeviceReport at the end.
type deviceState struct {
	report DeviceReport
	esc    Escalator
	// single is true when perfdata of raw attributes may be emitted.
	single bool
}

func newDeviceState(target DeviceTarget, single bool) *deviceState {
	return &deviceState{report: DeviceReport{Target: target}, single: single}
}

func (s *deviceState) escalate(requested Severity) {
	if s.esc.Escalate(requested) {
		log.Debug().
			Str("device", s.report.Target.Device).
			Str("interface", string(s.report.Target.Interface)).
			Str("severity", requested.String()).
			Msg("escalated")
	}
}

func (s *deviceState) fail(sev Severity, msg string) {
	s.report.Errors = append(s.report.Errors, msg)
	s.escalate(sev)
}

func (s *deviceState) warn(msg string) {
	s.report.Warnings = append(s.report.Warnings, msg)
	s.escalate(Warning)
}

// warnText records a warning message without escalating.
func (s *deviceState) warnText(msg string) {
	s.report.Warnings = append(s.report.Warnings, msg)
}

func (s *deviceState) notice(msg string) {
	s.report.Notices = append(s.report.Notices, msg)
}

func (s *deviceState) addFinding(f AttributeFinding) {
	s.report.Findings = append(s.report.Findings, f)
}

func (s *deviceState) finish() DeviceReport {
	s.report.Severity = s.esc.Severity()
	return s.report
}
