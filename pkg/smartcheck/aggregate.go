// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"fmt"
	"strings"
)

const (
	multiDeviceSeparator = " --- "
	otherDrivesOK        = "Other drives OK"
	deviceClean          = "Device is clean"
	noErrorsDetected     = "no SMART errors detected"
)

// Result is the outcome of a run: one status line plus perfdata.
type Result struct {
	Severity Severity           `json:"severity"`
	Message  string             `json:"message"`
	PerfData []AttributeFinding `json:"perfdata,omitempty"`
	Reports  []DeviceReport     `json:"reports,omitempty"`
}

// FatalResult reports an error that stopped the run before any probe.
func FatalResult(err error) *Result {
	return &Result{Severity: Unknown, Message: err.Error()}
}

// ExitCode is the plugin exit code for the result.
func (r *Result) ExitCode() int {
	return r.Severity.ExitCode()
}

// String renders "STATUS: message|perfdata".
func (r *Result) String() string {
	perf := make([]string, len(r.PerfData))
	for i, f := range r.PerfData {
		perf[i] = f.String()
	}
	return fmt.Sprintf("%s: %s|%s", r.Severity, r.Message, strings.Join(perf, " "))
}

// Aggregate merges device reports into one Result. multi selects the labelled
// multi-device layout; quiet collapses OK devices when another one is not OK.
func Aggregate(reports []DeviceReport, multi, quiet bool) *Result {
	res := &Result{Reports: reports}

	severities := make([]Severity, len(reports))
	for i := range reports {
		severities[i] = reports[i].Severity
		res.PerfData = append(res.PerfData, reports[i].PerfData()...)
	}
	res.Severity = MaxSeverity(severities...)

	if !multi {
		var parts []string
		for i := range reports {
			parts = append(parts, singleDeviceMessage(&reports[i]))
		}
		res.Message = strings.Join(parts, " ")
		return res
	}

	buckets := map[Severity][]string{}
	for i := range reports {
		r := &reports[i]
		buckets[r.Severity] = append(buckets[r.Severity], multiDeviceFragment(r))
	}

	var fragments []string
	for _, sev := range []Severity{Critical, Warning, Unknown} {
		fragments = append(fragments, buckets[sev]...)
	}
	if quiet && len(fragments) > 0 && len(buckets[OK]) > 0 {
		fragments = append(fragments, otherDrivesOK)
	} else {
		fragments = append(fragments, buckets[OK]...)
	}

	res.Message = strings.Join(fragments, multiDeviceSeparator)
	return res
}

func singleDeviceMessage(r *DeviceReport) string {
	head := fmt.Sprintf("Drive %s S/N %s: ", r.Model, r.Serial)
	msgs := strings.Join(r.Messages(), ", ")
	if r.Severity != OK {
		return head + msgs
	}
	if msgs == "" {
		return head + noErrorsDetected
	}
	return head + noErrorsDetected + ". " + msgs
}

func multiDeviceFragment(r *DeviceReport) string {
	label := r.Target.Label()
	if r.Severity != OK {
		return label + strings.Join(r.Messages(), ", ")
	}

	var b strings.Builder
	b.WriteString(label)
	b.WriteString(deviceClean)
	for _, bucket := range [][]string{r.Errors, r.Warnings, r.Notices} {
		if len(bucket) == 0 {
			continue
		}
		b.WriteString(" ")
		b.WriteString(label)
		b.WriteString(strings.Join(bucket, ", "))
	}
	return b.String()
}
