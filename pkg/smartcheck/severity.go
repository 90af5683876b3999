// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	nagios "github.com/atc0005/go-nagios"
)

// Severity is a Nagios service state. Its numeric value is the plugin exit code.
type Severity int

const (
	OK       = Severity(nagios.StateOKExitCode)
	Warning  = Severity(nagios.StateWARNINGExitCode)
	Critical = Severity(nagios.StateCRITICALExitCode)
	Unknown  = Severity(nagios.StateUNKNOWNExitCode)
)

func (s Severity) String() string {
	switch s {
	case OK:
		return nagios.StateOKLabel
	case Warning:
		return nagios.StateWARNINGLabel
	case Critical:
		return nagios.StateCRITICALLabel
	default:
		return nagios.StateUNKNOWNLabel
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ExitCode maps the severity to the plugin exit code. Out of range values are UNKNOWN.
func (s Severity) ExitCode() int {
	switch s {
	case OK, Warning, Critical:
		return int(s)
	default:
		return nagios.StateUNKNOWNExitCode
	}
}

// rank orders severities for escalation: CRITICAL > WARNING > UNKNOWN > OK.
// An UNKNOWN probe must never hide a WARNING or CRITICAL already found.
func (s Severity) rank() int {
	switch s {
	case Critical:
		return 3
	case Warning:
		return 2
	case Unknown:
		return 1
	default:
		return 0
	}
}

// Escalator holds a severity that only moves upward in escalation order.
// The zero value starts at OK.
type Escalator struct {
	current Severity
}

// Escalate applies a requested severity.
//
// WARNING after CRITICAL and UNKNOWN after WARNING or CRITICAL are no-ops, as is OK.
func (e *Escalator) Escalate(requested Severity) bool {
	if requested.rank() <= e.current.rank() {
		return false
	}
	e.current = requested
	return true
}

// Severity returns the current verdict.
func (e *Escalator) Severity() Severity {
	return e.current
}

// MaxSeverity folds severities through an Escalator. The result does not depend on
// the order of the input.
func MaxSeverity(severities ...Severity) Severity {
	var esc Escalator
	for _, s := range severities {
		esc.Escalate(s)
	}
	return esc.Severity()
}
