// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package smartcheck evaluates smartctl output for one or more drives and
// folds the findings into a single monitoring plugin verdict.
package smartcheck

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Request names the devices of one run. Device takes precedence over Pattern.
type Request struct {
	Device    string
	Pattern   string
	Interface Interface
}

// Checker runs the SMART health check for a Request.
type Checker struct {
	Runner   Runner
	Resolver *Resolver
	Policy   *Policy
	// Concurrency bounds the number of targets probed at once. Values below 2
	// probe sequentially.
	Concurrency int
}

// NewChecker returns a sequential Checker using the local filesystem resolver.
func NewChecker(runner Runner, policy *Policy) *Checker {
	return &Checker{Runner: runner, Resolver: NewResolver(), Policy: policy, Concurrency: 1}
}

// Run resolves the targets, probes each of them and aggregates the reports.
// Returned errors are fatal for the whole run and map to UNKNOWN.
func (c *Checker) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Device == "" && req.Pattern == "" {
		return nil, ErrNoDeviceSpecified
	}
	if req.Interface == "" {
		return nil, ErrNoInterfaceSpecified
	}

	targets, err := c.Resolver.Resolve(req.Device, req.Pattern, req.Interface)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Strs("raw_check_ata", c.Policy.RawCheckATA.Sorted()).
		Strs("raw_check_nvme", c.Policy.RawCheckNVMe.Sorted()).
		Interface("thresholds", c.Policy.Thresholds).
		Int("targets", len(targets)).
		Msg("check_started")

	multi := req.Device == "" || len(targets) > 1
	reports := c.CheckTargets(ctx, targets, !multi)

	res := Aggregate(reports, multi, c.Policy.Quiet)
	log.Debug().Str("status", res.Severity.String()).Msg("check_finished")
	return res, nil
}

// CheckTargets probes every target and returns the reports in target order,
// regardless of completion order.
func (c *Checker) CheckTargets(ctx context.Context, targets []DeviceTarget, single bool) []DeviceReport {
	reports := make([]DeviceReport, len(targets))

	if c.Concurrency < 2 || len(targets) < 2 {
		for i, t := range targets {
			reports[i] = c.CheckTarget(ctx, t, single)
		}
		return reports
	}

	sem := make(chan struct{}, c.Concurrency)
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, t DeviceTarget) {
			defer wg.Done()
			defer func() { <-sem }()
			reports[i] = c.CheckTarget(ctx, t, single)
		}(i, t)
	}
	wg.Wait()
	return reports
}

// CheckTarget runs every probe against one target. Probe failures become
// UNKNOWN findings and never stop the remaining probes.
func (c *Checker) CheckTarget(ctx context.Context, t DeviceTarget, single bool) DeviceReport {
	st := newDeviceState(t, single)
	dev, iface := t.Device, string(t.Interface)
	logger := log.With().Str("device", dev).Str("interface", iface).Logger()

	// health self-assessment and identity
	args := []string{"-d", iface, "-Hi", dev}
	if c.Policy.HideSerial {
		args = append(args, "-q", "noserial")
	}
	mode := ModeUnknown
	if out, err := c.Runner.Run(ctx, args...); err != nil {
		logger.Warn().Err(err).Msg("health probe failed")
		st.fail(Unknown, fmt.Sprintf("Health probe failed: %v", err))
	} else {
		mode = classifyHealth(out.Lines, t.Interface, c.Policy, st)
	}
	st.report.Mode = mode

	// silent exit status bit mask
	if out, err := c.Runner.Run(ctx, "-d", iface, "-q", "silent", "-A", dev); err != nil {
		logger.Warn().Err(err).Msg("silent probe failed")
		st.fail(Unknown, fmt.Sprintf("Silent check probe failed: %v", err))
	} else {
		logger.Debug().Int("exit_code", out.ExitCode).Msg("silent check")
		applySilentExitCode(out.ExitCode, st)
	}

	if c.Policy.SelfTest {
		if out, err := c.Runner.Run(ctx, "-d", iface, "-q", "silent", "-l", "selftest", dev); err != nil {
			logger.Warn().Err(err).Msg("self-test probe failed")
			st.fail(Unknown, fmt.Sprintf("Self-test probe failed: %v", err))
		} else {
			applySelfTestExitCode(out.ExitCode, st)
		}
	}

	// detailed attributes
	out, err := c.Runner.Run(ctx, "-d", iface, "-a", dev)
	if err != nil {
		logger.Warn().Err(err).Msg("attribute probe failed")
		st.fail(Unknown, fmt.Sprintf("Attribute probe failed: %v", err))
		return st.finish()
	}

	switch mode {
	case ModeATA:
		parseATA(out.Lines, c.Policy, st)
	case ModeNVMe:
		parseNVMe(out.Lines, c.Policy, st)
	default:
		parseSCSI(out.Lines, c.Policy, st)
	}

	report := st.finish()
	logger.Debug().
		Str("local_status", report.Severity.String()).
		Int("findings", len(report.Findings)).
		Msg("device_checked")
	return report
}
