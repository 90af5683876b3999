// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/checksmart/pkg/smartcheck"
)

// discoverDevices lists the devices smartctl can open, with the interface it
// picked for each of them. Lines look like
//
//	/dev/sda -d sat # /dev/sda [SAT], ATA device
func discoverDevices(ctx context.Context, runner smartcheck.Runner) ([]smartcheck.DeviceTarget, error) {
	out, err := runner.Run(ctx, "--scan-open")
	if err != nil {
		return nil, fmt.Errorf("error running smartctl --scan-open: %w", err)
	}

	var targets []smartcheck.DeviceTarget
	for _, line := range out.Lines {
		line, _, _ = strings.Cut(line, "#")
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[1] != "-d" {
			continue
		}
		iface := smartcheck.Interface(fields[2])
		if err := iface.Validate(); err != nil {
			log.Debug().Err(err).Str("device", fields[0]).Msg("skipping scanned device")
			continue
		}
		targets = append(targets, smartcheck.DeviceTarget{Device: fields[0], Interface: iface})
	}
	return targets, nil
}

// resolveTargets expands the configured disks into targets. Entries with glob
// characters are treated as patterns.
func resolveTargets(ctx context.Context, cfg DiskHealthMetricsConfig, resolver *smartcheck.Resolver, runner smartcheck.Runner) ([]smartcheck.DeviceTarget, error) {
	if len(cfg.Disks) == 1 && cfg.Disks[0] == "*" {
		return discoverDevices(ctx, runner)
	}

	iface := smartcheck.Interface(cfg.Interface)
	if iface == "" {
		iface = "auto"
	}

	var targets []smartcheck.DeviceTarget
	seen := map[smartcheck.DeviceTarget]struct{}{}
	for _, disk := range cfg.Disks {
		disk = strings.TrimSpace(disk)
		if disk == "" {
			continue
		}
		device, pattern := disk, ""
		if strings.ContainsAny(disk, "*?[") {
			device, pattern = "", disk
		}
		resolved, err := resolver.Resolve(device, pattern, iface)
		if err != nil {
			log.Warn().Err(err).Str("disk", disk).Msg("skipping disk")
			continue
		}
		for _, t := range resolved {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			targets = append(targets, t)
		}
	}
	return targets, nil
}
