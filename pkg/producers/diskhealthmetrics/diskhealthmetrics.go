// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/checksmart/pkg/smartcheck"
)

var errNoDevices = errors.New("no devices found for monitoring")

// Monitor periodically checks a fixed set of targets. Its policy can be
// swapped while it runs.
type Monitor struct {
	cfg      DiskHealthMetricsConfig
	runner   smartcheck.Runner
	resolver *smartcheck.Resolver

	mu      sync.RWMutex
	policy  *smartcheck.Policy
	targets []smartcheck.DeviceTarget

	now func() time.Time
}

// NewMonitor builds a Monitor from cfg, probing through runner.
func NewMonitor(cfg DiskHealthMetricsConfig, runner smartcheck.Runner) (*Monitor, error) {
	policy, err := smartcheck.NewPolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	if cfg.NodeName == "" {
		cfg.NodeName = defaultNodeName()
	}
	return &Monitor{
		cfg:      cfg,
		runner:   runner,
		resolver: smartcheck.NewResolver(),
		policy:   policy,
		now:      time.Now,
	}, nil
}

// Discover resolves the configured disks. It must succeed before Collect
// returns anything.
func (m *Monitor) Discover(ctx context.Context) error {
	targets, err := resolveTargets(ctx, m.cfg, m.resolver, m.runner)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errNoDevices
	}

	devices := make([]string, len(targets))
	for i, t := range targets {
		devices[i] = t.String()
	}
	log.Info().Strs("devices", devices).Msg("devices for monitoring")

	m.mu.Lock()
	m.targets = targets
	m.mu.Unlock()
	return nil
}

// UpdatePolicy replaces the policy used by the next collection cycle.
func (m *Monitor) UpdatePolicy(cfg smartcheck.PolicyConfig) error {
	policy, err := smartcheck.NewPolicy(cfg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.policy = policy
	m.mu.Unlock()
	log.Info().Msg("check policy updated")
	return nil
}

// Policy returns the policy in effect.
func (m *Monitor) Policy() *smartcheck.Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policy
}

// Collect runs one check cycle over every target.
func (m *Monitor) Collect(ctx context.Context) []DeviceHealth {
	m.mu.RLock()
	policy, targets := m.policy, m.targets
	m.mu.RUnlock()

	checker := &smartcheck.Checker{
		Runner:      m.runner,
		Resolver:    m.resolver,
		Policy:      policy,
		Concurrency: m.cfg.Concurrency,
	}
	reports := checker.CheckTargets(ctx, targets, len(targets) == 1)

	checkedAt := m.now()
	health := make([]DeviceHealth, len(reports))
	for i, r := range reports {
		health[i] = DeviceHealth{
			NodeName:     m.cfg.NodeName,
			InstanceID:   m.cfg.InstanceID,
			Vendor:       FindVendor(r.Model),
			CheckedAt:    checkedAt,
			DeviceReport: r,
		}
	}
	return health
}

// Run collects every interval until ctx is done and hands each cycle to publish.
func (m *Monitor) Run(ctx context.Context, publish func([]DeviceHealth)) {
	interval := time.Duration(m.cfg.Interval) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := m.now()
			health := m.Collect(ctx)
			checkDurationGauge.WithLabelValues(m.cfg.NodeName, m.cfg.InstanceID).Set(time.Since(start).Seconds())
			publish(health)
		}
	}
}

// StartMonitoring runs the monitor until ctx is cancelled. Setup failures are fatal.
func StartMonitoring(ctx context.Context, cfg DiskHealthMetricsConfig, ready func(*Monitor)) {
	runner, err := smartcheck.NewExecRunner(cfg.SmartctlPath, cfg.Sudo, cfg.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("smartctl is not installed. please install smartmontools package.")
	}

	m, err := NewMonitor(cfg, runner)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid check policy")
	}
	if err := m.Discover(ctx); err != nil {
		log.Fatal().Err(err).Msg("error discovering devices")
	}
	if ready != nil {
		ready(m)
	}

	var nc *nats.Conn
	if cfg.UseNats {
		nc, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			log.Fatal().Err(err).Msg("error connecting to nats")
		}
		defer nc.Close()
	}

	if cfg.Prometheus {
		StartPrometheusServer(cfg.PrometheusPort)
	}

	m.Run(ctx, func(health []DeviceHealth) {
		if cfg.Prometheus {
			PublishToPrometheus(health)
		}

		if cfg.UseNats {
			if err := PublishToNATS(health, nc, cfg.NatsSubject); err != nil {
				log.Error().Err(err).Msg("error publishing health to nats")
			}
			return
		}

		healthJSON, err := json.Marshal(health)
		if err != nil {
			log.Error().Err(err).Msg("error marshalling health to json")
			return
		}
		fmt.Println(string(healthJSON))
	})
}
