// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/checksmart/pkg/producers/diskhealthmetrics"
)

const diskHealthCheckType = "disk_health_check"

// Registry keeps the running monitors by producer name so a reloaded config
// can update their policies.
type Registry struct {
	mu       sync.Mutex
	monitors map[string]*diskhealthmetrics.Monitor
}

func NewRegistry() *Registry {
	return &Registry{monitors: map[string]*diskhealthmetrics.Monitor{}}
}

func (r *Registry) add(name string, m *diskhealthmetrics.Monitor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.monitors[name] = m
}

// ApplyPolicies pushes the policy of every disk health producer in cfg to the
// monitor of the same name.
func (r *Registry) ApplyPolicies(cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, producer := range cfg.Producers {
		if producer.Type != diskHealthCheckType {
			continue
		}
		m, ok := r.monitors[producer.Name]
		if !ok {
			log.Warn().Str("producer", producer.Name).Msg("no running monitor for producer, restart to add it")
			continue
		}
		policy, err := PolicyFromSettings(producer.Settings)
		if err == nil {
			err = m.UpdatePolicy(policy)
		}
		if err != nil {
			log.Error().Err(err).Str("producer", producer.Name).Msg("keeping previous policy")
		}
	}
}

// DiskHealthConfigFromSettings merges a producer's settings over the global config.
func DiskHealthConfigFromSettings(producer ProducerConfig, globalConfig GlobalConfig) (diskhealthmetrics.DiskHealthMetricsConfig, error) {
	policy, err := PolicyFromSettings(producer.Settings)
	if err != nil {
		return diskhealthmetrics.DiskHealthMetricsConfig{}, err
	}
	natsURL := GetStringSetting(producer.Settings, "nats_url", globalConfig.NatsURL)
	timeout := GetIntSetting(producer.Settings, "timeout_seconds", globalConfig.TimeoutSeconds)

	return diskhealthmetrics.DiskHealthMetricsConfig{
		NatsURL:        natsURL,
		NatsSubject:    GetStringSetting(producer.Settings, "nats_subject", "osd.disk.health"),
		UseNats:        natsURL != "",
		Prometheus:     GetBoolSetting(producer.Settings, "prometheus", false),
		PrometheusPort: GetIntSetting(producer.Settings, "prometheus_port", 8080),
		Disks:          GetListSetting(producer.Settings, "disks"),
		Interface:      GetStringSetting(producer.Settings, "interface", "auto"),
		Interval:       GetIntSetting(producer.Settings, "interval", 300),
		NodeName:       GetStringSetting(producer.Settings, "node_name", globalConfig.NodeName),
		InstanceID:     GetStringSetting(producer.Settings, "instance_id", globalConfig.InstanceID),
		SmartctlPath:   GetStringSetting(producer.Settings, "smartctl", globalConfig.SmartctlPath),
		Sudo:           GetBoolSetting(producer.Settings, "sudo", globalConfig.Sudo),
		Timeout:        time.Duration(timeout) * time.Second,
		Concurrency:    GetIntSetting(producer.Settings, "concurrency", 1),
		Policy:         policy,
	}, nil
}

func StartProducers(ctx context.Context, producer ProducerConfig, globalConfig GlobalConfig, registry *Registry, wg *sync.WaitGroup) {
	defer wg.Done()

	switch producer.Type {
	case diskHealthCheckType:
		settings, err := DiskHealthConfigFromSettings(producer, globalConfig)
		if err != nil {
			log.Error().Err(err).Str("producer", producer.Name).Msg("invalid producer settings")
			return
		}
		log.Info().Str("producer", producer.Name).Strs("disks", settings.Disks).Msg("--- disk health check ---")
		diskhealthmetrics.StartMonitoring(ctx, settings, func(m *diskhealthmetrics.Monitor) {
			registry.add(producer.Name, m)
		})
	default:
		log.Warn().Msgf("unknown producer type: %s", producer.Type)
	}
}
