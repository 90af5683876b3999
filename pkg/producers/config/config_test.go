// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/checksmart/pkg/producers/diskhealthmetrics"
	"github.com/cobaltcore-dev/checksmart/pkg/smartcheck"
)

const sampleConfig = `
global:
  nats_url: nats://localhost:4222
  node_name: storage-01
  timeout_seconds: 20
producers:
  - name: osd-disks
    type: disk_health_check
    settings:
      disks: [/dev/sda, "/dev/nvme*"]
      interface: auto
      interval: 60
      prometheus: true
      prometheus_port: 9101
      policy:
        exclude: [194, Command_Timeout]
        warn: "Reallocated_Sector_Ct=10,Current_Pending_Sector=2"
        bad: 15
        oldage: true
        quiet: true
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "checksmart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, t.TempDir(), sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", cfg.Global.NatsURL)
	assert.Equal(t, "storage-01", cfg.Global.NodeName)
	require.Len(t, cfg.Producers, 1)
	assert.Equal(t, "osd-disks", cfg.Producers[0].Name)
	assert.Equal(t, diskHealthCheckType, cfg.Producers[0].Type)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDiskHealthConfigFromSettings(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, t.TempDir(), sampleConfig))
	require.NoError(t, err)

	dh, err := DiskHealthConfigFromSettings(cfg.Producers[0], cfg.Global)
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/sda", "/dev/nvme*"}, dh.Disks)
	assert.Equal(t, "auto", dh.Interface)
	assert.Equal(t, 60, dh.Interval)
	assert.True(t, dh.UseNats)
	assert.Equal(t, "osd.disk.health", dh.NatsSubject)
	assert.True(t, dh.Prometheus)
	assert.Equal(t, 9101, dh.PrometheusPort)
	assert.Equal(t, "storage-01", dh.NodeName)
	assert.Equal(t, 20*time.Second, dh.Timeout)

	assert.Equal(t, smartcheck.PolicyConfig{
		Exclude: []string{"194", "Command_Timeout"},
		Warn:    []string{"Reallocated_Sector_Ct=10", "Current_Pending_Sector=2"},
		Bad:     15,
		OldAge:  true,
		Quiet:   true,
	}, dh.Policy)

	_, err = smartcheck.NewPolicy(dh.Policy)
	assert.NoError(t, err)
}

func TestPolicyFromSettingsWithoutPolicy(t *testing.T) {
	policy, err := PolicyFromSettings(map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, smartcheck.PolicyConfig{}, policy)
}

func TestPolicyFromSettingsDecodesTaggedKeys(t *testing.T) {
	policy, err := PolicyFromSettings(map[string]interface{}{
		"policy": map[string]interface{}{
			"exclude_all":          "Temperature_Celsius, 9",
			"raw":                  []interface{}{5, "Reported_Uncorrect"},
			"bad":                  "4",
			"ssd_lifetime":         true,
			"skip_load_cycles":     "true",
			"skip_self_assessment": true,
			"hide_serial":          true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, smartcheck.PolicyConfig{
		ExcludeAll:         []string{"Temperature_Celsius", "9"},
		Raw:                []string{"5", "Reported_Uncorrect"},
		Bad:                4,
		SSDLifetime:        true,
		SkipLoadCycles:     true,
		SkipSelfAssessment: true,
		HideSerial:         true,
	}, policy)
}

func TestPolicyFromSettingsRejectsUndecodable(t *testing.T) {
	_, err := PolicyFromSettings(map[string]interface{}{
		"policy": map[string]interface{}{"bad": "lots"},
	})
	assert.Error(t, err)
}

func TestRegistryApplyPolicies(t *testing.T) {
	m, err := diskhealthmetrics.NewMonitor(diskhealthmetrics.DiskHealthMetricsConfig{NodeName: "storage-01"}, nil)
	require.NoError(t, err)
	assert.False(t, m.Policy().OldAge)

	registry := NewRegistry()
	registry.add("osd-disks", m)

	cfg, err := LoadConfig(writeConfig(t, t.TempDir(), sampleConfig))
	require.NoError(t, err)
	registry.ApplyPolicies(cfg)

	p := m.Policy()
	assert.True(t, p.OldAge)
	assert.True(t, p.Quiet)
	require.NotNil(t, p.BadThreshold)
	assert.EqualValues(t, 15, *p.BadThreshold)

	// an invalid policy keeps the previous one
	cfg.Producers[0].Settings["policy"] = map[string]interface{}{"warn": "Reallocated_Sector_Ct=many"}
	registry.ApplyPolicies(cfg)
	assert.Same(t, p, m.Policy())
}

func TestWatchConfigReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	var lastNode atomic.Value
	require.NoError(t, WatchConfig(ctx, path, func(cfg *Config) {
		lastNode.Store(cfg.Global.NodeName)
		reloads.Add(1)
	}))

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("a: b\n"), 0o644))

	updated := []byte("global:\n  node_name: storage-02\nproducers: []\n")
	require.NoError(t, os.WriteFile(path, updated, 0o644))

	require.Eventually(t, func() bool { return reloads.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "storage-02", lastNode.Load())
}
