// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"time"

	"github.com/cobaltcore-dev/checksmart/pkg/smartcheck"
)

type DiskHealthMetricsConfig struct {
	NatsURL        string
	NatsSubject    string
	UseNats        bool
	Prometheus     bool
	PrometheusPort int
	// Disks holds device paths or glob patterns. A single "*" asks smartctl
	// to scan for devices.
	Disks      []string
	Interface  string
	Interval   int // in seconds
	NodeName   string
	InstanceID string

	SmartctlPath string
	Sudo         bool
	Timeout      time.Duration
	Concurrency  int

	Policy smartcheck.PolicyConfig
}
