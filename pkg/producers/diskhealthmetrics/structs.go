// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"time"

	"github.com/cobaltcore-dev/checksmart/pkg/smartcheck"
)

// DeviceHealth is one device report of a collection cycle, tagged with the
// node it was collected on.
type DeviceHealth struct {
	NodeName   string    `json:"node_name"`
	InstanceID string    `json:"instance_id"`
	Vendor     string    `json:"vendor"`
	CheckedAt  time.Time `json:"checked_at"`
	smartcheck.DeviceReport
}

// NatsEvent represents an event to be published to NATS
type NatsEvent struct {
	EventID    string            `json:"event_id"`
	Timestamp  time.Time         `json:"timestamp"`
	NodeName   string            `json:"node_name"`
	InstanceID string            `json:"instance_id"`
	Device     string            `json:"device"`
	Interface  string            `json:"interface"`
	Model      string            `json:"model"`
	Serial     string            `json:"serial"`
	Vendor     string            `json:"vendor,omitempty"`
	EventType  string            `json:"event_type"` // 'health' or 'health_alert'
	Severity   string            `json:"severity"`   // OK, WARNING, CRITICAL, UNKNOWN
	Message    string            `json:"message"`
	Details    map[string]string `json:"details"` // parsed values by attribute name
}
