// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/cobaltcore-dev/checksmart/pkg/smartcheck"
)

// convertToNatsEvent converts a DeviceHealth to a NatsEvent
func convertToNatsEvent(h DeviceHealth) NatsEvent {
	details := make(map[string]string, len(h.Findings)+1)
	for _, f := range h.Findings {
		details[f.Name] = f.Display
	}
	details["mode"] = h.Mode.String()

	eventType := "health"
	if h.Severity != smartcheck.OK {
		eventType = "health_alert"
	}

	return NatsEvent{
		EventID:    uuid.NewString(),
		Timestamp:  h.CheckedAt,
		NodeName:   h.NodeName,
		InstanceID: h.InstanceID,
		Device:     h.Target.Device,
		Interface:  string(h.Target.Interface),
		Model:      h.Model,
		Serial:     h.Serial,
		Vendor:     h.Vendor,
		EventType:  eventType,
		Severity:   h.Severity.String(),
		Message:    generateMessage(h),
		Details:    details,
	}
}

// generateMessage generates a summary message from the report messages.
func generateMessage(h DeviceHealth) string {
	if msgs := h.Messages(); len(msgs) > 0 {
		return strings.Join(msgs, ", ")
	}
	return "no SMART errors detected"
}

// subjectFor appends the lower-cased severity to the base subject, so
// consumers can subscribe to alerts only.
func subjectFor(base string, sev smartcheck.Severity) string {
	return fmt.Sprintf("%s.%s", base, strings.ToLower(sev.String()))
}

func PublishToNATS(health []DeviceHealth, nc *nats.Conn, subject string) error {
	for _, h := range health {
		event := convertToNatsEvent(h)

		eventJSON, err := json.Marshal(event)
		if err != nil {
			return err
		}

		if err := nc.Publish(subjectFor(subject, h.Severity), eventJSON); err != nil {
			return err
		}
	}

	return nil
}
