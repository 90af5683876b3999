// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	deviceStatusGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "smart_device_status",
			Help: "SMART check status of the disk (0=OK, 1=WARNING, 2=CRITICAL, 3=UNKNOWN)",
		},
		[]string{"disk", "interface", "model", "vendor", "node", "instance"},
	)

	smartAttributesGaugeVec = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "smart_attributes",
			Help: "Raw SMART attribute values of the disk",
		},
		[]string{"disk", "interface", "attribute", "node", "instance"},
	)

	deviceMessagesGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "smart_device_messages",
			Help: "Number of messages the last check produced for the disk",
		},
		[]string{"disk", "interface", "kind", "node", "instance"},
	)

	checkDurationGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "smart_check_duration_seconds",
			Help: "Duration of the last check cycle over all disks",
		},
		[]string{"node", "instance"},
	)
)

func init() {
	prometheus.MustRegister(deviceStatusGauge)
	prometheus.MustRegister(smartAttributesGaugeVec)
	prometheus.MustRegister(deviceMessagesGauge)
	prometheus.MustRegister(checkDurationGauge)
}

// PublishToPrometheus publishes the device reports to Prometheus
func PublishToPrometheus(health []DeviceHealth) {
	for _, h := range health {
		disk := h.Target.Device
		iface := string(h.Target.Interface)

		deviceStatusGauge.With(prometheus.Labels{
			"disk":      disk,
			"interface": iface,
			"model":     h.Model,
			"vendor":    h.Vendor,
			"node":      h.NodeName,
			"instance":  h.InstanceID,
		}).Set(float64(h.Severity.ExitCode()))

		for kind, msgs := range map[string][]string{"error": h.Errors, "warning": h.Warnings, "notice": h.Notices} {
			deviceMessagesGauge.With(prometheus.Labels{
				"disk":      disk,
				"interface": iface,
				"kind":      kind,
				"node":      h.NodeName,
				"instance":  h.InstanceID,
			}).Set(float64(len(msgs)))
		}

		for _, f := range h.Findings {
			smartAttributesGaugeVec.With(prometheus.Labels{
				"disk":      disk,
				"interface": iface,
				"attribute": f.Name,
				"node":      h.NodeName,
				"instance":  h.InstanceID,
			}).Set(float64(f.Raw))
		}
	}
}

func StartPrometheusServer(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Info().Msgf("starting prometheus metrics server on :%d", port)
		err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
		if err != nil {
			log.Fatal().Err(err).Msg("error starting prometheus metrics server")
		}
	}()
}
