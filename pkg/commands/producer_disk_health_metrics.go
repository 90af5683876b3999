// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/checksmart/pkg/producers/diskhealthmetrics"
	"github.com/cobaltcore-dev/checksmart/pkg/smartcheck"
)

var (
	dhcNatsURL        string
	dhcNatsSubject    string
	dhcPromEnabled    bool
	dhcPromPort       int
	dhcDisksFlag      string
	dhcInterface      string
	dhcNodeName       string
	dhcInstanceID     string
	dhcInterval       int
	dhcPolicyExclude  string
	dhcPolicyWarn     string
	dhcPolicyBad      int64
	dhcPolicyOldAge   bool
	dhcPolicySelfTest bool
	dhcSmartctl       string
	dhcSudo           bool
	dhcTimeout        time.Duration
	dhcConcurrency    int
)

var diskHealthCheckCmd = &cobra.Command{
	Use:   "disk-health-check",
	Short: "Periodic SMART health check publishing to NATS and Prometheus",
	Run: func(cmd *cobra.Command, args []string) {
		config := diskhealthmetrics.DiskHealthMetricsConfig{
			NatsURL:        dhcNatsURL,
			NatsSubject:    dhcNatsSubject,
			Prometheus:     dhcPromEnabled,
			PrometheusPort: dhcPromPort,
			Disks:          strings.Split(dhcDisksFlag, ","),
			Interface:      dhcInterface,
			NodeName:       dhcNodeName,
			InstanceID:     dhcInstanceID,
			Interval:       dhcInterval,
			SmartctlPath:   dhcSmartctl,
			Sudo:           dhcSudo,
			Timeout:        dhcTimeout,
			Concurrency:    dhcConcurrency,
			Policy: smartcheck.PolicyConfig{
				Exclude:  smartcheck.SplitList(dhcPolicyExclude),
				Warn:     smartcheck.SplitList(dhcPolicyWarn),
				Bad:      dhcPolicyBad,
				OldAge:   dhcPolicyOldAge,
				SelfTest: dhcPolicySelfTest,
			},
		}

		config = mergeDiskHealthCheckConfigWithEnv(config)

		config.UseNats = config.NatsURL != ""

		event := log.Info()
		event.Bool("use_nats", config.UseNats)
		if config.UseNats {
			event.Str("nats_url", config.NatsURL)
			event.Str("nats_subject", config.NatsSubject)
		}

		event.Bool("prometheus_enabled", config.Prometheus)
		if config.Prometheus {
			event.Int("prometheus_port", config.PrometheusPort)
		}

		event.Strs("disks", config.Disks).
			Str("interface", config.Interface).
			Str("node_name", config.NodeName).
			Str("instance_id", config.InstanceID).
			Int("interval_seconds", config.Interval)

		event.Msg("configuration_loaded")

		if err := validateDiskHealthCheckConfig(config); err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		diskhealthmetrics.StartMonitoring(ctx, config, nil)
	},
}

func mergeDiskHealthCheckConfigWithEnv(cfg diskhealthmetrics.DiskHealthMetricsConfig) diskhealthmetrics.DiskHealthMetricsConfig {
	cfg.NatsURL = getEnv("NATS_URL", cfg.NatsURL)
	cfg.NatsSubject = getEnv("NATS_SUBJECT", cfg.NatsSubject)
	cfg.Prometheus = getEnvBool("PROMETHEUS", cfg.Prometheus)
	cfg.PrometheusPort = getEnvInt("PROMETHEUS_PORT", cfg.PrometheusPort)
	disksEnv := getEnv("DISKS", "")
	if disksEnv != "" {
		cfg.Disks = strings.Split(disksEnv, ",")
	}
	cfg.Interface = getEnv("SMART_INTERFACE", cfg.Interface)
	cfg.NodeName = getEnv("NODE_NAME", cfg.NodeName)
	cfg.InstanceID = getEnv("INSTANCE_ID", cfg.InstanceID)
	cfg.Interval = getEnvInt("INTERVAL", cfg.Interval)
	cfg.Policy.Bad = getEnvInt64("SMART_BAD", cfg.Policy.Bad)
	cfg.Policy.OldAge = getEnvBool("SMART_OLDAGE", cfg.Policy.OldAge)
	if exclude := getEnv("SMART_EXCLUDE", ""); exclude != "" {
		cfg.Policy.Exclude = smartcheck.SplitList(exclude)
	}
	if warn := getEnv("SMART_WARN", ""); warn != "" {
		cfg.Policy.Warn = smartcheck.SplitList(warn)
	}

	return cfg
}

func init() {
	f := diskHealthCheckCmd.Flags()
	f.StringVar(&dhcNatsURL, "nats-url", "", "NATS server URL")
	f.StringVar(&dhcNatsSubject, "nats-subject", "osd.disk.health", "NATS subject prefix; the severity is appended")
	f.BoolVar(&dhcPromEnabled, "prometheus", false, "Enable Prometheus metrics")
	f.IntVar(&dhcPromPort, "prometheus-port", 8080, "Prometheus metrics port")
	f.StringVar(&dhcDisksFlag, "disks", "*", "Comma separated devices or glob patterns; * scans with smartctl")
	f.StringVar(&dhcInterface, "interface", "auto", "Device interface for listed disks")
	f.StringVar(&dhcNodeName, "node-name", "", "Node name reported with each event (defaults to the host name)")
	f.StringVar(&dhcInstanceID, "instance-id", "", "Instance ID reported with each event")
	f.IntVar(&dhcInterval, "interval", 300, "Interval in seconds between checks")
	f.StringVar(&dhcPolicyExclude, "exclude", "", "Comma separated attributes to exclude from checks")
	f.StringVar(&dhcPolicyWarn, "warn", "", "Comma separated Name=N warning thresholds")
	f.Int64Var(&dhcPolicyBad, "bad", 0, "Threshold for pending sectors and grown defects")
	f.BoolVar(&dhcPolicyOldAge, "oldage", false, "Ignore old age failures")
	f.BoolVar(&dhcPolicySelfTest, "selftest", false, "Also check the self-test log")
	f.StringVar(&dhcSmartctl, "smartctl", "", "Path to smartctl")
	f.BoolVar(&dhcSudo, "sudo", false, "Run smartctl through sudo")
	f.DurationVar(&dhcTimeout, "timeout", smartcheck.DefaultProbeTimeout, "Timeout of a single smartctl invocation")
	f.IntVar(&dhcConcurrency, "concurrency", 1, "Number of drives probed in parallel")
}

func validateDiskHealthCheckConfig(config diskhealthmetrics.DiskHealthMetricsConfig) error {
	var errs []error

	if len(config.Disks) == 0 || (len(config.Disks) == 1 && config.Disks[0] == "") {
		errs = append(errs, errors.New("--disks or DISKS must be set"))
	}
	if config.Interval <= 0 {
		errs = append(errs, errors.New("--interval must be positive"))
	}
	if config.Interface != "" {
		if err := smartcheck.Interface(config.Interface).Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
