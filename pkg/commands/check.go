// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/checksmart/pkg/smartcheck"
)

type checkOptions struct {
	Device     string
	Pattern    string
	Interface  string
	Exclude    string
	ExcludeAll string
	Raw        string
	Warn       string
	Bad        int64

	SelfTest           bool
	SSDLifetime        bool
	OldAge             bool
	Quiet              bool
	SkipSelfAssessment bool
	SkipTempCheck      bool
	SkipLoadCycles     bool
	SkipErrorLog       bool
	HideSerial         bool

	SmartctlPath string
	Sudo         bool
	Timeout      time.Duration
	Concurrency  int
}

var checkOpts checkOptions

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check SMART health of one or more drives and print a monitoring plugin status line",
	Example: `  checksmart check -d /dev/sda -i ata
  checksmart check -g '/dev/sd[a-z]' -i scsi -q
  checksmart check -d /dev/sda -i 'megaraid,[0-7]' -w Reallocated_Sector_Ct=10`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		opts := mergeCheckConfigWithEnv(checkOpts)

		log.Debug().
			Str("device", opts.Device).
			Str("pattern", opts.Pattern).
			Str("interface", opts.Interface).
			Str("exclude", opts.Exclude).
			Str("exclude_all", opts.ExcludeAll).
			Str("raw", opts.Raw).
			Str("warn", opts.Warn).
			Int64("bad", opts.Bad).
			Msg("configuration_loaded")

		res := executeCheck(cmd.Context(), opts, newExecRunner, smartcheck.NewResolver())
		os.Exit(printResult(cmd.OutOrStdout(), res))
	},
}

func init() {
	f := checkCmd.Flags()
	f.StringVarP(&checkOpts.Device, "device", "d", "", "Device to check, e.g. /dev/sda")
	f.StringVarP(&checkOpts.Pattern, "global", "g", "", "Glob pattern of devices to check, e.g. '/dev/sd[a-z]'")
	f.StringVarP(&checkOpts.Interface, "interface", "i", "", "Device interface: ata, scsi, nvme, sat, auto, 3ware,N, areca,N, hpt,L/M/N, aacraid,H,L,ID, cciss,N, megaraid,N, usbjmicron,N; N may be a range [A-B]")
	f.Int64VarP(&checkOpts.Bad, "bad", "b", 0, "Threshold for Current_Pending_Sector (ATA) and grown defect list (SCSI)")
	f.StringVarP(&checkOpts.Exclude, "exclude", "e", "", "Comma separated attributes (name or id) to exclude from checks")
	f.StringVarP(&checkOpts.ExcludeAll, "exclude-all", "E", "", "Comma separated attributes to exclude from checks and performance data")
	f.StringVarP(&checkOpts.Raw, "raw", "r", "", "Comma separated attributes whose raw value must be zero, replacing the default list")
	f.StringVarP(&checkOpts.Warn, "warn", "w", "", "Comma separated Name=N thresholds below which raw values are only noted")
	f.BoolVarP(&checkOpts.SelfTest, "selftest", "s", false, "Also check the self-test log")
	f.BoolVarP(&checkOpts.SSDLifetime, "ssd-lifetime", "l", false, "Check Percent_Lifetime_Remain (default threshold 90)")
	f.BoolVarP(&checkOpts.OldAge, "oldage", "O", false, "Ignore old age failures on attribute 202 and NVMe reliability degraded warnings")
	f.BoolVarP(&checkOpts.Quiet, "quiet", "q", false, "Only list drives that are not OK in multi-drive output")
	f.BoolVar(&checkOpts.SkipSelfAssessment, "skip-self-assessment", false, "Ignore the overall health self-assessment")
	f.BoolVar(&checkOpts.SkipTempCheck, "skip-temp-check", false, "Ignore the SCSI trip temperature check")
	f.BoolVar(&checkOpts.SkipLoadCycles, "skip-load-cycles", false, "Ignore the load cycle count check")
	f.BoolVar(&checkOpts.SkipErrorLog, "skip-error-log", false, "Ignore the ATA error log count")
	f.BoolVar(&checkOpts.HideSerial, "hide-sn", false, "Do not show drive serial numbers")
	f.StringVar(&checkOpts.SmartctlPath, "smartctl", "", "Path to smartctl (searched in the default system paths if empty)")
	f.BoolVar(&checkOpts.Sudo, "sudo", false, "Run smartctl through sudo")
	f.DurationVar(&checkOpts.Timeout, "timeout", smartcheck.DefaultProbeTimeout, "Timeout of a single smartctl invocation")
	f.IntVar(&checkOpts.Concurrency, "concurrency", 1, "Number of drives probed in parallel")
}

func mergeCheckConfigWithEnv(opts checkOptions) checkOptions {
	opts.Device = getEnv("SMART_DEVICE", opts.Device)
	opts.Pattern = getEnv("SMART_GLOB", opts.Pattern)
	opts.Interface = getEnv("SMART_INTERFACE", opts.Interface)
	opts.Exclude = getEnv("SMART_EXCLUDE", opts.Exclude)
	opts.ExcludeAll = getEnv("SMART_EXCLUDE_ALL", opts.ExcludeAll)
	opts.Raw = getEnv("SMART_RAW", opts.Raw)
	opts.Warn = getEnv("SMART_WARN", opts.Warn)
	opts.Bad = getEnvInt64("SMART_BAD", opts.Bad)
	opts.SelfTest = getEnvBool("SMART_SELFTEST", opts.SelfTest)
	opts.SSDLifetime = getEnvBool("SMART_SSD_LIFETIME", opts.SSDLifetime)
	opts.OldAge = getEnvBool("SMART_OLDAGE", opts.OldAge)
	opts.Quiet = getEnvBool("SMART_QUIET", opts.Quiet)
	opts.SkipSelfAssessment = getEnvBool("SMART_SKIP_SELF_ASSESSMENT", opts.SkipSelfAssessment)
	opts.SkipTempCheck = getEnvBool("SMART_SKIP_TEMP_CHECK", opts.SkipTempCheck)
	opts.SkipLoadCycles = getEnvBool("SMART_SKIP_LOAD_CYCLES", opts.SkipLoadCycles)
	opts.SkipErrorLog = getEnvBool("SMART_SKIP_ERROR_LOG", opts.SkipErrorLog)
	opts.HideSerial = getEnvBool("SMART_HIDE_SN", opts.HideSerial)
	opts.SmartctlPath = getEnv("SMARTCTL_PATH", opts.SmartctlPath)
	opts.Sudo = getEnvBool("SMART_SUDO", opts.Sudo)
	opts.Timeout = getEnvDuration("SMART_TIMEOUT", opts.Timeout)
	opts.Concurrency = getEnvInt("SMART_CONCURRENCY", opts.Concurrency)
	return opts
}

func (o checkOptions) policyConfig() smartcheck.PolicyConfig {
	return smartcheck.PolicyConfig{
		Exclude:            smartcheck.SplitList(o.Exclude),
		ExcludeAll:         smartcheck.SplitList(o.ExcludeAll),
		Raw:                smartcheck.SplitList(o.Raw),
		Warn:               smartcheck.SplitList(o.Warn),
		Bad:                o.Bad,
		SelfTest:           o.SelfTest,
		SSDLifetime:        o.SSDLifetime,
		OldAge:             o.OldAge,
		Quiet:              o.Quiet,
		SkipSelfAssessment: o.SkipSelfAssessment,
		SkipTempCheck:      o.SkipTempCheck,
		SkipLoadCycles:     o.SkipLoadCycles,
		SkipErrorLog:       o.SkipErrorLog,
		HideSerial:         o.HideSerial,
	}
}

func newExecRunner(o checkOptions) (smartcheck.Runner, error) {
	return smartcheck.NewExecRunner(o.SmartctlPath, o.Sudo, o.Timeout)
}

// executeCheck never fails: every fatal error becomes an UNKNOWN result.
func executeCheck(ctx context.Context, opts checkOptions, newRunner func(checkOptions) (smartcheck.Runner, error), resolver *smartcheck.Resolver) *smartcheck.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Device == "" && opts.Pattern == "" {
		return smartcheck.FatalResult(smartcheck.ErrNoDeviceSpecified)
	}
	if opts.Interface == "" {
		return smartcheck.FatalResult(smartcheck.ErrNoInterfaceSpecified)
	}

	policy, err := smartcheck.NewPolicy(opts.policyConfig())
	if err != nil {
		return smartcheck.FatalResult(err)
	}

	runner, err := newRunner(opts)
	if err != nil {
		return smartcheck.FatalResult(err)
	}

	checker := &smartcheck.Checker{
		Runner:      runner,
		Resolver:    resolver,
		Policy:      policy,
		Concurrency: opts.Concurrency,
	}
	res, err := checker.Run(ctx, smartcheck.Request{
		Device:    opts.Device,
		Pattern:   opts.Pattern,
		Interface: smartcheck.Interface(opts.Interface),
	})
	if err != nil {
		return smartcheck.FatalResult(err)
	}
	return res
}

// printResult writes the status line and returns the exit code.
func printResult(w io.Writer, res *smartcheck.Result) int {
	fmt.Fprintln(w, res.String())
	return res.ExitCode()
}
