// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// OutputMode selects the attribute parser for a device.
type OutputMode int

const (
	ModeUnknown OutputMode = iota
	ModeATA
	ModeSCSI
	ModeNVMe
)

func (m OutputMode) String() string {
	switch m {
	case ModeATA:
		return "ata"
	case ModeSCSI:
		return "scsi"
	case ModeNVMe:
		return "nvme"
	default:
		return "unknown"
	}
}

func (m OutputMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

const (
	healthLineSCSI = "SMART Health Status: "
	healthOKSCSI   = "OK"
	healthLineATA  = "SMART overall-health self-assessment test result: "
	healthOKATA    = "PASSED"

	modelPrefixATA   = "Device Model: "
	modelPrefixNVMe  = "Model Number: "
	vendorPrefixSCSI = "Vendor: "
	productPrefix    = "Product: "
	serialPrefixATA  = "Serial Number: "
	serialPrefixSCSI = "Serial number: "

	HiddenSerial = "<HIDDEN>"
)

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// identity collects the first value seen for each identity prefix.
type identity struct {
	model, nvmeModel, vendor, product, serial string
}

func (id identity) resolveModel() string {
	switch {
	case id.model != "":
		return id.model
	case id.nvmeModel != "":
		return id.nvmeModel
	case id.product != "":
		return multiSpaceRe.ReplaceAllString(strings.TrimSpace(id.vendor+" "+id.product), " ")
	}
	return ""
}

// valueAfter returns the trimmed text after prefix when line starts with it.
func valueAfter(line, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), prefix)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// classifyHealth parses the "-Hi" output: health self-assessment, identity
// fields and the output mode used by the attribute parsers.
func classifyHealth(lines []string, iface Interface, policy *Policy, st *deviceState) OutputMode {
	mode := ModeUnknown
	found := false
	var id identity

	for _, line := range lines {
		if _, status, ok := strings.Cut(line, healthLineSCSI); ok {
			found = true
			mode = ModeSCSI
			checkHealthStatus(strings.TrimSpace(status), healthOKSCSI, policy, st)
		} else if _, status, ok := strings.Cut(line, healthLineATA); ok {
			found = true
			if iface.IsNVMe() {
				mode = ModeNVMe
			} else if mode == ModeUnknown {
				mode = ModeATA
			}
			checkHealthStatus(strings.TrimSpace(status), healthOKATA, policy, st)
		}

		if v, ok := valueAfter(line, modelPrefixATA); ok {
			setOnce(&id.model, multiSpaceRe.ReplaceAllString(v, " "))
		}
		if v, ok := valueAfter(line, modelPrefixNVMe); ok {
			// auto interfaces only reveal NVMe through the identity section
			mode = ModeNVMe
			setOnce(&id.nvmeModel, multiSpaceRe.ReplaceAllString(v, " "))
		}
		if v, ok := valueAfter(line, vendorPrefixSCSI); ok {
			setOnce(&id.vendor, v)
		}
		if v, ok := valueAfter(line, productPrefix); ok {
			setOnce(&id.product, v)
		}
		if v, ok := valueAfter(line, serialPrefixATA); ok {
			setOnce(&id.serial, v)
		}
		if v, ok := valueAfter(line, serialPrefixSCSI); ok {
			setOnce(&id.serial, v)
		}
	}

	st.report.Model = id.resolveModel()
	st.report.Serial = id.serial
	if policy.HideSerial {
		st.report.Serial = HiddenSerial
	}

	if !found {
		st.fail(Unknown, "No health status line found")
	}

	log.Debug().
		Str("device", st.report.Target.Device).
		Str("model", st.report.Model).
		Str("mode", mode.String()).
		Bool("health_line_found", found).
		Msg("health_classified")
	return mode
}

func checkHealthStatus(status, okToken string, policy *Policy, st *deviceState) {
	if status == okToken {
		return
	}
	log.Debug().Str("status", status).Str("expected", okToken).Msg("health status not ok")
	if !policy.SkipSelfAssessment {
		st.fail(Critical, "Health status: "+status)
	}
}

// silentFlags decodes the smartctl exit status bit mask.
var silentFlags = []struct {
	bit      int
	severity Severity
	message  string
}{
	{0x01, Unknown, "Commandline parse failure"},
	{0x02, Unknown, "Device could not be opened"},
	{0x04, Warning, "Checksum failure"},
	{0x08, Critical, "Disk is failing"},
	{0x10, Warning, "Disk is in prefail"},
	{0x20, Warning, "Disk may be close to failure"},
	{0x40, Warning, "Error log contains errors"},
	{0x80, Warning, "Self-test log contains errors"},
}

// applySilentExitCode registers one finding per bit set in the exit status.
func applySilentExitCode(code int, st *deviceState) {
	if code == 0 {
		return
	}
	if code < 0 || code > 0xff {
		st.fail(Critical, "Unknown return code")
		return
	}

	for _, f := range silentFlags {
		if code&f.bit == 0 {
			continue
		}
		if f.severity == Warning {
			st.warn(f.message)
		} else {
			st.fail(f.severity, f.message)
		}
	}
}

func applySelfTestExitCode(code int, st *deviceState) {
	if code != 0 {
		log.Debug().Int("exit_code", code).Msg("self-test log contains errors")
		st.warn("Self-test log contains errors")
	}
}
