// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	nvmeCriticalWarning = "Critical_Warning"
	// Reliability degraded, suppressed under the old age policy.
	nvmeReliabilityDegraded = 0x04
)

var (
	nvmeFieldRe = regexp.MustCompile(`^(\w.+):\s+(0[xX][0-9a-fA-F]+|\d[\d,\s]*)`)

	nvmeFieldCleaner = strings.NewReplacer(" ", "", ",", "", "\t", "")
	nvmeLabelCleaner = strings.NewReplacer(" ", "_", ".", "")
)

// nvmeCriticalWarnings describes every Critical Warning value from 0x00 to 0x10.
var nvmeCriticalWarnings = map[int64]string{
	0x00: "No critical warning",
	0x01: "Available spare below threshold",
	0x02: "Temperature is above or below thresholds",
	0x03: "Available spare below threshold and temperature is above or below thresholds",
	0x04: "NVM subsystem reliability degraded",
	0x05: "Available spare below threshold and NVM subsystem reliability degraded",
	0x06: "Temperature is above or below thresholds and NVM subsystem reliability degraded",
	0x07: "Available spare below threshold and Temperature is above or below thresholds and NVM subsystem reliability degraded",
	0x08: "Media in read only mode",
	0x09: "Media in read only mode and Available spare below threshold",
	0x0A: "Media in read only mode and Temperature is above or below thresholds",
	0x0B: "Media in read only mode and Temperature is above or below thresholds and Available spare below threshold",
	0x0C: "Media in read only mode and NVM subsystem reliability degraded",
	0x0D: "Media in read only mode and NVM subsystem reliability degraded and Available spare below threshold",
	0x0E: "Media in read only mode and NVM subsystem reliability degraded and Temperature is above or below thresholds",
	0x0F: "Media in read only mode and NVM subsystem reliability degraded and Temperature is above or below thresholds",
	0x10: "Volatile memory backup device failed",
}

// parseNVMeValue accepts decimal, comma grouped decimal and 0xNN hex values.
func parseNVMeValue(s string) (int64, bool) {
	if hex, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		v, err := strconv.ParseInt(hex, 16, 64)
		return v, err == nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

// parseNVMe walks the "-a" output of an NVMe device.
func parseNVMe(lines []string, policy *Policy, st *deviceState) {
	for _, line := range lines {
		m := nvmeFieldRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := nvmeLabelCleaner.Replace(m[1])
		display := nvmeFieldCleaner.Replace(m[2])
		value, ok := parseNVMeValue(display)
		if !ok {
			log.Debug().Str("line", line).Msg("skipping field with unparsable value")
			continue
		}

		if policy.SkipsPerfData(-1, name) {
			continue
		}

		st.addFinding(AttributeFinding{
			Name:    name,
			Raw:     value,
			Display: display,
			Perf:    st.single && name != nvmeCriticalWarning,
			Source:  SourceNVMeField,
		})

		if policy.SkipsCheck(-1, name) {
			log.Debug().Str("name", name).Msg("attribute set to be ignored")
			continue
		}

		if name == nvmeCriticalWarning {
			checkCriticalWarning(value, policy, st)
		}

		if policy.RawCheckNVMe.Has(name) {
			checkRawValue(name, value, policy, st)
		}
	}
}

func checkCriticalWarning(value int64, policy *Policy, st *deviceState) {
	desc, known := nvmeCriticalWarnings[value]
	if !known || value == 0 {
		return
	}
	if value == nvmeReliabilityDegraded && policy.OldAge {
		log.Debug().Msg("critical warning 0x04 ignored due to old age policy")
		return
	}
	st.warn(desc)
}
