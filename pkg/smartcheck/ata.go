// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
)

const (
	ataErrorsAttribute = "ata_errors"

	loadCycleAttributeID = 193
	loadCycleCritical    = 600000
	loadCycleWarning     = 550000

	// Attribute 202 is known to report bogus failures on aged drives.
	oldAgeAttributeID = 202
)

var (
	ataErrorCountRe = regexp.MustCompile(`^ATA Error Count:\s+(\d+)\b`)
	// ID# ATTRIBUTE_NAME FLAG VALUE WORST THRESH TYPE UPDATED WHEN_FAILED RAW_VALUE
	ataAttributeRe = regexp.MustCompile(`^\s*(\d+)\s(\S+)\s+(?:\S+\s+){6}(\S+)\s+(\d+)`)

	ataCosmeticAttributes = map[string]struct{}{
		"Unknown_Attribute": {},
		"Power_On_Minutes":  {},
	}
)

// parseATA walks the "-a" output of an ATA device.
func parseATA(lines []string, policy *Policy, st *deviceState) {
	for _, line := range lines {
		if !policy.SkipErrorLog {
			if m := ataErrorCountRe.FindStringSubmatch(line); m != nil {
				parseATAErrorCount(m[1], policy, st)
				continue
			}
		}

		m := ataAttributeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		raw, err := strconv.ParseInt(m[4], 10, 64)
		if err != nil {
			log.Debug().Str("line", line).Msg("skipping attribute with unparsable raw value")
			continue
		}
		checkATAAttribute(number, m[2], m[3], raw, policy, st)
	}
}

func parseATAErrorCount(value string, policy *Policy, st *deviceState) {
	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return
	}
	if policy.SkipsPerfData(-1, ataErrorsAttribute) {
		return
	}

	if !policy.SkipsCheck(-1, ataErrorsAttribute) {
		checkRawValue(ataErrorsAttribute, count, policy, st)
	}

	st.addFinding(AttributeFinding{
		Name:    ataErrorsAttribute,
		Raw:     count,
		Display: value,
		Perf:    true,
		Source:  SourceATAErrorLog,
	})
}

func checkATAAttribute(number int, name, whenFailed string, raw int64, policy *Policy, st *deviceState) {
	log.Debug().Int("id", number).Str("name", name).Str("when_failed", whenFailed).Int64("raw", raw).Msg("parsing_attribute")

	if policy.SkipsPerfData(number, name) {
		return
	}
	skipCheck := policy.SkipsCheck(number, name)

	if whenFailed != "-" {
		switch {
		case skipCheck || policy.Exclude.Matches(-1, whenFailed) || policy.ExcludeAll.Matches(-1, whenFailed):
			log.Debug().Str("name", name).Str("when_failed", whenFailed).Msg("failed attribute set to be ignored")
		case policy.OldAge && number == oldAgeAttributeID:
			log.Debug().Str("name", name).Msg("failed old age attribute ignored")
		default:
			st.warn(fmt.Sprintf("Attribute %s failed at %s", name, whenFailed))
		}
	}

	if _, cosmetic := ataCosmeticAttributes[name]; cosmetic {
		return
	}

	st.addFinding(AttributeFinding{
		Name:    name,
		Raw:     raw,
		Display: strconv.FormatInt(raw, 10),
		Perf:    st.single,
		Source:  SourceATAAttribute,
	})

	if skipCheck {
		return
	}

	if !policy.SkipLoadCycles && number == loadCycleAttributeID {
		checkLoadCycles(name, raw, st)
	}

	if policy.RawCheckATA.Has(name) {
		checkRawValue(name, raw, policy, st)
	}
}

// checkLoadCycles flags drives beyond 600K load/unload cycles, the value
// hard drive vendors consider safe.
func checkLoadCycles(name string, raw int64, st *deviceState) {
	switch {
	case raw > loadCycleCritical:
		st.fail(Critical, fmt.Sprintf("%s is above 600K load cycles (%d) causing possible performance and durability impact", name, raw))
	case raw > loadCycleWarning:
		st.warnText(fmt.Sprintf("%s is soon reaching 600K load cycles (%d) causing possible performance and durability impact soon", name, raw))
	}
}

// checkRawValue applies the raw check rule: a positive value is a WARNING,
// unless a threshold exists and is not reached, then it is a notice.
func checkRawValue(name string, raw int64, policy *Policy, st *deviceState) {
	if raw <= 0 {
		log.Debug().Str("name", name).Int64("raw", raw).Msg("raw value ok")
		return
	}
	if threshold, ok := policy.Threshold(name); ok && raw < threshold {
		st.notice(fmt.Sprintf("%s is non-zero (%d) (but less than threshold %d)", name, raw, threshold))
		return
	}
	st.warn(fmt.Sprintf("%s is non-zero (%d)", name, raw))
}
