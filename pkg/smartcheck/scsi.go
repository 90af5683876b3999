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

var (
	scsiCurrentTempRe  = regexp.MustCompile(`Current Drive Temperature:\s+(\d+)`)
	scsiTripTempRe     = regexp.MustCompile(`Drive Trip Temperature:\s+(\d+)`)
	scsiStartStopRe    = regexp.MustCompile(`Current start stop count:\s+(\d+)`)
	scsiStartStopMaxRe = regexp.MustCompile(`Recommended maximum start stop count:\s+(\d+)`)
	scsiGrownDefectsRe = regexp.MustCompile(`Elements in grown defect list:\s+(\d+)`)
	scsiBlocksToInitRe = regexp.MustCompile(`Blocks sent to initiator =\s+(\d+)`)
)

const (
	scsiPerfDefectList   = "defect_list"
	scsiPerfTemperature  = "temperature"
	scsiPerfStartStop    = "start_stop"
	scsiPerfBlocksToInit = "sent_blocks"
)

// scsiFields holds the scalar values found in SCSI "-a" output.
type scsiFields struct {
	temperature, tripTemperature *int64
	startStop, startStopMax      *int64
	grownDefects                 *int64
	blocksSent                   *int64
}

func matchInt(re *regexp.Regexp, line string) *int64 {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func extractSCSIFields(lines []string) scsiFields {
	var f scsiFields
	for _, line := range lines {
		if v := matchInt(scsiCurrentTempRe, line); v != nil {
			f.temperature = v
		} else if v := matchInt(scsiTripTempRe, line); v != nil {
			f.tripTemperature = v
		} else if v := matchInt(scsiStartStopRe, line); v != nil {
			f.startStop = v
		} else if v := matchInt(scsiStartStopMaxRe, line); v != nil {
			f.startStopMax = v
		} else if v := matchInt(scsiGrownDefectsRe, line); v != nil {
			f.grownDefects = v
		} else if v := matchInt(scsiBlocksToInitRe, line); v != nil {
			f.blocksSent = v
		}
	}
	return f
}

// parseSCSI checks the SCSI scalar fields. Perfdata keys double as attribute
// names for the exclude lists.
func parseSCSI(lines []string, policy *Policy, st *deviceState) {
	f := extractSCSIFields(lines)

	if f.grownDefects != nil && !policy.SkipsPerfData(-1, scsiPerfDefectList) {
		checkGrownDefects(*f.grownDefects, policy, st)
	}

	if f.blocksSent != nil && !policy.SkipsPerfData(-1, scsiPerfBlocksToInit) {
		st.addFinding(scsiFinding(scsiPerfBlocksToInit, *f.blocksSent, st.single))
	}

	if f.temperature != nil && !policy.SkipsPerfData(-1, scsiPerfTemperature) {
		finding := scsiFinding(scsiPerfTemperature, *f.temperature, st.single)
		if f.tripTemperature != nil {
			finding.Crit = strconv.FormatInt(*f.tripTemperature, 10)
			finding.Min = "0"
			if !policy.SkipTempCheck && !policy.SkipsCheck(-1, scsiPerfTemperature) && *f.temperature > *f.tripTemperature {
				log.Debug().Int64("current", *f.temperature).Int64("trip", *f.tripTemperature).Msg("disk temperature greater than max")
				st.fail(Critical, "Disk temperature is higher than maximum")
			}
		}
		st.addFinding(finding)
	}

	if f.startStop != nil && !policy.SkipsPerfData(-1, scsiPerfStartStop) {
		finding := scsiFinding(scsiPerfStartStop, *f.startStop, st.single)
		if f.startStopMax != nil {
			finding.Max = strconv.FormatInt(*f.startStopMax, 10)
			if !policy.SkipsCheck(-1, scsiPerfStartStop) && *f.startStop > *f.startStopMax {
				log.Debug().Int64("current", *f.startStop).Int64("max", *f.startStopMax).Msg("disk start_stop greater than max")
				st.warn("Disk start_stop is higher than maximum")
			}
		}
		st.addFinding(finding)
	}
}

func checkGrownDefects(count int64, policy *Policy, st *deviceState) {
	check := !policy.SkipsCheck(-1, scsiPerfDefectList)

	if policy.BadThreshold != nil {
		bad := *policy.BadThreshold
		finding := scsiFinding(scsiPerfDefectList, count, true)
		finding.Warn = strconv.FormatInt(bad, 10)
		finding.Crit = finding.Warn
		st.addFinding(finding)

		switch {
		case !check || count == 0:
		case count >= bad:
			st.warn(fmt.Sprintf("%d Elements in grown defect list (threshold %d)", count, bad))
		default:
			st.notice(fmt.Sprintf("Note: %d Elements in grown defect list", count))
		}
		return
	}

	if check && count > 0 {
		st.warn(fmt.Sprintf("%d Elements in grown defect list", count))
	}
	st.addFinding(scsiFinding(scsiPerfDefectList, count, st.single))
}

func scsiFinding(name string, v int64, perf bool) AttributeFinding {
	return AttributeFinding{
		Name:    name,
		Raw:     v,
		Display: strconv.FormatInt(v, 10),
		Perf:    perf,
		Source:  SourceSCSIField,
	}
}
