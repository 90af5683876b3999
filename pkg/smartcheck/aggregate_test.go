// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func report(dev string, iface Interface, sev Severity, errs, warns, notices []string) DeviceReport {
	return DeviceReport{
		Target:   DeviceTarget{Device: dev, Interface: iface},
		Model:    "MODEL",
		Serial:   "SERIAL",
		Severity: sev,
		Errors:   errs,
		Warnings: warns,
		Notices:  notices,
	}
}

func TestAggregateSingleOK(t *testing.T) {
	res := Aggregate([]DeviceReport{report("/dev/sda", "ata", OK, nil, nil, nil)}, false, false)
	assert.Equal(t, "OK: Drive MODEL S/N SERIAL: no SMART errors detected|", res.String())
	assert.Equal(t, 0, res.ExitCode())

	res = Aggregate([]DeviceReport{report("/dev/sda", "ata", OK, nil, nil, []string{"Reallocated_Sector_Ct is non-zero (3) (but less than threshold 10)"})}, false, false)
	assert.Equal(t, "Drive MODEL S/N SERIAL: no SMART errors detected. Reallocated_Sector_Ct is non-zero (3) (but less than threshold 10)", res.Message)
}

func TestAggregateSingleNotOK(t *testing.T) {
	r := report("/dev/sda", "ata", Critical, []string{"Health status: FAILED!"}, []string{"Reallocated_Sector_Ct is non-zero (3)"}, nil)
	r.Findings = []AttributeFinding{{Name: "Reallocated_Sector_Ct", Raw: 3, Display: "3", Perf: true}}
	res := Aggregate([]DeviceReport{r}, false, false)
	assert.Equal(t, "CRITICAL: Drive MODEL S/N SERIAL: Health status: FAILED!, Reallocated_Sector_Ct is non-zero (3)|Reallocated_Sector_Ct=3;;;;", res.String())
	assert.Equal(t, 2, res.ExitCode())
}

func TestAggregateMultiOrdering(t *testing.T) {
	reports := []DeviceReport{
		report("/dev/sda", "scsi", OK, nil, nil, nil),
		report("/dev/sdb", "scsi", Unknown, []string{"No health status line found"}, nil, nil),
		report("/dev/sdc", "scsi", Warning, nil, []string{"4 Elements in grown defect list"}, nil),
		report("/dev/sdd", "scsi", Critical, []string{"Health status: NOT OK"}, nil, nil),
	}
	res := Aggregate(reports, true, false)
	assert.Equal(t, Critical, res.Severity)
	assert.Equal(t,
		"[/dev/sdd] - Health status: NOT OK --- "+
			"[/dev/sdc] - 4 Elements in grown defect list --- "+
			"[/dev/sdb] - No health status line found --- "+
			"[/dev/sda] - Device is clean",
		res.Message)
}

func TestAggregateMultiQuiet(t *testing.T) {
	reports := []DeviceReport{
		report("/dev/sda", "scsi", OK, nil, nil, nil),
		report("/dev/sdb", "scsi", Warning, nil, []string{"Disk start_stop is higher than maximum"}, nil),
		report("/dev/sdc", "scsi", OK, nil, nil, nil),
	}
	res := Aggregate(reports, true, true)
	assert.Equal(t, "[/dev/sdb] - Disk start_stop is higher than maximum --- Other drives OK", res.Message)

	// all OK: quiet has nothing to collapse into
	res = Aggregate([]DeviceReport{reports[0], reports[2]}, true, true)
	assert.Equal(t, "[/dev/sda] - Device is clean --- [/dev/sdc] - Device is clean", res.Message)
}

func TestAggregateMultiCleanDeviceWithNotes(t *testing.T) {
	r := report("/dev/sda", "megaraid,0", OK, nil, []string{"Load_Cycle_Count is soon reaching 600K load cycles (599999) causing possible performance and durability impact soon"}, []string{"Note: 2 Elements in grown defect list"})
	res := Aggregate([]DeviceReport{r}, true, false)
	assert.Equal(t,
		"[megaraid,0] - Device is clean"+
			" [megaraid,0] - Load_Cycle_Count is soon reaching 600K load cycles (599999) causing possible performance and durability impact soon"+
			" [megaraid,0] - Note: 2 Elements in grown defect list",
		res.Message)
}

func TestAggregateSeverityIsOrderIndependent(t *testing.T) {
	unknown := report("/dev/sda", "scsi", Unknown, []string{"Attribute probe failed: timeout"}, nil, nil)
	warning := report("/dev/sdb", "scsi", Warning, nil, []string{"Checksum failure"}, nil)

	assert.Equal(t, Warning, Aggregate([]DeviceReport{unknown, warning}, true, false).Severity)
	assert.Equal(t, Warning, Aggregate([]DeviceReport{warning, unknown}, true, false).Severity)
}

func TestAggregatePerfDataConcatenated(t *testing.T) {
	a := report("/dev/sda", "scsi", OK, nil, nil, nil)
	a.Findings = []AttributeFinding{{Name: "defect_list", Display: "0", Perf: true, Warn: "10", Crit: "10"}}
	b := report("/dev/sdb", "scsi", OK, nil, nil, nil)
	b.Findings = []AttributeFinding{{Name: "defect_list", Display: "1", Perf: true, Warn: "10", Crit: "10"}, {Name: "temperature", Display: "30"}}
	res := Aggregate([]DeviceReport{a, b}, true, false)
	assert.Equal(t, "OK: [/dev/sda] - Device is clean --- [/dev/sdb] - Device is clean|defect_list=0;10;10;; defect_list=1;10;10;;", res.String())
}

func TestFatalResult(t *testing.T) {
	res := FatalResult(errors.New("must specify an interface"))
	assert.Equal(t, "UNKNOWN: must specify an interface|", res.String())
	assert.Equal(t, 3, res.ExitCode())
}
