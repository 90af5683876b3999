// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSingleATAWarning(t *testing.T) {
	runner := newFakeRunner()
	runner.device("/dev/sda", "ata", readLines(t, "ata_info_passed.txt"), 0, readLines(t, "ata_attributes.txt"))

	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{}), "/dev/sda")
	res, err := c.Run(context.Background(), Request{Device: "/dev/sda", Interface: "ata"})
	require.NoError(t, err)

	assert.Equal(t, Warning, res.Severity)
	assert.Equal(t, 1, res.ExitCode())
	out := res.String()
	assert.True(t, strings.HasPrefix(out, "WARNING: Drive ST4000VN008-2DR166 S/N ZGY5ABCD: Reallocated_Sector_Ct is non-zero (3)|"), out)
	assert.Contains(t, out, "Reallocated_Sector_Ct=3;;;;")
	assert.Equal(t, []string{
		"-d ata -Hi /dev/sda",
		"-d ata -q silent -A /dev/sda",
		"-d ata -a /dev/sda",
	}, runner.calls)
}

func TestCheckGlobSCSIQuiet(t *testing.T) {
	runner := newFakeRunner()
	ok := readLines(t, "scsi_info_ok.txt")
	attrs := readLines(t, "scsi_attributes.txt")
	runner.device("/dev/sda", "scsi", ok, 0, attrs)
	runner.device("/dev/sdb", "scsi", readLines(t, "scsi_info_not_ok.txt"), 0, attrs)
	runner.device("/dev/sdc", "scsi", ok, 0, attrs)

	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{Quiet: true}), "/dev/sda", "/dev/sdb", "/dev/sdc")
	res, err := c.Run(context.Background(), Request{Pattern: "/dev/sd[a-z]", Interface: "scsi"})
	require.NoError(t, err)

	assert.Equal(t, "CRITICAL: [/dev/sdb] - Health status: NOT OK --- Other drives OK|", res.String())
	assert.Equal(t, 2, res.ExitCode())
	assert.Len(t, res.Reports, 3)
}

func TestCheckGlobSingleMatchIsMultiMode(t *testing.T) {
	runner := newFakeRunner()
	runner.device("/dev/sda", "scsi", readLines(t, "scsi_info_ok.txt"), 0, readLines(t, "scsi_attributes.txt"))

	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{}), "/dev/sda")
	res, err := c.Run(context.Background(), Request{Pattern: "/dev/sd*", Interface: "scsi"})
	require.NoError(t, err)
	assert.Equal(t, "OK: [/dev/sda] - Device is clean|", res.String())
}

func TestCheckNVMeOldAge(t *testing.T) {
	runner := newFakeRunner()
	runner.device("/dev/nvme0", "nvme", readLines(t, "nvme_info.txt"), 0, readLines(t, "nvme_health_log.txt"))

	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{OldAge: true}), "/dev/nvme0")
	res, err := c.Run(context.Background(), Request{Device: "/dev/nvme0", Interface: "nvme"})
	require.NoError(t, err)

	assert.Equal(t, Warning, res.Severity)
	assert.True(t, strings.HasPrefix(res.String(),
		"WARNING: Drive Samsung SSD 970 EVO Plus 1TB S/N S4EWNX0N123456A: Media_and_Data_Integrity_Errors is non-zero (2)|"), res.String())
}

func TestCheckRAIDRangeExpansion(t *testing.T) {
	runner := newFakeRunner()
	for _, iface := range []string{"megaraid,1", "megaraid,2", "megaraid,3"} {
		runner.device("/dev/sda", iface, readLines(t, "ata_info_passed.txt"), 0, nil)
	}
	runner.set(Output{Lines: readLines(t, "scsi_info_not_ok.txt")}, "-d", "megaraid,2", "-Hi", "/dev/sda")

	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{}), "/dev/sda")
	res, err := c.Run(context.Background(), Request{Device: "/dev/sda", Interface: "megaraid,[1-3]"})
	require.NoError(t, err)

	assert.Equal(t, Critical, res.Severity)
	assert.Equal(t,
		"[megaraid,2] - Health status: NOT OK --- [megaraid,1] - Device is clean --- [megaraid,3] - Device is clean",
		res.Message)
}

func TestCheckProbeFailureIsUnknown(t *testing.T) {
	runner := newFakeRunner()
	runner.device("/dev/sda", "ata", readLines(t, "ata_info_passed.txt"), 0, nil)
	runner.fail(errProbeTimeout, "-d", "ata", "-a", "/dev/sda")

	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{}), "/dev/sda")
	res, err := c.Run(context.Background(), Request{Device: "/dev/sda", Interface: "ata"})
	require.NoError(t, err)
	assert.Equal(t, Unknown, res.Severity)
	assert.Contains(t, res.Message, "Attribute probe failed: smartctl: context deadline exceeded")
}

func TestCheckProbeFailureDoesNotMaskOtherDevices(t *testing.T) {
	runner := newFakeRunner()
	runner.device("/dev/sda", "scsi", readLines(t, "scsi_info_ok.txt"), 0, nil)
	runner.fail(errProbeTimeout, "-d", "scsi", "-Hi", "/dev/sda")
	runner.device("/dev/sdb", "scsi", readLines(t, "scsi_info_ok.txt"), 0x04, nil)

	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{}), "/dev/sda", "/dev/sdb")
	res, err := c.Run(context.Background(), Request{Pattern: "/dev/sd*", Interface: "scsi"})
	require.NoError(t, err)
	assert.Equal(t, Warning, res.Severity)
	assert.True(t, strings.HasPrefix(res.Message, "[/dev/sdb] - Checksum failure --- [/dev/sda] - Health probe failed"), res.Message)
}

func TestCheckHideSerialAndSelfTest(t *testing.T) {
	runner := newFakeRunner()
	runner.device("/dev/sda", "ata", nil, 0, nil)
	runner.set(Output{Lines: readLines(t, "ata_info_passed.txt")}, "-d", "ata", "-Hi", "/dev/sda", "-q", "noserial")
	runner.set(Output{ExitCode: 0x80}, "-d", "ata", "-q", "silent", "-l", "selftest", "/dev/sda")

	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{HideSerial: true, SelfTest: true}), "/dev/sda")
	res, err := c.Run(context.Background(), Request{Device: "/dev/sda", Interface: "ata"})
	require.NoError(t, err)
	assert.Equal(t, "WARNING: Drive ST4000VN008-2DR166 S/N <HIDDEN>: Self-test log contains errors|", res.String())
}

func TestCheckConcurrentKeepsTargetOrder(t *testing.T) {
	runner := newFakeRunner()
	devices := []string{"/dev/sda", "/dev/sdb", "/dev/sdc", "/dev/sdd"}
	for _, d := range devices {
		runner.device(d, "scsi", readLines(t, "scsi_info_ok.txt"), 0, nil)
	}

	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{}), devices...)
	c.Concurrency = 3
	res, err := c.Run(context.Background(), Request{Pattern: "/dev/sd*", Interface: "scsi"})
	require.NoError(t, err)
	require.Len(t, res.Reports, 4)
	for i, d := range devices {
		assert.Equal(t, d, res.Reports[i].Target.Device)
	}
}

func TestCheckFatalErrors(t *testing.T) {
	c := newTestChecker(newFakeRunner(), mustPolicy(t, PolicyConfig{}), "/dev/sda")

	_, err := c.Run(context.Background(), Request{Interface: "ata"})
	assert.ErrorIs(t, err, ErrNoDeviceSpecified)

	_, err = c.Run(context.Background(), Request{Device: "/dev/sda"})
	assert.ErrorIs(t, err, ErrNoInterfaceSpecified)

	_, err = c.Run(context.Background(), Request{Device: "/dev/sda", Interface: "floppy"})
	assert.ErrorIs(t, err, ErrInvalidInterface)

	_, err = c.Run(context.Background(), Request{Device: "/dev/sdq", Interface: "ata"})
	assert.ErrorIs(t, err, ErrNoValidDevice)
}

func TestCheckReversedRangeIsFatal(t *testing.T) {
	runner := newFakeRunner()
	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{}), "/dev/sda")

	res, err := c.Run(context.Background(), Request{Device: "/dev/sda", Interface: "megaraid,[5-1]"})
	require.ErrorIs(t, err, ErrInvalidInterface)
	assert.Nil(t, res)
	assert.Empty(t, runner.calls)

	fatal := FatalResult(err)
	assert.Equal(t, 3, fatal.ExitCode())
	assert.True(t, strings.HasPrefix(fatal.String(), "UNKNOWN: invalid interface megaraid,[5-1]"), fatal.String())
}

func TestCheckEscalationIsPerDevice(t *testing.T) {
	runner := newFakeRunner()
	runner.device("/dev/sda", "scsi", readLines(t, "scsi_info_not_ok.txt"), 0, nil)
	runner.device("/dev/sdb", "scsi", readLines(t, "scsi_info_ok.txt"), 0x04, nil)

	c := newTestChecker(runner, mustPolicy(t, PolicyConfig{}), "/dev/sda", "/dev/sdb")
	res, err := c.Run(context.Background(), Request{Pattern: "/dev/sd*", Interface: "scsi"})
	require.NoError(t, err)

	// a WARNING after another drive's CRITICAL still lands on its own drive
	require.Len(t, res.Reports, 2)
	assert.Equal(t, Critical, res.Reports[0].Severity)
	assert.Equal(t, Warning, res.Reports[1].Severity)
	assert.Equal(t, Critical, res.Severity)
	assert.Contains(t, res.Message, "[/dev/sdb] - Checksum failure")
}
