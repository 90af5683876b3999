// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Interface is a smartctl device type token as passed to "-d", e.g. "ata",
// "nvme" or "megaraid,3".
type Interface string

var (
	validInterfaceRe  = regexp.MustCompile(`^(ata|scsi|3ware|areca|hpt|aacraid|cciss|megaraid|sat|auto|nvme|usbjmicron)`)
	interfaceRangeRe  = regexp.MustCompile(`^(megaraid|3ware|cciss|aacraid|usbjmicron),\[(\d+)-(\d+)\]$`)
	raidLabelRe       = regexp.MustCompile(`^(megaraid|3ware|aacraid|cciss)`)
	pseudoDeviceRe    = regexp.MustCompile(`^/dev/bus/\d$`)
	maxInterfaceRange = 1024
)

// Validate reports whether smartctl knows the interface family.
func (i Interface) Validate() error {
	if !validInterfaceRe.MatchString(string(i)) {
		return fmt.Errorf("%w %s", ErrInvalidInterface, i)
	}
	return nil
}

// Driver returns the part before the first comma.
func (i Interface) Driver() string {
	driver, _, _ := strings.Cut(string(i), ",")
	return driver
}

func (i Interface) IsNVMe() bool {
	return i == "nvme"
}

// IsRAID reports whether output fragments for this interface are labelled by
// the interface instead of the device path.
func (i Interface) IsRAID() bool {
	return raidLabelRe.MatchString(string(i))
}

// Expand turns "driver,[A-B]" into one interface per index in [A,B]. Every
// other token is returned as is. A reversed range is invalid.
func (i Interface) Expand() ([]Interface, error) {
	m := interfaceRangeRe.FindStringSubmatch(string(i))
	if m == nil {
		return []Interface{i}, nil
	}
	start, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidInterface, i, err)
	}
	end, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidInterface, i, err)
	}
	if start > end {
		return nil, fmt.Errorf("%w %s: empty range", ErrInvalidInterface, i)
	}
	if end-start >= maxInterfaceRange {
		return nil, fmt.Errorf("%w %s: range too large", ErrInvalidInterface, i)
	}

	var out []Interface
	for n := start; n <= end; n++ {
		out = append(out, Interface(fmt.Sprintf("%s,%d", m[1], n)))
	}
	return out, nil
}

// DeviceTarget is one (device, interface) pair to probe.
type DeviceTarget struct {
	Device    string    `json:"device"`
	Interface Interface `json:"interface"`
}

// Label is the prefix of this target's fragment in multi-device output.
func (t DeviceTarget) Label() string {
	if t.Interface.IsRAID() {
		return fmt.Sprintf("[%s] - ", t.Interface)
	}
	return fmt.Sprintf("[%s] - ", t.Device)
}

func (t DeviceTarget) String() string {
	return t.Device + " (" + string(t.Interface) + ")"
}

// Resolver turns a device path or glob pattern into DeviceTargets.
type Resolver struct {
	Stat func(name string) (fs.FileInfo, error)
	Glob func(pattern string) ([]string, error)
}

// NewResolver returns a Resolver backed by the local filesystem.
func NewResolver() *Resolver {
	return &Resolver{Stat: os.Stat, Glob: filepath.Glob}
}

// Resolve validates the device (or every glob match) and pairs each valid device
// with every expanded interface. A non-empty device wins over pattern.
func (r *Resolver) Resolve(device, pattern string, iface Interface) ([]DeviceTarget, error) {
	if err := iface.Validate(); err != nil {
		return nil, err
	}
	interfaces, err := iface.Expand()
	if err != nil {
		return nil, err
	}

	var candidates []string
	source := device
	if device != "" {
		candidates = []string{device}
	} else if pattern != "" {
		source = pattern
		candidates, err = r.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrNoValidDevice, pattern, err)
		}
	}

	devices := r.validDevices(candidates)
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoValidDevice, source)
	}

	targets := make([]DeviceTarget, 0, len(devices)*len(interfaces))
	for _, dev := range devices {
		for _, i := range interfaces {
			targets = append(targets, DeviceTarget{Device: dev, Interface: i})
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoValidDevice, source)
	}
	return targets, nil
}

func (r *Resolver) validDevices(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	var valid []string
	for _, dev := range candidates {
		if _, dup := seen[dev]; dup {
			continue
		}
		seen[dev] = struct{}{}
		log.Debug().Str("device", dev).Msg("device_found")

		fi, err := r.Stat(dev)
		switch {
		case err == nil:
			if fi.Mode()&(fs.ModeDevice|fs.ModeCharDevice) == 0 {
				log.Debug().Str("device", dev).Msg("not a block or character special device")
				continue
			}
			valid = append(valid, dev)
		case pseudoDeviceRe.MatchString(dev):
			// /dev/bus/N may be virtual.
			valid = append(valid, dev)
		default:
			log.Debug().Err(err).Str("device", dev).Msg("device_not_accessible")
		}
	}
	return valid
}
