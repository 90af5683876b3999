// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	DefaultRawCheckATA = []string{
		"Current_Pending_Sector",
		"Reallocated_Sector_Ct",
		"Program_Fail_Cnt_Total",
		"Uncorrectable_Error_Cnt",
		"Offline_Uncorrectable",
		"Runtime_Bad_Block",
		"Reported_Uncorrect",
		"Reallocated_Event_Count",
		"Erase_Fail_Count_Total",
		"Command_Timeout",
	}
	DefaultRawCheckNVMe = []string{"Media_and_Data_Integrity_Errors"}
)

const (
	ssdLifetimeAttribute        = "Percent_Lifetime_Remain"
	ssdLifetimeDefaultThreshold = 90
	pendingSectorAttribute      = "Current_Pending_Sector"
)

// PolicyConfig is the user facing form of a Policy, as read from flags,
// environment or a config file.
type PolicyConfig struct {
	Exclude            []string `mapstructure:"exclude"`
	ExcludeAll         []string `mapstructure:"exclude_all"`
	Raw                []string `mapstructure:"raw"`
	Warn               []string `mapstructure:"warn"`
	Bad                int64    `mapstructure:"bad"`
	SelfTest           bool     `mapstructure:"selftest"`
	SSDLifetime        bool     `mapstructure:"ssd_lifetime"`
	OldAge             bool     `mapstructure:"oldage"`
	Quiet              bool     `mapstructure:"quiet"`
	SkipSelfAssessment bool     `mapstructure:"skip_self_assessment"`
	SkipTempCheck      bool     `mapstructure:"skip_temp_check"`
	SkipLoadCycles     bool     `mapstructure:"skip_load_cycles"`
	SkipErrorLog       bool     `mapstructure:"skip_error_log"`
	HideSerial         bool     `mapstructure:"hide_serial"`
}

// AttributeSet matches SMART attributes by name or by numeric id.
type AttributeSet struct {
	names   map[string]struct{}
	numbers map[int]struct{}
}

// NewAttributeSet sorts entries into ids (all digits) and names.
func NewAttributeSet(entries []string) AttributeSet {
	s := AttributeSet{names: map[string]struct{}{}, numbers: map[int]struct{}{}}
	for _, e := range entries {
		if e == "" {
			continue
		}
		s.names[e] = struct{}{}
		if n, err := strconv.Atoi(e); err == nil && n >= 0 {
			s.numbers[n] = struct{}{}
		}
	}
	return s
}

// Matches reports whether the attribute is in the set. A negative number
// matches by name only.
func (s AttributeSet) Matches(number int, name string) bool {
	if number >= 0 {
		if _, ok := s.numbers[number]; ok {
			return true
		}
	}
	_, ok := s.names[name]
	return ok
}

// NameSet is a set of attribute names.
type NameSet map[string]struct{}

func NewNameSet(names []string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order, for logging.
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Policy is the read-only configuration shared by every target of a run.
type Policy struct {
	Exclude      AttributeSet
	ExcludeAll   AttributeSet
	Thresholds   map[string]int64
	RawCheckATA  NameSet
	RawCheckNVMe NameSet
	// BadThreshold is the SCSI grown defect list threshold, nil when unset.
	BadThreshold *int64

	SelfTest           bool
	SSDLifetime        bool
	OldAge             bool
	Quiet              bool
	SkipSelfAssessment bool
	SkipTempCheck      bool
	SkipLoadCycles     bool
	SkipErrorLog       bool
	HideSerial         bool
}

// NewPolicy builds a Policy. Malformed warning thresholds are reported as
// ErrInvalidPolicy.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	p := &Policy{
		Exclude:            NewAttributeSet(cfg.Exclude),
		ExcludeAll:         NewAttributeSet(cfg.ExcludeAll),
		Thresholds:         map[string]int64{},
		SelfTest:           cfg.SelfTest,
		SSDLifetime:        cfg.SSDLifetime,
		OldAge:             cfg.OldAge,
		Quiet:              cfg.Quiet,
		SkipSelfAssessment: cfg.SkipSelfAssessment,
		SkipTempCheck:      cfg.SkipTempCheck,
		SkipLoadCycles:     cfg.SkipLoadCycles,
		SkipErrorLog:       cfg.SkipErrorLog,
		HideSerial:         cfg.HideSerial,
	}

	rawATA := DefaultRawCheckATA
	rawNVMe := DefaultRawCheckNVMe
	if len(cfg.Raw) > 0 {
		rawATA = cfg.Raw
		rawNVMe = cfg.Raw
	}
	p.RawCheckATA = NewNameSet(rawATA)
	p.RawCheckNVMe = NewNameSet(rawNVMe)
	if cfg.SSDLifetime {
		p.RawCheckATA[ssdLifetimeAttribute] = struct{}{}
	}

	for _, entry := range cfg.Warn {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: warning threshold %q: %w", ErrInvalidPolicy, entry, err)
		}
		p.Thresholds[strings.TrimSpace(name)] = n
	}

	if cfg.SSDLifetime {
		if _, ok := p.Thresholds[ssdLifetimeAttribute]; !ok {
			p.Thresholds[ssdLifetimeAttribute] = ssdLifetimeDefaultThreshold
		}
	}

	if cfg.Bad < 0 {
		return nil, fmt.Errorf("%w: bad sector threshold must not be negative", ErrInvalidPolicy)
	}
	if cfg.Bad > 0 {
		bad := cfg.Bad
		p.BadThreshold = &bad
		p.Thresholds[pendingSectorAttribute] = bad
	}

	return p, nil
}

// SkipsCheck reports whether findings for the attribute must not produce
// messages. Exclude-all implies exclude.
func (p *Policy) SkipsCheck(number int, name string) bool {
	return p.Exclude.Matches(number, name) || p.ExcludeAll.Matches(number, name)
}

// SkipsPerfData reports whether the attribute is kept out of perfdata.
func (p *Policy) SkipsPerfData(number int, name string) bool {
	return p.ExcludeAll.Matches(number, name)
}

// Threshold returns the configured warning threshold for name.
func (p *Policy) Threshold(name string) (int64, bool) {
	t, ok := p.Thresholds[name]
	return t, ok
}

// SplitList splits a comma separated option, dropping empty elements.
func SplitList(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
