// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"os"
	"regexp"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/host"
)

var vendorPatterns = []struct {
	pattern *regexp.Regexp
	vendor  string
}{
	{regexp.MustCompile(`(?i)^DL2400`), "Seagate"},
	{regexp.MustCompile(`(?i)TOSHIBA`), "Toshiba"},
	{regexp.MustCompile(`(?i)^MG0[345678]`), "Toshiba"},
	{regexp.MustCompile(`(?i)INTEL`), "Intel"},
	{regexp.MustCompile(`(?i)KIOXIA`), "Kioxia"},
	{regexp.MustCompile(`(?i)WESTERN`), "WesternDigital"},
	{regexp.MustCompile(`(?i)WDC`), "WesternDigital"},
	{regexp.MustCompile(`(?i)^WD100`), "WesternDigital"},
	{regexp.MustCompile(`(?i)SEAGATE`), "Seagate"},
	{regexp.MustCompile(`(?i)^ST[12345678][0123456789]`), "Seagate"},
	{regexp.MustCompile(`(?i)HGST`), "HGST"},
	{regexp.MustCompile(`(?i)^HU[HS]`), "HGST"},
	{regexp.MustCompile(`(?i)MICRON`), "Micron"},
	{regexp.MustCompile(`(?i)MTFDD`), "Micron"},
	{regexp.MustCompile(`(?i)SANDISK`), "SanDisk"},
	{regexp.MustCompile(`(?i)SAMSUNG`), "Samsung"},
	{regexp.MustCompile(`(?i)^MZ[7VQ]`), "Samsung"},
}

// FindVendor guesses the manufacturer from the model string the check reported.
func FindVendor(model string) string {
	for _, entry := range vendorPatterns {
		if entry.pattern.MatchString(model) {
			return entry.vendor
		}
	}
	return ""
}

// defaultNodeName is used when no node name is configured.
func defaultNodeName() string {
	info, err := host.Info()
	if err == nil && info.Hostname != "" {
		return info.Hostname
	}
	if err != nil {
		log.Warn().Err(err).Msg("error reading host info")
	}
	name, _ := os.Hostname()
	return name
}
