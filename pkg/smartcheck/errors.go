// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartcheck

import "errors"

// Errors that abort a run before any device is probed. All of them map to UNKNOWN.
var (
	ErrNoValidDevice        = errors.New("could not find any valid block/character special device")
	ErrInvalidInterface     = errors.New("invalid interface")
	ErrExecutableNotFound   = errors.New("could not find executable smartctl")
	ErrInvalidPolicy        = errors.New("invalid check policy")
	ErrNoDeviceSpecified    = errors.New("must specify a device")
	ErrNoInterfaceSpecified = errors.New("must specify an interface")
)
