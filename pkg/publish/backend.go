// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package publish

import (
	"fmt"
)

// A Backend names which build front-end produces the distributions.
type Backend string

const (
	// BackendAuto picks BackendSetuptools when the project has a setup.py,
	// and BackendBuild otherwise.
	BackendAuto Backend = "auto"
	// BackendSetuptools runs the classic `python setup.py sdist
	// bdist_wheel`.
	BackendSetuptools Backend = "setuptools"
	// BackendBuild runs the PEP 517 front-end, `python -m build`.
	BackendBuild Backend = "build"
)

// String implements pflag.Value.
func (b Backend) String() string { return string(b) }

// Type implements pflag.Value.
func (b Backend) Type() string { return "backend" }

// Set implements pflag.Value.
func (b *Backend) Set(val string) error {
	switch Backend(val) {
	case BackendAuto, BackendSetuptools, BackendBuild:
		*b = Backend(val)
		return nil
	default:
		return fmt.Errorf("invalid backend %q (valid backends: %q, %q, %q)",
			val, BackendAuto, BackendSetuptools, BackendBuild)
	}
}

// Resolve turns BackendAuto into a concrete backend for a project.
func (b Backend) Resolve(proj *Project) Backend {
	if b != BackendAuto {
		return b
	}
	if proj.HasSetupPy {
		return BackendSetuptools
	}
	return BackendBuild
}
