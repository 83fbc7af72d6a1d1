//go:build !linux

// File: internal/geometry/probe_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package geometry

import (
	"os"

	"github.com/momentics/hioload-fio/api"
)

// Probe verifies the path exists and derives geometry from a conservative
// 4 KiB sector, a safe superset of common device sector sizes on platforms
// without an unprivileged geometry query.
func Probe(path string, chunkSize, minBufferSize int64) (DeviceGeometry, error) {
	if chunkSize < 1 || minBufferSize < 1 {
		return DeviceGeometry{}, api.NewError(api.ErrCodeProbe, "geometry parameters", api.ErrInvalidArgument)
	}
	if _, err := os.Stat(path); err != nil {
		return DeviceGeometry{}, api.NewError(api.ErrCodeProbe, "device geometry for "+path, err)
	}
	return Derive(4096, chunkSize, minBufferSize), nil
}
