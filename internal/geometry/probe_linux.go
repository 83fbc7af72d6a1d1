//go:build linux

// File: internal/geometry/probe_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sector-size probe. Resolves the path to its containing device and reads
// the block queue's logical block size from sysfs, which needs no
// privileges. Partition nodes keep their queue directory one level up.

package geometry

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-fio/api"
)

// Probe resolves path to its containing volume and derives the geometry.
// Any failure is fatal and carries the native status; no retry here.
func Probe(path string, chunkSize, minBufferSize int64) (DeviceGeometry, error) {
	if chunkSize < 1 || minBufferSize < 1 {
		return DeviceGeometry{}, api.NewError(api.ErrCodeProbe, "geometry parameters", api.ErrInvalidArgument)
	}
	ss, err := sectorSize(path)
	if err != nil {
		return DeviceGeometry{}, api.NewError(api.ErrCodeProbe, "device geometry for "+path, err)
	}
	return Derive(ss, chunkSize, minBufferSize), nil
}

func sectorSize(path string) (int64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	maj := unix.Major(st.Dev)
	min := unix.Minor(st.Dev)

	for _, sysfs := range []string{
		fmt.Sprintf("/sys/dev/block/%d:%d/queue/logical_block_size", maj, min),
		fmt.Sprintf("/sys/dev/block/%d:%d/../queue/logical_block_size", maj, min),
	} {
		if ss, err := readSysfsInt(sysfs); err == nil && ss > 0 {
			return ss, nil
		}
	}

	// Virtual filesystems (tmpfs, overlayfs) carry no block queue; the
	// filesystem block size is the effective transfer unit there.
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err == nil && fs.Bsize > 0 && fs.Bsize <= 65536 {
		return int64(fs.Bsize), nil
	}
	return 512, nil
}

func readSysfsInt(path string) (int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
}
