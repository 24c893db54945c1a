// Package procmaps reads /proc/self/maps to report the page permissions
// backing an address this process has already resolved through
// internal/procmap and internal/dynseg. It exists purely as an
// operational aid: pltdemo's objects subcommand uses it to show whether
// a GOT page is writable, which is the difference between a patch that
// succeeds and one that faults on a full-RELRO binary (spec.md §5).
package procmaps

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Region is one line of /proc/self/maps: an address range, its
// permission string (e.g. "r-xp", "rw-p"), and the backing file path, if
// any.
type Region struct {
	Start, End uintptr
	Perms      string
	Path       string
}

// Read parses the calling process's own /proc/self/maps into a slice of
// Region, in file order (which is address order on Linux).
func Read() ([]Region, error) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return nil, fmt.Errorf("open /proc/self/maps: %w", err)
	}
	defer f.Close()

	var regions []Region
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		bounds := strings.SplitN(fields[0], "-", 2)
		if len(bounds) != 2 {
			continue
		}
		start, errStart := strconv.ParseUint(bounds[0], 16, 64)
		end, errEnd := strconv.ParseUint(bounds[1], 16, 64)
		if errStart != nil || errEnd != nil {
			continue
		}

		path := ""
		if len(fields) >= 6 {
			path = strings.Join(fields[5:], " ")
		}

		regions = append(regions, Region{
			Start: uintptr(start),
			End:   uintptr(end),
			Perms: fields[1],
			Path:  path,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan /proc/self/maps: %w", err)
	}
	return regions, nil
}

// PermsForAddr returns the permission string of the region containing
// addr, or ok=false if addr falls outside every mapped region (which
// should not happen for an address this process itself resolved).
func PermsForAddr(regions []Region, addr uintptr) (perms string, ok bool) {
	for _, r := range regions {
		if addr >= r.Start && addr < r.End {
			return r.Perms, true
		}
	}
	return "", false
}
