// Package procinfo resolves process ids to executable names.
package procinfo

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Namer looks up process names with gopsutil. Every call reads the live
// process table, so a reused pid reports its current executable.
type Namer struct{}

// NewNamer creates a namer
func NewNamer() *Namer {
	return &Namer{}
}

// Name returns the executable name of pid without a .exe suffix
func (n *Namer) Name(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("invalid pid %d", pid)
	}

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	name, err := p.Name()
	if err != nil {
		return "", fmt.Errorf("failed to get name of process %d: %w", pid, err)
	}
	return CleanName(name), nil
}

// CleanName strips directories and a trailing .exe
func CleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".exe") {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
