// Package deps reports the availability of external resources a render
// needs: the encoder binary and the optional placeholder font.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"framelock/internal/config"
)

// Requirement defines an external dependency framelock relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements derives the dependency list from the configuration.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.Binary,
			Description: "Encodes the rendered output",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckFont reports whether the configured placeholder font is readable.
// The font is always optional: synthesis falls back to the embedded face.
func CheckFont(cfg *config.Config) Status {
	status := Status{
		Name:        "Placeholder font",
		Command:     cfg.Placeholder.FontPath,
		Description: "TrueType face for placeholder labels",
		Optional:    true,
	}
	path := strings.TrimSpace(cfg.Placeholder.FontPath)
	if path == "" {
		status.Detail = "not configured; embedded face in use"
		return status
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		status.Detail = fmt.Sprintf("font %q not readable; embedded face in use", path)
		return status
	}
	status.Available = true
	return status
}

// Check runs every dependency probe for the configuration.
func Check(cfg *config.Config) []Status {
	statuses := CheckBinaries(Requirements(cfg))
	return append(statuses, CheckFont(cfg))
}
