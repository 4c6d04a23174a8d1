package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"framelock/internal/services"
)

var commandContext = exec.CommandContext

// MinVersion is the minimum supported ffmpeg release (MAJOR.MINOR). Golden
// frame hashes are produced against this line; older encoders may emit
// different bitstreams.
const MinVersion = "6.1"

// Client defines the external encoder behaviour the orchestrator depends on.
type Client interface {
	// Encode runs one encoder invocation with the fully-resolved argument
	// list. A non-zero exit surfaces as ErrEncodeFailed carrying the
	// captured diagnostic text verbatim. Never retried.
	Encode(ctx context.Context, args []string) error
	// Version reports the installed encoder version string.
	Version(ctx context.Context) (string, error)
	// FrameHashes decodes the video at path and returns one content hash
	// line per frame, comment lines stripped.
	FrameHashes(ctx context.Context, path string) ([]string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command-line encoder.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Encode launches ffmpeg with the provided arguments and waits for completion.
func (c *CLI) Encode(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return services.Wrap(services.ErrEncodeFailed, "encode", "launch", "empty argument list", nil)
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if isNotFound(err) {
			return services.Wrap(services.ErrExternalTool, "encode", "launch",
				fmt.Sprintf("%s not found on PATH (need >= %s)", c.binary, MinVersion), err)
		}
		// Diagnostic text is preserved verbatim; callers rely on it.
		return services.Wrap(services.ErrEncodeFailed, "encode", "run",
			fmt.Sprintf("%s exited: %s", c.binary, strings.TrimSpace(string(output))), err)
	}
	return nil
}

// Version returns the installed ffmpeg version string (e.g. "6.1.1").
func (c *CLI) Version(ctx context.Context) (string, error) {
	cmd := commandContext(ctx, c.binary, "-version")
	output, err := cmd.Output()
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "encode", "version",
			fmt.Sprintf("%s -version failed", c.binary), err)
	}
	version := ParseVersion(string(output))
	if version == "" {
		return "", services.Wrap(services.ErrExternalTool, "encode", "version",
			fmt.Sprintf("unrecognized %s -version output", c.binary), nil)
	}
	return version, nil
}

// FrameHashes extracts per-frame MD5 lines via `ffmpeg -f framemd5 -`.
func (c *CLI) FrameHashes(ctx context.Context, path string) ([]string, error) {
	cmd := commandContext(ctx, c.binary, "-nostdin", "-i", path, "-f", "framemd5", "-")
	output, err := cmd.Output()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "fingerprint", "framemd5",
			fmt.Sprintf("decode %s", path), err)
	}
	var hashes []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hashes = append(hashes, line)
	}
	return hashes, nil
}

// ParseVersion extracts the version token from `ffmpeg -version` output.
// First line format: "ffmpeg version X.Y.Z[-suffix] ...". Returns "" when the
// output does not match.
func ParseVersion(output string) string {
	lines := strings.SplitN(output, "\n", 2)
	fields := strings.Fields(lines[0])
	if len(fields) >= 3 && fields[0] == "ffmpeg" && fields[1] == "version" {
		return fields[2]
	}
	return ""
}

// BelowMinVersion reports whether version's MAJOR.MINOR precedes MinVersion.
// Unparsable versions report false; the encode itself decides whether it can
// proceed.
func BelowMinVersion(version string) bool {
	major, minor, ok := splitVersion(version)
	if !ok {
		return false
	}
	reqMajor, reqMinor, _ := splitVersion(MinVersion)
	if major != reqMajor {
		return major < reqMajor
	}
	return minor < reqMinor
}

func splitVersion(version string) (int, int, bool) {
	var major, minor int
	trimmed := strings.TrimSpace(version)
	if n, err := fmt.Sscanf(trimmed, "%d.%d", &major, &minor); err != nil || n != 2 {
		return 0, 0, false
	}
	return major, minor, true
}

func isNotFound(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound)
}

var _ Client = (*CLI)(nil)
