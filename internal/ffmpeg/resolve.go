// Package ffmpeg resolves and drives the external transcoder that strips
// the video stream and re-encodes speech audio for transcription.
package ffmpeg

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// binaryName is the base name of the transcoder binary.
const binaryName = "ffmpeg"

// installDirName is the per-user directory checked for a vendored binary.
const installDirName = ".go-chapters"

// Resolver finds the ffmpeg binary. The zero value is not usable;
// construct with NewResolver. Resolution is a pure function of the
// injected environment, computed per call, so tests can substitute a
// fake binary without mutating process-wide state.
type Resolver struct {
	env  envProvider
	goos string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithEnvProvider sets the environment provider (for testing).
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithGOOS sets the target OS (for testing cross-platform naming).
func WithGOOS(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		env:  osEnvProvider{},
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds ffmpeg using the following precedence:
//  1. override (FFMPEG_PATH configuration), error if set but not present
//  2. system PATH
//  3. vendored binary under ~/.go-chapters/bin
//  4. bare command name, deferring the failure to process start
func (r *Resolver) Resolve(override string) (string, error) {
	if override != "" {
		if _, err := r.env.Stat(override); err != nil {
			return "", fmt.Errorf("%w: FFMPEG_PATH is set to %q but no binary is there", ErrNotFound, override)
		}
		return override, nil
	}

	if path, err := r.env.LookPath(binaryName); err == nil {
		return path, nil
	}

	if path, err := r.vendoredPath(); err == nil {
		if _, err := r.env.Stat(path); err == nil {
			return path, nil
		}
	}

	// Last resort: let exec report the failure with the bare name.
	return binaryName, nil
}

// vendoredPath returns where a bundled ffmpeg would be installed.
func (r *Resolver) vendoredPath() (string, error) {
	home, err := r.env.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}

	name := binaryName
	if r.goos == "windows" {
		name += ".exe"
	}
	return filepath.Join(home, installDirName, "bin", name), nil
}
