package ffmpeg

import (
	"os"
	"os/exec"
)

// envProvider abstracts environment and filesystem lookups used during
// binary resolution, so tests can resolve against a fake environment.
type envProvider interface {
	LookPath(file string) (string, error)
	UserHomeDir() (string, error)
	Stat(name string) (os.FileInfo, error)
}

// Compile-time interface verification.
var _ envProvider = osEnvProvider{}

// osEnvProvider implements envProvider using os and exec.
type osEnvProvider struct{}

func (osEnvProvider) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osEnvProvider) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (osEnvProvider) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
