// Package instance records which stride process owns the interactive UI so
// other commands can tell when one is running.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/stride/internal/constants"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// Lock is a lockfile holding the owning process id.
type Lock struct {
	path string
	pid  int
}

// LockPath returns the lockfile location inside dir.
func LockPath(dir string) string {
	return filepath.Join(dir, constants.LockFileName)
}

// Acquire writes the current pid to the lockfile in dir, replacing a stale
// one. It does not refuse when another instance is alive; callers check
// Running first if they care.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	l := &Lock{path: LockPath(dir), pid: getpidFunc()}
	if err := os.WriteFile(l.path, []byte(strconv.Itoa(l.pid)+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	return l, nil
}

// Release removes the lockfile if it still names this process.
func (l *Lock) Release() error {
	pid, err := readPID(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if pid != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

// Running reports the pid of another live stride process holding the lock
// in dir. A missing, malformed or stale lockfile reports ok=false.
func Running(dir string) (pid int, ok bool) {
	pid, err := readPID(LockPath(dir))
	if err != nil || pid == getpidFunc() {
		return 0, false
	}
	proc, err := findProcessFunc(pid)
	if err != nil || proc == nil {
		return 0, false
	}
	if !strings.HasPrefix(proc.Executable(), constants.AppName) {
		return 0, false
	}
	return pid, true
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, errors.New("malformed lockfile")
	}
	return pid, nil
}
