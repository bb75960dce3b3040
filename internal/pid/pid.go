package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/vupdated/internal/errors"
	"github.com/gofrs/flock"
)

const (
	pidFile = "vupdated.pid"
)

// File is a pid file held under an exclusive lock for the lifetime of the
// process.
type File struct {
	path string
	lock *flock.Flock
}

// DefaultPath returns the pid file location in the user's runtime
// directory, falling back to the temp directory.
func DefaultPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, pidFile)
	}

	return filepath.Join(os.TempDir(), pidFile)
}

// Acquire locks path and writes the current process ID to it. It fails with
// ErrAlreadyRunning when another process holds the lock.
func Acquire(path string) (*File, error) {
	errFactory := errors.New()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errFactory.Wrap(errors.ErrInternal, err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errFactory.Wrapf(errors.ErrInternal, err, "failed to lock %s", path)
	}
	if !ok {
		if other, err := Read(path); err == nil {
			return nil, errFactory.WithData(errors.ErrAlreadyRunning, "pid "+strconv.Itoa(other))
		}
		return nil, errFactory.New(errors.ErrAlreadyRunning)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		_ = lock.Unlock()
		return nil, errFactory.Wrap(errors.ErrInternal, err)
	}

	return &File{path: path, lock: lock}, nil
}

// Read returns the process ID stored in the pid file at path.
func Read(path string) (int, error) {
	errFactory := errors.New()

	bytes, err := os.ReadFile(path)
	if err != nil {
		return 0, errFactory.Wrap(errors.ErrInternal, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
	if err != nil {
		return 0, errFactory.Wrap(errors.ErrInternal, err)
	}

	return pid, nil
}

// Release removes the pid file and drops the lock.
func (f *File) Release() error {
	errFactory := errors.New()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		_ = f.lock.Unlock()
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := f.lock.Unlock(); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func (f *File) Path() string {
	return f.path
}
