package credentials

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// Env reads slots from process environment variables. Set only affects the
// current process.
type Env struct{}

func (Env) Get(_ context.Context, slot string) (string, bool, error) {
	v, ok := os.LookupEnv(EnvName(slot))
	return v, ok && v != "", nil
}

func (Env) Set(_ context.Context, slot, secret string) error {
	if slot == "" {
		return ErrEmptySlot
	}
	return os.Setenv(EnvName(slot), secret)
}

// File keeps secrets in a dotenv file using the same variable names as Env,
// so one file serves both godotenv.Load and this store.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Get(_ context.Context, slot string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[EnvName(slot)]
	return v, ok && v != "", nil
}

func (f *File) Set(_ context.Context, slot, secret string) error {
	if slot == "" {
		return ErrEmptySlot
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[EnvName(slot)] = secret
	if err := godotenv.Write(values, f.path); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return os.Chmod(f.path, 0o600)
}

func (f *File) read() (map[string]string, error) {
	if _, err := os.Stat(f.path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	values, err := godotenv.Read(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return values, nil
}
