// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"os"
	"path/filepath"
)

// funcChecker adapts a plain function to the Checker interface.
type funcChecker struct {
	name string
	fn   func(ctx context.Context) error
}

// NewFuncChecker wraps fn as a named checker. A nil error is healthy.
func NewFuncChecker(name string, fn func(ctx context.Context) error) Checker {
	return &funcChecker{name: name, fn: fn}
}

func (c *funcChecker) Name() string { return c.name }

func (c *funcChecker) Check(ctx context.Context) CheckResult {
	if err := c.fn(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// NewWritableDirChecker verifies a directory exists and is writable by
// creating and removing a probe file.
func NewWritableDirChecker(name, dir string) Checker {
	return NewFuncChecker(name, func(_ context.Context) error {
		probe := filepath.Join(dir, ".healthprobe")
		f, err := os.Create(probe) // #nosec G304 -- dir comes from validated config
		if err != nil {
			return err
		}
		_ = f.Close()
		return os.Remove(probe)
	})
}

// NewFileChecker verifies a regular file exists and is readable.
func NewFileChecker(name, path string) Checker {
	return NewFuncChecker(name, func(_ context.Context) error {
		f, err := os.Open(path) // #nosec G304 -- path comes from validated config
		if err != nil {
			return err
		}
		return f.Close()
	})
}
