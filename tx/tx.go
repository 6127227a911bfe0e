package tx

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	sdk "github.com/wormhole-project/sdk"
	"github.com/wormhole-project/sdk/conn"
)

const (
	// DefaultMaxRetries bounds the retry budget when none is configured.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the base backoff delay when none is configured.
	DefaultRetryDelay = 100 * time.Millisecond

	// DefaultSavepoint is the savepoint name used when none is given.
	DefaultSavepoint = "sp"
)

var (
	// ErrRetriesExhausted is returned once the retry budget is consumed; it
	// wraps the last observed conflict.
	ErrRetriesExhausted = errors.New("transaction retries exhausted")

	// ErrInvalidSavepoint is returned for savepoint names that are not
	// plain identifiers. Names are interpolated into statements, so
	// anything else must be rejected.
	ErrInvalidSavepoint = errors.New("savepoint name is invalid")

	// isSavepointNameValid restricts savepoint names to identifier form.
	isSavepointNameValid = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// conflictMarkers lists the message substrings classified as transient
// contention. Matching is case-insensitive. The list is isolated behind
// Retryable so structured driver error codes can replace it without
// touching the retry loop.
var conflictMarkers = []string{
	"serialization failure",
	"deadlock detected",
	"cannot execute",
	"read-only transaction",
	"could not serialize",
}

// Retryable reports whether err is a conflict-classified failure eligible
// for retry.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range conflictMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Config controls the retry behavior of Run.
type Config struct {
	// MaxRetries bounds how many times a conflict-classified failure is
	// retried. Zero means DefaultMaxRetries; a negative value disables
	// retries.
	MaxRetries int

	// RetryDelay is the base backoff delay; attempt n sleeps
	// RetryDelay * 2^(n-1). Zero means DefaultRetryDelay.
	RetryDelay time.Duration

	// Logger receives retry events. Defaults to a nop logger.
	Logger *zap.Logger

	// Sleep overrides the backoff sleep between attempts.
	Sleep func(time.Duration)
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	return c
}

// Run executes fn under commit/rollback discipline. Every attempt starts
// from a clean state (any stray transaction is rolled back first). A clean
// completion commits; a conflict-classified failure rolls back, sleeps with
// exponential backoff, and reruns fn from the top until the retry budget is
// exhausted; any other failure rolls back and returns unmodified with zero
// retries consumed.
func Run(c conn.Connection, cfg Config, fn func() error) error {
	if c == nil {
		return sdk.ErrNoConnection
	}
	cfg = cfg.withDefaults()

	attempt := 0
	for {
		if err := c.Rollback(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			err = c.Commit()
			if err == nil {
				return nil
			}
		}

		if rbErr := c.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		if !Retryable(err) {
			return err
		}

		attempt++
		if attempt > cfg.MaxRetries {
			return fmt.Errorf("%w after %d retries: %w", ErrRetriesExhausted, cfg.MaxRetries, err)
		}
		delay := cfg.RetryDelay * (1 << (attempt - 1))
		cfg.Logger.Warn("retrying transaction",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		cfg.Sleep(delay)
	}
}

// RunReadOnly executes fn in a read-only transaction: clean-state reset,
// SET TRANSACTION READ ONLY, fn, then commit. No retry wrapping is applied;
// read-only scopes are assumed not to hit write-conflict classes.
func RunReadOnly(c conn.Connection, fn func() error) error {
	if c == nil {
		return sdk.ErrNoConnection
	}
	if err := c.Rollback(); err != nil {
		return err
	}

	err := func() error {
		if _, err := c.Exec("SET TRANSACTION READ ONLY"); err != nil {
			return err
		}
		if err := fn(); err != nil {
			return err
		}
		return c.Commit()
	}()
	if err != nil {
		if rbErr := c.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

// Savepoint runs fn inside a named savepoint on the enclosing transaction.
// On clean completion the savepoint is released; on failure it is rolled
// back to and the original error returned unchanged, leaving the enclosing
// transaction open. Classification and retry stay with the enclosing scope.
func Savepoint(c conn.Connection, name string, fn func() error) error {
	if c == nil {
		return sdk.ErrNoConnection
	}
	if name == "" {
		name = DefaultSavepoint
	}
	if !isSavepointNameValid.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSavepoint, name)
	}

	if _, err := c.Exec("SAVEPOINT " + name); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if _, rbErr := c.Exec("ROLLBACK TO SAVEPOINT " + name); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	_, err := c.Exec("RELEASE SAVEPOINT " + name)
	return err
}
