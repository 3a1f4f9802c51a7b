package blockcache

// errors.go implements the error taxonomy from spec.md §7:
// ConfigurationError (construction-time only), LoadError (surfaced
// verbatim from caller loaders, never wrapped), and NotFound (not an
// error at all — represented by a lookup returning ok=false).
//
// Grounded on the teacher's pkg/config.go sentinel error values
// (errInvalidCap, errInvalidTTL, errInvalidShards).
//
// © 2025 dfsblock/cache authors. MIT License.

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// ConfigError reports a rejected Configuration. It is the only error
// kind the cache ever constructs itself; every other error returned from
// the public API is a loader's error, passed through unmodified.
type ConfigError struct {
	Field string
	Got   any
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("blockcache: invalid configuration field %q: %s (got %s)",
		e.Field, e.Cause, humanizeAny(e.Got))
}

// Unwrap exposes the underlying sentinel so callers can
// errors.Is(err, blockcache.ErrInvalidBlockSize) etc.
func (e *ConfigError) Unwrap() error { return e.Cause }

// Sentinel values so callers can errors.Is against a specific failure
// without string-matching ConfigError.Error().
var (
	ErrInvalidBlockSize   = errors.New("blockcache: block size must be a power of two greater than zero")
	ErrInvalidBlockLimit  = errors.New("blockcache: block limit must be >= block size")
	ErrInvalidConcurrency = errors.New("blockcache: concurrency level must be > 0")
	ErrInvalidStreamRatio = errors.New("blockcache: stream ratio must be in (0, 1]")
	ErrInvalidTableSize   = errors.New("blockcache: derived hash table size must be >= 1")
)

func configError(field string, sentinel error, got any) error {
	return &ConfigError{Field: field, Got: got, Cause: sentinel}
}

func humanizeAny(v any) string {
	switch n := v.(type) {
	case int64:
		return humanize.Comma(n)
	case int32:
		return humanize.Comma(int64(n))
	case int:
		return humanize.Comma(int64(n))
	case float64:
		return fmt.Sprintf("%.4f", n)
	default:
		return fmt.Sprintf("%v", v)
	}
}
