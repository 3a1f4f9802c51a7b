// Package unsafehelpers centralises small bit-twiddling helpers used to
// validate the block cache's size-related configuration. Despite the
// package name it no longer touches the `unsafe` standard-library
// package directly — the one helper that used to (a zero-allocation
// []byte-to-string conversion) was dropped once StreamKey moved to
// xxhash.Sum64String, which hashes a string argument directly. The name
// is kept because this remains the repository's one sanctioned spot for
// this class of low-level numeric trick, matching where the teacher's
// equivalent helpers lived.
//
// © 2025 dfsblock/cache authors. MIT License.

package unsafehelpers

// IsPowerOfTwo returns true if x is a power of two (exactly one bit
// set). Used by Config validation to reject a non-power-of-two
// BlockSize (spec.md §6).
func IsPowerOfTwo(x int64) bool {
	return x > 0 && (x&(x-1)) == 0
}
