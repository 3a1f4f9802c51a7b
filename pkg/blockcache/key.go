package blockcache

// key.go defines StreamKey, the logical identity of a cacheable byte
// stream (spec.md §3 Data Model). A StreamKey carries a pre-mixed 64-bit
// hash (so further mixing — folding in a block position for the hash
// table's slot() function — composes cheaply) and a small nonnegative
// integer ExtPos identifying which packfile extension the stream
// belongs to, used to index per-extension statistics arrays
// (internal/accounting).
//
// Grounded on the teacher's shard.hash(key) (pkg/cache.go), which hashed
// an arbitrary comparable K with a per-shard maphash.Seed. StreamKey
// generalizes that to a stable, pre-computed xxhash of the stream's
// identifying bytes (repository description + file name + extension),
// since the hash must remain comparable across goroutines and across
// cache reconfiguration, not just within one shard's lifetime.
//
// © 2025 dfsblock/cache authors. MIT License.

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// mixPrime is multiplied into the raw xxhash once, at construction, so
// slot() only has to add the block index to the cached hash. Adjacent
// block positions of one stream still land in the same or neighbouring
// slots; the multiplication spreads different streams, not positions.
const mixPrime = 0x9E3779B97F4A7C15 // 64-bit golden-ratio constant, odd

// StreamKey is the immutable identity of a cacheable stream: a
// repository-scoped file name plus an extension tag. Equality is
// structural; Hash is cached at construction time.
type StreamKey struct {
	id     string // repo description + "/" + file name + "." + ext, kept for equality/debugging
	hash   uint64
	extPos int
}

// NewStreamKey builds a StreamKey for a file named fileName with
// extension ext inside the repository identified by repoDesc. extPos is
// the stable per-extension position assigned by internal/extreg and is
// used only to index statistics arrays — it does not participate in
// equality (two keys with the same id always compare equal regardless
// of how extPos was assigned).
func NewStreamKey(repoDesc, fileName, ext string, extPos int) StreamKey {
	id := repoDesc + "/" + fileName + "." + ext
	h := xxhash.Sum64String(id) * mixPrime
	return StreamKey{id: id, hash: h, extPos: extPos}
}

// Hash returns the pre-mixed 64-bit hash used by HashTable.slot and the
// striped-lock index functions.
func (k StreamKey) Hash() uint64 { return k.hash }

// ExtPos returns the extension position used to index per-extension
// statistics.
func (k StreamKey) ExtPos() int { return k.extPos }

// Equal reports structural equality. Two StreamKeys with equal Hash but
// different id are NOT equal (hash collisions are resolved by this
// comparison, exactly as the teacher's shard.get does with `ent.key !=
// key`).
func (k StreamKey) Equal(other StreamKey) bool {
	return k.hash == other.hash && k.id == other.id
}

// String returns a debug representation; not part of the hashed
// identity and not stable across releases.
func (k StreamKey) String() string {
	return k.id + "#" + strconv.FormatUint(k.hash, 16)
}
