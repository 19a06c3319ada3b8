package lang

import (
	"context"
	"encoding/binary"
	"log/slog"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// globalCache stores parsed templates keyed by a hash of source and options.
var globalCache sync.Map

// state tracks the parse of one cache entry.
type state struct {
	once sync.Once
	src  string
	tmpl *Template
	err  error
}

// cacheKey hashes the template source together with every option that
// changes the parse result.
func cacheKey(src string, o options) string {
	var opt [8]byte

	binary.LittleEndian.PutUint64(opt[:], uint64(int64(o.maxDepth)))

	sourceHash := xxh3.Hash([]byte(src))
	optsHash := xxh3.Hash(opt[:])

	return strconv.FormatUint(sourceHash^optsHash, 36)
}

// parseCached parses src once per distinct key and shares the result.
func parseCached(ctx context.Context, src string, o options) (*Template, error) {
	key := cacheKey(src, o)

	value, hit := globalCache.LoadOrStore(key, &state{src: src})

	entry, ok := value.(*state)
	if !ok {
		return parse(ctx, src, o)
	}

	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("key", key),
		slog.Bool("cache_hit", hit),
	)

	// Hash collision: never return another source's template.
	if entry.src != src {
		return parse(ctx, src, o)
	}

	entry.once.Do(func() {
		entry.tmpl, entry.err = parse(ctx, src, o)
	})

	return entry.tmpl, entry.err
}

// ClearCache removes all cached templates.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() {
	globalCache.Clear()
}

// cacheLen reports the number of cached entries.
func cacheLen() int {
	n := 0

	globalCache.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}
