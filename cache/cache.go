package cache

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// DefaultTTL is how long a cached page stays valid when no TTL is given.
const DefaultTTL = time.Hour

// PageCache stores rendered snapshot pages per user. Every user has a
// generation; Invalidate bumps it, which hides all entries written under
// older generations at once.
//
// Get returns the generation it looked under. Callers that fill a miss pass
// that generation back to Put, so a page read before an Invalidate can never
// become visible after it.
type PageCache interface {
	Get(ctx context.Context, userID uint, subKey string) (value []byte, gen int64, ok bool, err error)
	Put(ctx context.Context, userID uint, gen int64, subKey string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, userID uint) error
}

// SubKey builds the per-user entry name from the query parameters and the
// page. url.Values.Encode sorts keys, so equal queries give equal keys.
func SubKey(params url.Values, page int) string {
	return params.Encode() + "#page=" + strconv.Itoa(page)
}

// NopPageCache never stores anything.
type NopPageCache struct{}

func (NopPageCache) Get(context.Context, uint, string) ([]byte, int64, bool, error) {
	return nil, 0, false, nil
}

func (NopPageCache) Put(context.Context, uint, int64, string, []byte, time.Duration) error { return nil }

func (NopPageCache) Invalidate(context.Context, uint) error { return nil }
