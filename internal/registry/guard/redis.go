package guard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// counterKey holds the live ordering counter. A missing key reads as 0 so a
// fresh deployment starts at counter zero.
const counterKey = "namegate:ordering:counter"

// casScript compares the live counter with the caller's observed value and
// increments only on match. Running as a single script keeps the
// compare-and-increment atomic across service instances.
var casScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur == tonumber(ARGV[1]) then
	redis.call('SET', KEYS[1], cur + 1)
	return 1
end
return 0
`)

// Redis is a Guard shared across service instances.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (g *Redis) Current(ctx context.Context) (uint64, error) {
	val, err := g.client.Get(ctx, counterKey).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read ordering counter: %w", err)
	}
	return val, nil
}

func (g *Redis) CompareAndIncrement(ctx context.Context, observed uint64) error {
	ok, err := casScript.Run(ctx, g.client, []string{counterKey}, observed).Int()
	if err != nil {
		return fmt.Errorf("compare-and-increment ordering counter: %w", err)
	}
	if ok != 1 {
		return ErrConflict
	}
	return nil
}
