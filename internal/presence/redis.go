package presence

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const onlineKey = "presence:online"

// Redis shares presence between instances through a hash of connection counts.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, key: onlineKey}
}

func (r *Redis) Connect(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.HIncrBy(ctx, r.key, userID, 1).Result()
	if err != nil {
		return false, fmt.Errorf("presence connect: %w", err)
	}
	return n == 1, nil
}

// disconnectScript decrements and clears the count in one step so a concurrent
// Connect can never be deleted.
var disconnectScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if n <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
end
return n
`)

func (r *Redis) Disconnect(ctx context.Context, userID string) (bool, error) {
	n, err := disconnectScript.Run(ctx, r.client, []string{r.key}, userID).Int64()
	if err != nil {
		return false, fmt.Errorf("presence disconnect: %w", err)
	}
	return n == 0, nil
}

func (r *Redis) Online(ctx context.Context) ([]string, error) {
	ids, err := r.client.HKeys(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("presence list: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
