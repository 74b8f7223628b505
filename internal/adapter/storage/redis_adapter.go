package storage

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/rojasecr/MarketplaceQL/internal/core/domain"
)

const stockKeyPrefix = "stock:"

// Decrements every counter or none. KEYS are the stock keys, ARGV the
// matching quantities. Returns the 1-based indexes of keys whose counters
// fall short; keys with no counter are skipped and left to the database.
var batchDecrementScript = redis.NewScript(`
local short = {}
for i = 1, #KEYS do
	local current = redis.call('GET', KEYS[i])
	if current and tonumber(current) < tonumber(ARGV[i]) then
		short[#short + 1] = i
	end
end
if #short > 0 then
	return short
end
for i = 1, #KEYS do
	if redis.call('EXISTS', KEYS[i]) == 1 then
		redis.call('DECRBY', KEYS[i], ARGV[i])
	end
end
return {}
`)

// Restores counters after a failed database write. Only existing counters
// are touched so a rollback never materializes a key the mirror never held.
var batchIncrementScript = redis.NewScript(`
for i = 1, #KEYS do
	if redis.call('EXISTS', KEYS[i]) == 1 then
		redis.call('INCRBY', KEYS[i], ARGV[i])
	end
end
return 1
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) DecrementStock(ctx context.Context, demand domain.Demand) ([]string, error) {
	keys, argv, ids := demandArgs(demand)

	result, err := batchDecrementScript.Run(ctx, r.client, keys, argv...).Int64Slice()
	if err != nil {
		return nil, err
	}

	short := make([]string, 0, len(result))
	for _, idx := range result {
		short = append(short, ids[idx-1])
	}
	return short, nil
}

func (r *RedisAdapter) IncrementStock(ctx context.Context, demand domain.Demand) error {
	keys, argv, _ := demandArgs(demand)
	return batchIncrementScript.Run(ctx, r.client, keys, argv...).Err()
}

func (r *RedisAdapter) SetStock(ctx context.Context, productID string, quantity int) error {
	return r.client.Set(ctx, stockKeyPrefix+productID, quantity, 0).Err()
}

func demandArgs(demand domain.Demand) (keys []string, argv []interface{}, ids []string) {
	ids = demand.ProductIDs()
	keys = make([]string, len(ids))
	argv = make([]interface{}, len(ids))
	for i, id := range ids {
		keys[i] = stockKeyPrefix + id
		argv[i] = demand[id]
	}
	return keys, argv, ids
}
