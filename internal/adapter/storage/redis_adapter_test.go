package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rojasecr/MarketplaceQL/internal/core/domain"
)

func getRedis(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return rdb
}

func seedMirror(t *testing.T, adapter *RedisAdapter, quantity int) string {
	t.Helper()
	id := uuid.NewString()
	if err := adapter.SetStock(context.Background(), id, quantity); err != nil {
		t.Fatalf("SetStock failed: %v", err)
	}
	return id
}

func mirrorStock(t *testing.T, rdb *redis.Client, productID string) int {
	t.Helper()
	val, err := rdb.Get(context.Background(), stockKeyPrefix+productID).Int()
	if err != nil {
		t.Fatalf("failed to read mirror: %v", err)
	}
	return val
}

func TestBatchDecrement_AllApplied(t *testing.T) {
	rdb := getRedis(t)
	defer rdb.Close()
	adapter := NewRedisAdapter(rdb)

	p1 := seedMirror(t, adapter, 5)
	p2 := seedMirror(t, adapter, 5)

	short, err := adapter.DecrementStock(context.Background(), domain.Demand{p1: 2, p2: 1})
	if err != nil {
		t.Fatalf("DecrementStock failed: %v", err)
	}
	if len(short) != 0 {
		t.Fatalf("expected no shortfall, got %v", short)
	}
	if got := mirrorStock(t, rdb, p1); got != 3 {
		t.Errorf("expected p1 mirror 3, got %d", got)
	}
	if got := mirrorStock(t, rdb, p2); got != 4 {
		t.Errorf("expected p2 mirror 4, got %d", got)
	}
}

func TestBatchDecrement_AllOrNothing(t *testing.T) {
	rdb := getRedis(t)
	defer rdb.Close()
	adapter := NewRedisAdapter(rdb)

	covered := seedMirror(t, adapter, 5)
	short1 := seedMirror(t, adapter, 1)
	short2 := seedMirror(t, adapter, 0)

	short, err := adapter.DecrementStock(context.Background(), domain.Demand{
		covered: 1,
		short1:  2,
		short2:  1,
	})
	if err != nil {
		t.Fatalf("DecrementStock failed: %v", err)
	}

	if len(short) != 2 {
		t.Fatalf("expected both short products reported, got %v", short)
	}
	// Nothing may be decremented on shortfall, the covered key included.
	if got := mirrorStock(t, rdb, covered); got != 5 {
		t.Errorf("expected covered mirror untouched at 5, got %d", got)
	}
	if got := mirrorStock(t, rdb, short1); got != 1 {
		t.Errorf("expected short1 mirror untouched at 1, got %d", got)
	}
}

func TestBatchDecrement_UnmirroredProductPasses(t *testing.T) {
	rdb := getRedis(t)
	defer rdb.Close()
	adapter := NewRedisAdapter(rdb)

	mirrored := seedMirror(t, adapter, 3)
	unmirrored := uuid.NewString()

	short, err := adapter.DecrementStock(context.Background(), domain.Demand{
		mirrored:   1,
		unmirrored: 4,
	})
	if err != nil {
		t.Fatalf("DecrementStock failed: %v", err)
	}
	if len(short) != 0 {
		t.Fatalf("unmirrored products must fall through to the database, got %v", short)
	}
	if got := mirrorStock(t, rdb, mirrored); got != 2 {
		t.Errorf("expected mirrored counter 2, got %d", got)
	}
	// The unmirrored key must not have been materialized.
	if exists, _ := rdb.Exists(context.Background(), stockKeyPrefix+unmirrored).Result(); exists != 0 {
		t.Error("unmirrored key must not be created")
	}
}

func TestIncrementStock_RestoresOnlyExistingCounters(t *testing.T) {
	rdb := getRedis(t)
	defer rdb.Close()
	adapter := NewRedisAdapter(rdb)

	mirrored := seedMirror(t, adapter, 2)
	unmirrored := uuid.NewString()

	err := adapter.IncrementStock(context.Background(), domain.Demand{
		mirrored:   3,
		unmirrored: 3,
	})
	if err != nil {
		t.Fatalf("IncrementStock failed: %v", err)
	}

	if got := mirrorStock(t, rdb, mirrored); got != 5 {
		t.Errorf("expected mirror 5, got %d", got)
	}
	if exists, _ := rdb.Exists(context.Background(), stockKeyPrefix+unmirrored).Result(); exists != 0 {
		t.Error("rollback must not materialize unmirrored keys")
	}
}
