package readmodel

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/cinecrypto/internal/database"
)

// exerciseStore runs the Store contract against s.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := "test:" + t.Name()

	if _, err := s.Load(ctx, key); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("Load on empty store: %v, want ErrSnapshotNotFound", err)
	}
	if err := s.Save(ctx, key, []byte(`{"timestamp":1}`), time.UnixMilli(1)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, key, []byte(`{"timestamp":2}`), time.UnixMilli(2)); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err := s.Load(ctx, key)
	if err != nil || string(got) != `{"timestamp":2}` {
		t.Fatalf("Load = %q, %v", got, err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLStore(t *testing.T) {
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// every pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, NewSQLStore(db))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	rdb.Del(context.Background(), "test:"+t.Name())
	exerciseStore(t, NewRedisStore(rdb))
}
