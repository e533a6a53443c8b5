package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RetentionLockKey — ключ advisory lock для janitor'а.
const RetentionLockKey int64 = 424242

// TryAdvisoryLock пытается взять session-level advisory lock.
//
// Lock живёт на выделенном соединении пула; unlock снимает его
// и возвращает соединение. Если lock занят, acquired == false.
func TryAdvisoryLock(ctx context.Context, pool *pgxpool.Pool, key int64) (unlock func(), acquired bool, err error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock = func() {
		_, _ = conn.Exec(context.Background(), "select pg_advisory_unlock($1)", key)
		conn.Release()
	}
	return unlock, true, nil
}
