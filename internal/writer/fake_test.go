package writer

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB records queued statements. Every insert affects one row unless its
// first argument is in conflict.
type fakeDB struct {
	mu       sync.Mutex
	queries  []*pgx.QueuedQuery
	conflict map[any]bool
	err      error
}

func newFakeDB() *fakeDB {
	return &fakeDB{conflict: make(map[any]bool)}
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, b.QueuedQueries...)
	return &fakeResults{db: f, queries: b.QueuedQueries}
}

func (f *fakeDB) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeDB) args(i int) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[i].Arguments
}

type fakeResults struct {
	db      *fakeDB
	queries []*pgx.QueuedQuery
	next    int
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	if r.db.err != nil {
		return pgconn.CommandTag{}, r.db.err
	}
	if r.next >= len(r.queries) {
		return pgconn.CommandTag{}, errors.New("no more results")
	}
	q := r.queries[r.next]
	r.next++
	if len(q.Arguments) > 0 && r.db.conflict[q.Arguments[0]] {
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeResults) Query() (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeResults) QueryRow() pgx.Row {
	return nil
}

func (r *fakeResults) Close() error {
	return nil
}
