package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	notified []string
}

func (n *recordingNotifier) Notify(_ context.Context, collection string) error {
	n.notified = append(n.notified, collection)
	return nil
}

func (n *recordingNotifier) Listen(context.Context, string) (<-chan struct{}, func(), error) {
	return make(chan struct{}), func() {}, nil
}

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock, *recordingNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	n := &recordingNotifier{}
	s := NewStore(sqlx.NewDb(db, "pgx"), n)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return s, mock, n
}

func TestCommitRunsOpsInOneTransaction(t *testing.T) {
	s, mock, n := setupStore(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`data = documents.data || EXCLUDED.data`)).
		WithArgs("inventory", "A", `{"name":"A"}`, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`data = EXCLUDED.data,`)).
		WithArgs("stock_movements", "m1", `{"delta":10}`, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`to_jsonb(COALESCE((data->>$3)::numeric, (data->>$6)::numeric, 0) + $4)`)).
		WithArgs("inventory", "A", "stock", int64(10), now, "currentStock").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b := s.Batch()
	b.Set("inventory", "A", map[string]any{"name": "A"}, true)
	b.Set("stock_movements", "m1", map[string]any{"delta": 10}, false)
	b.Increment("inventory", "A", "stock", 10, "currentStock")
	require.NoError(t, b.Commit(context.Background()))

	assert.Equal(t, []string{"inventory", "stock_movements"}, n.notified)
}

func TestIncrementWithoutFallback(t *testing.T) {
	s, mock, _ := setupStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`to_jsonb(COALESCE((data->>$3)::numeric, 0) + $4)`)).
		WithArgs("inventory", "A", "stock", int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b := s.Batch()
	b.Increment("inventory", "A", "stock", 1)
	require.NoError(t, b.Commit(context.Background()))
}

func TestIncrementMissingRowRollsBack(t *testing.T) {
	s, mock, n := setupStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO documents`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE documents`)).
		WithArgs("inventory", "ghost", "stock", int64(5), sqlmock.AnyArg(), "currentStock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	b := s.Batch()
	b.Set("inventory", "A", map[string]any{"name": "A"}, true)
	b.Increment("inventory", "ghost", "stock", 5, "currentStock")
	err := b.Commit(context.Background())

	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.Empty(t, n.notified)
}

func TestBatchOverLimitNeverOpensTransaction(t *testing.T) {
	s, _, _ := setupStore(t)

	b := s.Batch()
	for i := 0; i <= docstore.MaxBatchOps; i++ {
		b.Increment("inventory", "A", "stock", 1)
	}
	assert.ErrorIs(t, b.Commit(context.Background()), docstore.ErrBatchTooLarge)
}

func TestQueryBuildsFilterOrderAndLimit(t *testing.T) {
	s, mock, _ := setupStore(t)
	updated := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "data", "update_time"}).
		AddRow("o2", []byte(`{"status":"open","createdAt":"2024-05-01T09:00:00.000000Z"}`), updated).
		AddRow("o1", []byte(`{"status":"open"}`), updated)
	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE collection = $1 AND data @> $2::jsonb ORDER BY data->$3 DESC NULLS LAST, id LIMIT 5`)).
		WithArgs("orders", `{"status":"open"}`, "createdAt").
		WillReturnRows(rows)

	docs, err := s.Query(context.Background(), docstore.Query{
		Collection: "orders",
		Where:      []docstore.Filter{{Field: "status", Value: "open"}},
		OrderBy:    "createdAt",
		Direction:  docstore.Desc,
		Limit:      5,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "o2", docs[0].ID)
	assert.Equal(t, "open", docs[0].Data["status"])
	assert.Equal(t, updated, docs[1].UpdateTime)
}

func TestGetMissingDocument(t *testing.T) {
	s, mock, _ := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE collection = $1 AND id = $2`)).
		WithArgs("staff", "nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "update_time"}))

	_, err := s.Get(context.Background(), "staff", "nobody")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}
