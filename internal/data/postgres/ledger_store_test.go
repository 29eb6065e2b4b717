package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castilhosApc/financeiro-ledger/internal/domain/posting"
)

// mockTxRunner drives LedgerStore transactions against a pgxmock pool so
// the statement order inside the transaction can be asserted.
type mockTxRunner struct {
	pool pgxmock.PgxPoolIface
}

func (r mockTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func newLedgerStoreForTest(t *testing.T) (*LedgerStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := newTestLogger()
	store := &LedgerStore{
		db:       mockTxRunner{pool: mock},
		postings: &PostingRepository{querier: mock, logger: logger},
		outbox:   &OutboxRepository{querier: mock, logger: logger},
		logger:   logger,
	}
	return store, mock
}

const (
	lockOwnerQuery   = `SELECT pg_advisory_xact_lock\(hashtextextended\(\$1, 0\)\)`
	listHistoryQuery = `ORDER BY occurred_at ASC, created_at ASC, id ASC`
)

func TestLedgerStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("GuardRunsOnLockedHistoryBeforeTheWrite", func(t *testing.T) {
		store, mock := newLedgerStoreForTest(t)

		existing := testPosting(t)
		p, err := posting.New(existing.OwnerID, posting.KindWithdraw, 500, time.Now().UTC())
		require.NoError(t, err)

		// pgxmock enforces this order: the history read may only happen
		// after the advisory lock is held, and the insert only after the
		// guard has passed.
		mock.ExpectBegin()
		mock.ExpectExec(lockOwnerQuery).
			WithArgs(p.OwnerID.String()).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectQuery(listHistoryQuery).
			WithArgs(p.OwnerID).
			WillReturnRows(postingRows(existing))
		mock.ExpectExec(`INSERT INTO postings`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery(`INSERT INTO audit_outbox`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectCommit()

		var seen []uuid.UUID
		err = store.Create(ctx, p, func(history []*posting.Posting) error {
			for _, h := range history {
				seen = append(seen, h.ID)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{existing.ID}, seen, "guard must see the in-transaction history")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GuardRejectionRollsBackWithoutWriting", func(t *testing.T) {
		store, mock := newLedgerStoreForTest(t)

		existing := testPosting(t)
		p, err := posting.New(existing.OwnerID, posting.KindWithdraw, 99999, time.Now().UTC())
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(lockOwnerQuery).
			WithArgs(p.OwnerID.String()).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectQuery(listHistoryQuery).
			WithArgs(p.OwnerID).
			WillReturnRows(postingRows(existing))
		mock.ExpectRollback()

		rejected := assert.AnError
		err = store.Create(ctx, p, func([]*posting.Posting) error { return rejected })
		assert.ErrorIs(t, err, rejected)
		assert.NoError(t, mock.ExpectationsWereMet(), "a rejected guard must reach rollback with no insert in between")
	})

	t.Run("NilGuardSkipsTheHistoryRead", func(t *testing.T) {
		store, mock := newLedgerStoreForTest(t)
		p := testPosting(t)

		mock.ExpectBegin()
		mock.ExpectExec(lockOwnerQuery).
			WithArgs(p.OwnerID.String()).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectExec(`INSERT INTO postings`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery(`INSERT INTO audit_outbox`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectCommit()

		require.NoError(t, store.Create(ctx, p, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, mock := newLedgerStoreForTest(t)

	existing := testPosting(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE id = \$1`).
		WithArgs(existing.ID).
		WillReturnRows(postingRows(existing))
	mock.ExpectExec(lockOwnerQuery).
		WithArgs(existing.OwnerID.String()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(listHistoryQuery).
		WithArgs(existing.OwnerID).
		WillReturnRows(postingRows(existing))
	mock.ExpectExec(`DELETE FROM postings`).
		WithArgs(existing.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`INSERT INTO audit_outbox`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	guardCalled := false
	err := store.Delete(ctx, existing.ID, func(history []*posting.Posting) error {
		guardCalled = true
		require.Len(t, history, 1)
		assert.Equal(t, existing.ID, history[0].ID)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, guardCalled)
	assert.NoError(t, mock.ExpectationsWereMet())
}
