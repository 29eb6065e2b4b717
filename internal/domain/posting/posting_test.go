package posting

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	occurredAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Valid", func(t *testing.T) {
		ownerID := uuid.New()
		p, err := New(ownerID, KindDeposit, 12550, occurredAt)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, ownerID, p.OwnerID)
		assert.Equal(t, KindDeposit, p.Kind)
		assert.Equal(t, int64(12550), p.Amount)
		assert.Equal(t, DefaultCategory, p.Category)
		assert.True(t, p.OccurredAt.Equal(occurredAt))
		assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	})

	t.Run("Invalid", func(t *testing.T) {
		cases := []struct {
			name    string
			ownerID uuid.UUID
			kind    Kind
			amount  int64
			at      time.Time
			wantErr error
		}{
			{"MissingOwner", uuid.Nil, KindDeposit, 100, occurredAt, ErrMissingOwner},
			{"BadKind", uuid.New(), Kind("TRANSFER"), 100, occurredAt, ErrInvalidKind},
			{"ZeroAmount", uuid.New(), KindWithdraw, 0, occurredAt, ErrInvalidAmount},
			{"NegativeAmount", uuid.New(), KindWithdraw, -50, occurredAt, ErrInvalidAmount},
			{"ZeroOccurredAt", uuid.New(), KindDeposit, 100, time.Time{}, ErrZeroOccurredAt},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := New(tc.ownerID, tc.kind, tc.amount, tc.at)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}
	})
}

func TestSigned(t *testing.T) {
	occurredAt := time.Now()

	dep, err := New(uuid.New(), KindDeposit, 500, occurredAt)
	require.NoError(t, err)
	assert.Equal(t, int64(500), dep.Signed())
	assert.True(t, dep.IsCredit())

	wd, err := New(uuid.New(), KindWithdraw, 500, occurredAt)
	require.NoError(t, err)
	assert.Equal(t, int64(-500), wd.Signed())
	assert.False(t, wd.IsCredit())
}

func TestPatch(t *testing.T) {
	occurredAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Validate", func(t *testing.T) {
		valid := Patch{Kind: KindWithdraw, Amount: 100, OccurredAt: occurredAt}
		assert.NoError(t, valid.Validate())

		assert.ErrorIs(t, Patch{Kind: Kind("x"), Amount: 100, OccurredAt: occurredAt}.Validate(), ErrInvalidKind)
		assert.ErrorIs(t, Patch{Kind: KindDeposit, Amount: 0, OccurredAt: occurredAt}.Validate(), ErrInvalidAmount)
		assert.ErrorIs(t, Patch{Kind: KindDeposit, Amount: 100}.Validate(), ErrZeroOccurredAt)
	})

	t.Run("ApplyKeepsIdentity", func(t *testing.T) {
		existing, err := New(uuid.New(), KindDeposit, 1000, occurredAt)
		require.NoError(t, err)
		existing.IdempotencyKey = "key-1"
		existing.Description = "old"

		counterparty := uuid.New()
		later := occurredAt.Add(24 * time.Hour)
		patch := Patch{
			Kind:           KindWithdraw,
			Amount:         2000,
			CounterpartyID: &counterparty,
			Description:    "new",
			Category:       "rent",
			OccurredAt:     later,
		}

		updated := patch.Apply(existing)

		assert.Equal(t, existing.ID, updated.ID)
		assert.Equal(t, existing.OwnerID, updated.OwnerID)
		assert.Equal(t, existing.IdempotencyKey, updated.IdempotencyKey)
		assert.Equal(t, existing.CreatedAt, updated.CreatedAt)

		assert.Equal(t, KindWithdraw, updated.Kind)
		assert.Equal(t, int64(2000), updated.Amount)
		assert.Equal(t, "new", updated.Description)
		assert.Equal(t, "rent", updated.Category)
		assert.True(t, updated.OccurredAt.Equal(later))
		assert.False(t, updated.UpdatedAt.Before(existing.UpdatedAt))

		// The original is untouched.
		assert.Equal(t, KindDeposit, existing.Kind)
		assert.Equal(t, "old", existing.Description)
	})

	t.Run("ApplyDefaultsEmptyCategory", func(t *testing.T) {
		existing, err := New(uuid.New(), KindDeposit, 1000, occurredAt)
		require.NoError(t, err)
		existing.Category = "rent"

		updated := Patch{Kind: KindDeposit, Amount: 1000, OccurredAt: occurredAt}.Apply(existing)
		assert.Equal(t, DefaultCategory, updated.Category)
	})
}
