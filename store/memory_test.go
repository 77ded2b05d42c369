package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

// runStoreTests exercises the Store contract against a fresh backend per subtest.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC) }

	t.Run("should round trip a user", func(t *testing.T) {
		s := newStore(t)
		email := "ann@example.com"

		created, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000001", Email: &email})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, GenderUnknown, created.Gender)

		fetched, err := s.GetUser(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Name, fetched.Name)
		assert.Equal(t, created.Phone, fetched.Phone)
		require.NotNil(t, fetched.Email)
		assert.Equal(t, email, *fetched.Email)
	})

	t.Run("should reject a duplicate phone", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000002"})
		require.NoError(t, err)

		_, err = s.CreateUser(ctx, User{Name: "Bob", Phone: "13800000002"})
		assert.True(t, errors.Is(err, ErrConflict), "expected ErrConflict, got %v", err)
	})

	t.Run("should reject an invalid user", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateUser(ctx, User{Name: "  ", Phone: "1"})

		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "name", validation.Field)

		_, err = s.CreateUser(ctx, User{Name: "Ann", Phone: "1", Gender: "robot"})
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "gender", validation.Field)
	})

	t.Run("should patch only the given user fields", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000003", Gender: GenderFemale})
		require.NoError(t, err)

		name := "Annie"
		updated, err := s.UpdateUser(ctx, created.ID, UserPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Annie", updated.Name)
		assert.Equal(t, "13800000003", updated.Phone)
		assert.Equal(t, GenderFemale, updated.Gender)
	})

	t.Run("should return not found for a missing user", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetUser(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)

		name := "x"
		_, err = s.UpdateUser(ctx, uuid.New(), UserPatch{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, s.DeleteUser(ctx, uuid.New()), ErrNotFound)
	})

	t.Run("should hide a deleted user and their records", func(t *testing.T) {
		s := newStore(t)
		user, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000004"})
		require.NoError(t, err)
		record, err := s.CreateConsumption(ctx, Consumption{
			UserID: user.ID, Amount: decimal.NewFromInt(10), Category: "食品", TransactionTime: day(2),
		})
		require.NoError(t, err)

		require.NoError(t, s.DeleteUser(ctx, user.ID))

		_, err = s.GetUser(ctx, user.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetConsumption(ctx, record.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		// the phone is free again
		_, err = s.CreateUser(ctx, User{Name: "Ann again", Phone: "13800000004"})
		assert.NoError(t, err)
	})

	t.Run("should page users by name", func(t *testing.T) {
		s := newStore(t)
		for i, name := range []string{"Cid", "Ann", "Bob"} {
			_, err := s.CreateUser(ctx, User{Name: name, Phone: "1390000000" + string(rune('0'+i))})
			require.NoError(t, err)
		}

		users, total, err := s.ListUsers(ctx, Page{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, users, 2)
		assert.Equal(t, "Ann", users[0].Name)
		assert.Equal(t, "Bob", users[1].Name)

		users, _, err = s.ListUsers(ctx, Page{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Cid", users[0].Name)
	})

	t.Run("should round trip a record", func(t *testing.T) {
		s := newStore(t)
		user, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000005"})
		require.NoError(t, err)

		in := Consumption{
			UserID:          user.ID,
			Amount:          decimal.RequireFromString("12.34"),
			Category:        "交通",
			Description:     "taxi",
			MerchantName:    "Didi",
			TransactionTime: day(5),
		}
		created, err := s.CreateConsumption(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, TypeExpense, created.TransactionType)

		fetched, err := s.GetConsumption(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, in.UserID, fetched.UserID)
		assert.True(t, in.Amount.Equal(fetched.Amount), "amount %s != %s", in.Amount, fetched.Amount)
		assert.Equal(t, in.Category, fetched.Category)
		assert.Equal(t, in.Description, fetched.Description)
		assert.Equal(t, in.MerchantName, fetched.MerchantName)
		assert.True(t, in.TransactionTime.Equal(fetched.TransactionTime))
	})

	t.Run("should reject a negative amount", func(t *testing.T) {
		s := newStore(t)
		user, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000006"})
		require.NoError(t, err)

		_, err = s.CreateConsumption(ctx, Consumption{
			UserID: user.ID, Amount: decimal.NewFromInt(-1), TransactionTime: day(1),
		})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "amount", validation.Field)
	})

	t.Run("should reject amounts a two-digit money column cannot hold", func(t *testing.T) {
		s := newStore(t)
		user, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000009"})
		require.NoError(t, err)

		for _, amount := range []string{"0.005", "12.345", "10000000000", "9999999999.999"} {
			_, err := s.CreateConsumption(ctx, Consumption{
				UserID: user.ID, Amount: decimal.RequireFromString(amount), TransactionTime: day(1),
			})
			var validation *ValidationError
			require.ErrorAs(t, err, &validation, amount)
			assert.Equal(t, "amount", validation.Field, amount)
		}

		for _, amount := range []string{"0.01", "12.50", "12.500", "9999999999.99"} {
			created, err := s.CreateConsumption(ctx, Consumption{
				UserID: user.ID, Amount: decimal.RequireFromString(amount), TransactionTime: day(1),
			})
			require.NoError(t, err, amount)
			assert.True(t, decimal.RequireFromString(amount).Equal(created.Amount), amount)
		}
	})

	t.Run("should store categories trimmed", func(t *testing.T) {
		s := newStore(t)
		user, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000010"})
		require.NoError(t, err)

		created, err := s.CreateConsumption(ctx, Consumption{
			UserID: user.ID, Amount: decimal.NewFromInt(1), Category: " 交通 ", TransactionTime: day(1),
		})
		require.NoError(t, err)
		assert.Equal(t, "交通", created.Category)

		category := "\t餐饮 "
		updated, err := s.UpdateConsumption(ctx, created.ID, ConsumptionPatch{Category: &category})
		require.NoError(t, err)
		assert.Equal(t, "餐饮", updated.Category)
	})

	t.Run("should reject a record for a missing user", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateConsumption(ctx, Consumption{
			UserID: uuid.New(), Amount: decimal.NewFromInt(1), TransactionTime: day(1),
		})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "user_id", validation.Field)
	})

	t.Run("should patch only the given record fields", func(t *testing.T) {
		s := newStore(t)
		user, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000007"})
		require.NoError(t, err)
		created, err := s.CreateConsumption(ctx, Consumption{
			UserID: user.ID, Amount: decimal.NewFromInt(20), Category: "食品", TransactionTime: day(3),
		})
		require.NoError(t, err)

		amount := decimal.RequireFromString("25.50")
		updated, err := s.UpdateConsumption(ctx, created.ID, ConsumptionPatch{Amount: &amount})
		require.NoError(t, err)
		assert.True(t, amount.Equal(updated.Amount))
		assert.Equal(t, "食品", updated.Category)

		negative := decimal.NewFromInt(-5)
		_, err = s.UpdateConsumption(ctx, created.ID, ConsumptionPatch{Amount: &negative})
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("should return not found when deleting a missing record", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.DeleteConsumption(ctx, uuid.New()), ErrNotFound)
	})

	t.Run("should delete a record once", func(t *testing.T) {
		s := newStore(t)
		user, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000008"})
		require.NoError(t, err)
		created, err := s.CreateConsumption(ctx, Consumption{
			UserID: user.ID, Amount: decimal.NewFromInt(1), TransactionTime: day(1),
		})
		require.NoError(t, err)

		require.NoError(t, s.DeleteConsumption(ctx, created.ID))
		assert.ErrorIs(t, s.DeleteConsumption(ctx, created.ID), ErrNotFound)
	})

	t.Run("should filter and order records", func(t *testing.T) {
		s := newStore(t)
		ann, err := s.CreateUser(ctx, User{Name: "Ann", Phone: "13800000009"})
		require.NoError(t, err)
		bob, err := s.CreateUser(ctx, User{Name: "Bob", Phone: "13800000010"})
		require.NoError(t, err)

		seed := []Consumption{
			{UserID: ann.ID, Amount: decimal.NewFromInt(100), Category: "食品", TransactionTime: day(2)},
			{UserID: ann.ID, Amount: decimal.NewFromInt(50), Category: "食品", TransactionTime: day(3)},
			{UserID: ann.ID, Amount: decimal.NewFromInt(200), Category: "交通", TransactionTime: day(5)},
			{UserID: ann.ID, Amount: decimal.NewFromInt(900), Category: "工资", TransactionType: TypeIncome, TransactionTime: day(6)},
			{UserID: ann.ID, Amount: decimal.NewFromInt(70), Category: "食品", TransactionTime: day(20)},
			{UserID: bob.ID, Amount: decimal.NewFromInt(5), Category: "食品", TransactionTime: day(3)},
		}
		for _, c := range seed {
			_, err := s.CreateConsumption(ctx, c)
			require.NoError(t, err)
		}

		start, end := day(1), day(10)
		records, total, err := s.ListConsumptions(ctx, ConsumptionFilter{
			UserID: ann.ID, Start: &start, End: &end, TransactionType: TypeExpense,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, records, 3)
		assert.True(t, records[0].TransactionTime.Equal(day(5)), "expected newest first")
		assert.True(t, records[2].TransactionTime.Equal(day(2)))

		records, total, err = s.ListConsumptions(ctx, ConsumptionFilter{UserID: ann.ID, Category: "食品", Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, records, 1)
		assert.True(t, records[0].TransactionTime.Equal(day(20)))
	})
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, items, paginate(items, 0, 0))
	assert.Equal(t, []int{1, 2}, paginate(items, 2, 0))
	assert.Equal(t, []int{4, 5}, paginate(items, 10, 3))
	assert.Equal(t, []int{}, paginate(items, 2, 5))
}
