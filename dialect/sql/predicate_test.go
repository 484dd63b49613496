package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit/dialect"
)

func TestCombinators(t *testing.T) {
	t.Run("empty and is nil", func(t *testing.T) {
		assert.Nil(t, And())
	})
	t.Run("single passes through", func(t *testing.T) {
		p := EQ("a", 1)
		assert.Same(t, p, And(p))
		assert.Same(t, p, Or(p))
	})
	t.Run("nils are skipped", func(t *testing.T) {
		query, args := Dialect(dialect.Postgres).
			Select("id").
			From(Table("t")).
			Where(And(nil, EQ("a", 1), nil)).
			Query()
		assert.Equal(t, `SELECT "id" FROM "t" WHERE "a" = $1`, query)
		assert.Equal(t, []any{1}, args)
	})
	t.Run("error propagates", func(t *testing.T) {
		bad := P(Param(1)) // not boolean
		require.Error(t, bad.err)
		assert.Error(t, And(EQ("a", 1), bad).err)
		assert.Error(t, Or(bad, EQ("a", 1)).err)
		assert.Error(t, Not(bad).err)
	})
	t.Run("not nil passes through", func(t *testing.T) {
		assert.Nil(t, Not(nil))
	})
	t.Run("and binds tighter than or", func(t *testing.T) {
		query, _ := Dialect(dialect.Postgres).
			Select("id").
			From(Table("t")).
			Where(Or(
				And(EQ("a", 1), EQ("b", 2)),
				EQ("c", 3),
			)).
			Query()
		assert.Equal(t, `SELECT "id" FROM "t" WHERE "a" = $1 AND "b" = $2 OR "c" = $3`, query)
	})
}

func TestColumnsEQ(t *testing.T) {
	query, args := Dialect(dialect.Postgres).
		Select("*").
		From(Table("users")).
		Where(ColumnsEQ("users.manager_id", "users.id")).
		Query()
	assert.Equal(t, `SELECT * FROM "users" WHERE "users"."manager_id" = "users"."id"`, query)
	assert.Nil(t, args)
}

func TestInSubqueryError(t *testing.T) {
	// A broken subquery surfaces through the outer builder.
	sub := Dialect(dialect.Postgres).Select("id") // missing FROM
	s := Dialect(dialect.Postgres).
		Select("*").
		From(Table("users")).
		Where(In("id", sub))
	_, _ = s.Query()
	assert.ErrorContains(t, s.Err(), "missing FROM table")
}

func TestEqualFoldEscapes(t *testing.T) {
	query, args := Dialect(dialect.Postgres).
		Select("id").
		From(Table("users")).
		Where(EqualFold("name", "100%_a")).
		Query()
	assert.Equal(t, `SELECT "id" FROM "users" WHERE "name" ILIKE $1`, query)
	assert.Equal(t, []any{`100\%\_a`}, args)
}
