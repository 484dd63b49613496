package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit/dialect"
)

func TestSelectorQuery(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{ Query() (string, []any) }
		wantQuery string
		wantArgs  []any
	}{
		{
			name: "basic postgres",
			input: Dialect(dialect.Postgres).
				Select("id", "name").
				From(Table("users")),
			wantQuery: `SELECT "id", "name" FROM "users"`,
		},
		{
			name: "star select",
			input: Dialect(dialect.Postgres).
				Select("*").
				From(Table("users")),
			wantQuery: `SELECT * FROM "users"`,
		},
		{
			name: "basic mysql",
			input: Dialect(dialect.MySQL).
				Select("id", "name").
				From(Table("users")).
				Where(EQ("age", 30)),
			wantQuery: "SELECT `id`, `name` FROM `users` WHERE `age` = ?",
			wantArgs:  []any{30},
		},
		{
			name: "and with or group",
			input: Dialect(dialect.Postgres).
				Select("*").
				From(Table("users")).
				Where(And(
					EQ("age", 30),
					Or(EQ("name", "ariel"), EQ("name", "mashraki")),
				)),
			wantQuery: `SELECT * FROM "users" WHERE "age" = $1 AND ("name" = $2 OR "name" = $3)`,
			wantArgs:  []any{30, "ariel", "mashraki"},
		},
		{
			name: "qualified columns",
			input: Dialect(dialect.Postgres).
				Select("u.id", "u.name").
				From(Table("users").As("u")),
			wantQuery: `SELECT "u"."id", "u"."name" FROM "users" AS "u"`,
		},
		{
			name: "comparison chain",
			input: Dialect(dialect.Postgres).
				Select("id").
				From(Table("users")).
				Where(And(GT("age", 18), LTE("age", 65), NotNull("email"))),
			wantQuery: `SELECT "id" FROM "users" WHERE "age" > $1 AND "age" <= $2 AND "email" IS NOT NULL`,
			wantArgs:  []any{18, 65},
		},
		{
			name: "not",
			input: Dialect(dialect.Postgres).
				Select("id").
				From(Table("users")).
				Where(Not(EQ("status", "active"))),
			wantQuery: `SELECT "id" FROM "users" WHERE NOT ("status" = $1)`,
			wantArgs:  []any{"active"},
		},
		{
			name: "in list",
			input: Dialect(dialect.Postgres).
				Select("id").
				From(Table("users")).
				Where(In("status", "active", "pending")),
			wantQuery: `SELECT "id" FROM "users" WHERE "status" IN ($1, $2)`,
			wantArgs:  []any{"active", "pending"},
		},
		{
			name: "empty in is false",
			input: Dialect(dialect.Postgres).
				Select("id").
				From(Table("users")).
				Where(In("status")),
			wantQuery: `SELECT "id" FROM "users" WHERE FALSE`,
		},
		{
			name: "empty not in is true on sqlite",
			input: Dialect(dialect.SQLite).
				Select("id").
				From(Table("users")).
				Where(NotIn("status")),
			wantQuery: `SELECT "id" FROM "users" WHERE 1`,
		},
		{
			name: "in subquery",
			input: Dialect(dialect.Postgres).
				Select("id").
				From(Table("users")).
				Where(In("id", Dialect(dialect.Postgres).
					Select("owner_id").
					From(Table("pets")).
					Where(EQ("species", "dog")),
				)),
			wantQuery: `SELECT "id" FROM "users" WHERE "id" IN (SELECT "owner_id" FROM "pets" WHERE "species" = $1)`,
			wantArgs:  []any{"dog"},
		},
		{
			name: "string matching",
			input: Dialect(dialect.MySQL).
				Select("id").
				From(Table("users")).
				Where(Or(Contains("name", "a_b"), HasPrefix("email", "admin"))),
			wantQuery: "SELECT `id` FROM `users` WHERE `name` LIKE ? OR `email` LIKE ?",
			wantArgs:  []any{`%a\_b%`, `admin%`},
		},
		{
			name: "ilike postgres",
			input: Dialect(dialect.Postgres).
				Select("id").
				From(Table("users")).
				Where(ILike("name", "a%")),
			wantQuery: `SELECT "id" FROM "users" WHERE "name" ILIKE $1`,
			wantArgs:  []any{"a%"},
		},
		{
			name: "contains fold postgres",
			input: Dialect(dialect.Postgres).
				Select("id").
				From(Table("users")).
				Where(ContainsFold("name", "Ariel")),
			wantQuery: `SELECT "id" FROM "users" WHERE "name" ILIKE $1`,
			wantArgs:  []any{"%Ariel%"},
		},
		{
			name: "distinct group order",
			input: Dialect(dialect.Postgres).
				Select("status").
				Distinct().
				From(Table("users")).
				GroupBy("status").
				OrderBy(Desc("status")),
			wantQuery: `SELECT DISTINCT "status" FROM "users" GROUP BY "status" ORDER BY "status" DESC`,
		},
		{
			name: "order limit offset",
			input: Dialect(dialect.Postgres).
				Select("*").
				From(Table("users")).
				OrderBy(Desc("created_at"), "id").
				Limit(10).
				Offset(20),
			wantQuery: `SELECT * FROM "users" ORDER BY "created_at" DESC, "id" LIMIT 10 OFFSET 20`,
		},
		{
			name: "for update postgres",
			input: Dialect(dialect.Postgres).
				Select("*").
				From(Table("users")).
				Where(EQ("id", 1)).
				ForUpdate(),
			wantQuery: `SELECT * FROM "users" WHERE "id" = $1 FOR UPDATE`,
			wantArgs:  []any{1},
		},
		{
			name: "for share mysql",
			input: Dialect(dialect.MySQL).
				Select("*").
				From(Table("users")).
				ForShare(),
			wantQuery: "SELECT * FROM `users` FOR SHARE",
		},
		{
			name: "bool literal sqlite",
			input: Dialect(dialect.SQLite).
				Select("id").
				From(Table("users")).
				Where(EQ("active", true)),
			wantQuery: `SELECT "id" FROM "users" WHERE "active" = ?`,
			wantArgs:  []any{true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := tt.input.Query()
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSelectorJoins(t *testing.T) {
	t.Run("inner join", func(t *testing.T) {
		users := Table("users").As("u")
		pets := Table("pets").As("p")
		query, args := Dialect(dialect.Postgres).
			Select("u.id", "u.name", "p.name").
			From(users).
			Join(pets).On(users.C("id"), pets.C("owner_id")).
			Where(EQ("u.status", "active")).
			Query()
		assert.Equal(t,
			`SELECT "u"."id", "u"."name", "p"."name" FROM "users" AS "u" JOIN "pets" AS "p" ON "u"."id" = "p"."owner_id" WHERE "u"."status" = $1`,
			query,
		)
		assert.Equal(t, []any{"active"}, args)
	})
	t.Run("left join mysql", func(t *testing.T) {
		users := Table("users")
		pets := Table("pets")
		query, _ := Dialect(dialect.MySQL).
			Select("*").
			From(users).
			LeftJoin(pets).On(users.C("id"), pets.C("owner_id")).
			Query()
		assert.Equal(t, "SELECT * FROM `users` LEFT JOIN `pets` ON `users`.`id` = `pets`.`owner_id`", query)
	})
	t.Run("join without on", func(t *testing.T) {
		s := Dialect(dialect.Postgres).
			Select("*").
			From(Table("users")).
			Join(Table("pets"))
		query, args := s.Query()
		assert.Empty(t, query)
		assert.Nil(t, args)
		assert.ErrorContains(t, s.Err(), "has no ON condition")
	})
	t.Run("on before join", func(t *testing.T) {
		users := Table("users")
		s := Dialect(dialect.Postgres).
			Select("*").
			From(users).
			On(users.C("id"), users.C("id"))
		_, _ = s.Query()
		assert.ErrorContains(t, s.Err(), "On called before Join")
	})
}

func TestSelectorErrors(t *testing.T) {
	t.Run("missing from", func(t *testing.T) {
		s := Dialect(dialect.Postgres).Select("id")
		query, args := s.Query()
		assert.Empty(t, query)
		assert.Nil(t, args)
		assert.ErrorContains(t, s.Err(), "missing FROM table")
	})
	t.Run("ilike rejected on mysql", func(t *testing.T) {
		s := Dialect(dialect.MySQL).
			Select("id").
			From(Table("users")).
			Where(ILike("name", "a%"))
		query, args := s.Query()
		assert.Empty(t, query)
		assert.Nil(t, args)
		var ce *CapabilityError
		require.ErrorAs(t, s.Err(), &ce)
		assert.Equal(t, OpILike, ce.Op)
		assert.Equal(t, dialect.MySQL, ce.Dialect)
		assert.Contains(t, ce.Reason, "LOWER")
	})
	t.Run("ilike rewrite renders everywhere", func(t *testing.T) {
		// The workaround the capability error suggests.
		for _, d := range []string{dialect.Postgres, dialect.MySQL, dialect.SQLite} {
			s := Dialect(d).
				Select("id").
				From(Table("users")).
				Where(P(&OpNode{Op: OpLike, X: Lower(Column("name")), Y: Param("a%")}))
			query, _ := s.Query()
			require.NoError(t, s.Err())
			assert.Contains(t, query, "LOWER(")
		}
	})
	t.Run("lock rejected on sqlite", func(t *testing.T) {
		s := Dialect(dialect.SQLite).
			Select("*").
			From(Table("users")).
			ForUpdate()
		_, _ = s.Query()
		var ce *CapabilityError
		require.ErrorAs(t, s.Err(), &ce)
		assert.Equal(t, KindLock, ce.Kind)
	})
	t.Run("non boolean where", func(t *testing.T) {
		s := Dialect(dialect.Postgres).
			Select("id").
			From(Table("users")).
			Where(P(Param(42)))
		_, _ = s.Query()
		var te *TypeMismatchError
		require.ErrorAs(t, s.Err(), &te)
		assert.Equal(t, "WHERE", te.Clause)
		assert.Equal(t, TypeBool, te.Want)
	})
}

func TestInsertQuery(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{ Query() (string, []any) }
		wantQuery string
		wantArgs  []any
	}{
		{
			name: "single row postgres",
			input: Dialect(dialect.Postgres).
				Insert("users").
				Columns("name", "age").
				Values("ariel", 30),
			wantQuery: `INSERT INTO "users" ("name", "age") VALUES ($1, $2)`,
			wantArgs:  []any{"ariel", 30},
		},
		{
			name: "multi row mysql",
			input: Dialect(dialect.MySQL).
				Insert("users").
				Columns("name", "age").
				Values("a", 1).
				Values("b", 2),
			wantQuery: "INSERT INTO `users` (`name`, `age`) VALUES (?, ?), (?, ?)",
			wantArgs:  []any{"a", 1, "b", 2},
		},
		{
			name: "defaults postgres",
			input: Dialect(dialect.Postgres).
				Insert("users").
				Default(),
			wantQuery: `INSERT INTO "users" DEFAULT VALUES`,
		},
		{
			name: "defaults mysql",
			input: Dialect(dialect.MySQL).
				Insert("users").
				Default(),
			wantQuery: "INSERT INTO `users` () VALUES ()",
		},
		{
			name: "returning postgres",
			input: Dialect(dialect.Postgres).
				Insert("users").
				Columns("name").
				Values("ariel").
				Returning("id"),
			wantQuery: `INSERT INTO "users" ("name") VALUES ($1) RETURNING "id"`,
			wantArgs:  []any{"ariel"},
		},
		{
			name: "returning sqlite",
			input: Dialect(dialect.SQLite).
				Insert("users").
				Columns("name").
				Values("ariel").
				Returning("id", "created_at"),
			wantQuery: `INSERT INTO "users" ("name") VALUES (?) RETURNING "id", "created_at"`,
			wantArgs:  []any{"ariel"},
		},
		{
			name: "conflict update excluded postgres",
			input: Dialect(dialect.Postgres).
				Insert("users").
				Columns("id", "name").
				Values(1, "ariel").
				OnConflict(ConflictColumns("id"), UpdateExcluded("name")),
			wantQuery: `INSERT INTO "users" ("id", "name") VALUES ($1, $2) ON CONFLICT ("id") DO UPDATE SET "name" = excluded."name"`,
			wantArgs:  []any{1, "ariel"},
		},
		{
			name: "conflict do nothing sqlite",
			input: Dialect(dialect.SQLite).
				Insert("users").
				Columns("id", "name").
				Values(1, "ariel").
				OnConflict(ConflictColumns("id"), DoNothing()),
			wantQuery: `INSERT INTO "users" ("id", "name") VALUES (?, ?) ON CONFLICT ("id") DO NOTHING`,
			wantArgs:  []any{1, "ariel"},
		},
		{
			name: "conflict update set postgres",
			input: Dialect(dialect.Postgres).
				Insert("users").
				Columns("id", "visits").
				Values(1, 1).
				OnConflict(ConflictColumns("id"), UpdateSet("visits", 0)),
			wantQuery: `INSERT INTO "users" ("id", "visits") VALUES ($1, $2) ON CONFLICT ("id") DO UPDATE SET "visits" = $3`,
			wantArgs:  []any{1, 1, 0},
		},
		{
			name: "on duplicate key mysql",
			input: Dialect(dialect.MySQL).
				Insert("users").
				Columns("id", "name").
				Values(1, "ariel").
				OnConflict(UpdateExcluded("name")),
			wantQuery: "INSERT INTO `users` (`id`, `name`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `name` = VALUES(`name`)",
			wantArgs:  []any{1, "ariel"},
		},
		{
			name: "do nothing mysql",
			input: Dialect(dialect.MySQL).
				Insert("users").
				Columns("id", "name").
				Values(1, "ariel").
				OnConflict(DoNothing()),
			wantQuery: "INSERT INTO `users` (`id`, `name`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `id` = `id`",
			wantArgs:  []any{1, "ariel"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := tt.input.Query()
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestInsertFromSelect(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		i := Dialect(dialect.Postgres).
			Insert("archived_users").
			Columns("id", "name").
			FromSelect(Dialect(dialect.Postgres).
				Select("id", "name").
				From(Table("users")).
				Where(EQ("status", "inactive")),
			)
		query, args := i.Query()
		require.NoError(t, i.Err())
		assert.Equal(t,
			`INSERT INTO "archived_users" ("id", "name") SELECT "id", "name" FROM "users" WHERE "status" = $1`,
			query,
		)
		assert.Equal(t, []any{"inactive"}, args)
	})
	t.Run("sqlite conflict requires filtered select", func(t *testing.T) {
		unfiltered := func() *Selector {
			return Dialect(dialect.SQLite).Select("id", "name").From(Table("users"))
		}
		i := Dialect(dialect.SQLite).
			Insert("archived_users").
			Columns("id", "name").
			FromSelect(unfiltered()).
			OnConflict(ConflictColumns("id"), DoNothing())
		query, args := i.Query()
		assert.Empty(t, query)
		assert.Nil(t, args)
		var ce *CapabilityError
		require.ErrorAs(t, i.Err(), &ce)
		assert.Equal(t, KindInsertFromSelect, ce.Kind)
		assert.Equal(t, "on_conflict with unfiltered select", ce.Config)

		// The same statement with a WHERE on the inner select renders.
		i = Dialect(dialect.SQLite).
			Insert("archived_users").
			Columns("id", "name").
			FromSelect(unfiltered().Where(NotNull("id"))).
			OnConflict(ConflictColumns("id"), DoNothing())
		query, _ = i.Query()
		require.NoError(t, i.Err())
		assert.Equal(t,
			`INSERT INTO "archived_users" ("id", "name") SELECT "id", "name" FROM "users" WHERE "id" IS NOT NULL ON CONFLICT ("id") DO NOTHING`,
			query,
		)
	})
	t.Run("postgres conflict needs no filter", func(t *testing.T) {
		i := Dialect(dialect.Postgres).
			Insert("archived_users").
			Columns("id", "name").
			FromSelect(Dialect(dialect.Postgres).Select("id", "name").From(Table("users"))).
			OnConflict(ConflictColumns("id"), DoNothing())
		_, _ = i.Query()
		require.NoError(t, i.Err())
	})
}

func TestInsertErrors(t *testing.T) {
	t.Run("returning on mysql", func(t *testing.T) {
		i := Dialect(dialect.MySQL).
			Insert("users").
			Columns("name").
			Values("ariel").
			Returning("id")
		query, args := i.Query()
		assert.Empty(t, query)
		assert.Nil(t, args)
		var ce *CapabilityError
		require.ErrorAs(t, i.Err(), &ce)
		assert.Equal(t, KindReturning, ce.Kind)
	})
	t.Run("conflict target on mysql", func(t *testing.T) {
		i := Dialect(dialect.MySQL).
			Insert("users").
			Columns("id", "name").
			Values(1, "a").
			OnConflict(ConflictColumns("id"), UpdateExcluded("name"))
		_, _ = i.Query()
		var ce *CapabilityError
		require.ErrorAs(t, i.Err(), &ce)
		assert.Equal(t, KindOnConflict, ce.Kind)
		assert.Equal(t, "with conflict target columns", ce.Config)
	})
	t.Run("mysql conflict requires columns", func(t *testing.T) {
		i := Dialect(dialect.MySQL).
			Insert("users").
			Values(1, "a").
			OnConflict(DoNothing())
		_, _ = i.Query()
		var ce *CapabilityError
		require.ErrorAs(t, i.Err(), &ce)
		assert.Contains(t, ce.Reason, "explicit insert column list")
	})
	t.Run("no source", func(t *testing.T) {
		i := Dialect(dialect.Postgres).Insert("users").Columns("name")
		_, _ = i.Query()
		assert.ErrorContains(t, i.Err(), "exactly one of")
	})
	t.Run("two sources", func(t *testing.T) {
		i := Dialect(dialect.Postgres).
			Insert("users").
			Values("a").
			Default()
		_, _ = i.Query()
		assert.ErrorContains(t, i.Err(), "exactly one of")
	})
	t.Run("row arity", func(t *testing.T) {
		i := Dialect(dialect.Postgres).
			Insert("users").
			Columns("name", "age").
			Values("ariel")
		_, _ = i.Query()
		assert.ErrorContains(t, i.Err(), "1 values for 2 columns")
	})
	t.Run("do nothing with updates", func(t *testing.T) {
		i := Dialect(dialect.Postgres).
			Insert("users").
			Columns("id").
			Values(1).
			OnConflict(DoNothing(), UpdateSet("id", 2))
		_, _ = i.Query()
		assert.ErrorContains(t, i.Err(), "cannot combine DO NOTHING")
	})
	t.Run("empty conflict", func(t *testing.T) {
		i := Dialect(dialect.Postgres).
			Insert("users").
			Columns("id").
			Values(1).
			OnConflict(ConflictColumns("id"))
		_, _ = i.Query()
		assert.ErrorContains(t, i.Err(), "requires DO NOTHING or update assignments")
	})
}

func TestUpdateQuery(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{ Query() (string, []any) }
		wantQuery string
		wantArgs  []any
	}{
		{
			name: "basic postgres",
			input: Dialect(dialect.Postgres).
				Update("users").
				Set("name", "ariel").
				Set("age", 31).
				Where(EQ("id", 1)),
			wantQuery: `UPDATE "users" SET "name" = $1, "age" = $2 WHERE "id" = $3`,
			wantArgs:  []any{"ariel", 31, 1},
		},
		{
			name: "expression value mysql",
			input: Dialect(dialect.MySQL).
				Update("users").
				Set("name", Lower(Column("name"))).
				Where(IsNull("deleted_at")),
			wantQuery: "UPDATE `users` SET `name` = LOWER(`name`) WHERE `deleted_at` IS NULL",
		},
		{
			name: "returning postgres",
			input: Dialect(dialect.Postgres).
				Update("users").
				Set("visits", 0).
				Where(In("id", 1, 2, 3)).
				Returning("id"),
			wantQuery: `UPDATE "users" SET "visits" = $1 WHERE "id" IN ($2, $3, $4) RETURNING "id"`,
			wantArgs:  []any{0, 1, 2, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := tt.input.Query()
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}

	t.Run("no assignments", func(t *testing.T) {
		u := Dialect(dialect.Postgres).Update("users").Where(EQ("id", 1))
		query, args := u.Query()
		assert.Empty(t, query)
		assert.Nil(t, args)
		assert.ErrorContains(t, u.Err(), "no assignments")
	})
}

func TestDeleteQuery(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		query, args := Dialect(dialect.Postgres).
			Delete("users").
			Where(EQ("id", 1)).
			Query()
		assert.Equal(t, `DELETE FROM "users" WHERE "id" = $1`, query)
		assert.Equal(t, []any{1}, args)
	})
	t.Run("unfiltered", func(t *testing.T) {
		query, _ := Dialect(dialect.MySQL).Delete("logs").Query()
		assert.Equal(t, "DELETE FROM `logs`", query)
	})
	t.Run("returning on mysql rejected", func(t *testing.T) {
		d := Dialect(dialect.MySQL).
			Delete("users").
			Where(EQ("id", 1)).
			Returning("id")
		_, _ = d.Query()
		var ce *CapabilityError
		require.ErrorAs(t, d.Err(), &ce)
		assert.Equal(t, KindReturning, ce.Kind)
	})
}

func TestFieldPredicates(t *testing.T) {
	type userPredicate func(*Selector)
	var (
		name  = StringField[userPredicate]("name")
		age   = IntField[userPredicate]("age")
		admin = BoolField[userPredicate]("admin")
	)
	apply := func(ps ...userPredicate) *Selector {
		s := Dialect(dialect.Postgres).Select("id").From(Table("users").As("u"))
		for _, p := range ps {
			p(s)
		}
		return s
	}

	t.Run("string and int", func(t *testing.T) {
		s := apply(name.Contains("ariel"), age.GTE(18))
		query, args := s.Query()
		require.NoError(t, s.Err())
		assert.Equal(t,
			`SELECT "id" FROM "users" AS "u" WHERE "u"."name" LIKE $1 AND "u"."age" >= $2`,
			query,
		)
		assert.Equal(t, []any{"%ariel%", 18}, args)
	})
	t.Run("bool and null", func(t *testing.T) {
		s := apply(admin.EQ(true), name.NotNull())
		query, args := s.Query()
		require.NoError(t, s.Err())
		assert.Equal(t,
			`SELECT "id" FROM "users" AS "u" WHERE "u"."admin" = $1 AND "u"."name" IS NOT NULL`,
			query,
		)
		assert.Equal(t, []any{true}, args)
	})
	t.Run("in", func(t *testing.T) {
		s := apply(age.In(1, 2))
		query, args := s.Query()
		assert.Equal(t, `SELECT "id" FROM "users" AS "u" WHERE "u"."age" IN ($1, $2)`, query)
		assert.Equal(t, []any{1, 2}, args)
	})
	t.Run("fold is postgres only", func(t *testing.T) {
		s := Dialect(dialect.SQLite).Select("id").From(Table("users"))
		name.EqualFold("Ariel")(s)
		_, _ = s.Query()
		var ce *CapabilityError
		require.ErrorAs(t, s.Err(), &ce)
		assert.Equal(t, OpILike, ce.Op)
	})
}
