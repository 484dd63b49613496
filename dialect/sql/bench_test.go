package sql

import (
	"context"
	"testing"
	"time"

	"github.com/syssam/sqlkit/dialect"
)

var allDialects = []string{dialect.SQLite, dialect.MySQL, dialect.Postgres}

func BenchmarkInsertBuilder_Default(b *testing.B) {
	for _, d := range allDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Insert("users").Default().Query()
			}
		})
	}
}

func BenchmarkInsertBuilder_Small(b *testing.B) {
	// RETURNING restricts this one to the backends that have it.
	for _, d := range []string{dialect.SQLite, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Insert("users").
					Columns("id", "age", "first_name", "last_name", "nickname", "spouse_id", "created_at", "updated_at").
					Values(1, 30, "Ariel", "Mashraki", "a8m", 2, "2009-11-10 23:00:00", "2009-11-10 23:00:00").
					Returning("id").
					Query()
			}
		})
	}
}

func BenchmarkSelectBuilder_Simple(b *testing.B) {
	for _, d := range allDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Select("id", "name", "email").
					From(Table("users")).
					Query()
			}
		})
	}
}

func BenchmarkSelectBuilder_WithJoins(b *testing.B) {
	for _, d := range allDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				users := Table("users").As("u")
				posts := Table("posts").As("p")
				Dialect(d).Select("u.id", "u.name", "p.title").
					From(users).
					Join(posts).On(users.C("id"), posts.C("user_id")).
					Where(EQ("u.active", true)).
					OrderBy("u.created_at").
					Limit(10).
					Query()
			}
		})
	}
}

func BenchmarkSelectBuilder_Complex(b *testing.B) {
	for _, d := range allDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Select("*").
					From(Table("users")).
					Where(
						And(
							EQ("status", "active"),
							Or(
								GT("age", 18),
								EQ("role", "admin"),
							),
							In("department", "engineering", "product", "design"),
							NotNull("email"),
						),
					).
					OrderBy("created_at", "name").
					Limit(100).
					Offset(50).
					Query()
			}
		})
	}
}

func BenchmarkUpdateBuilder_Multiple(b *testing.B) {
	for _, d := range allDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Update("users").
					Set("first_name", "John").
					Set("last_name", "Doe").
					Set("email", "john@example.com").
					Set("age", 30).
					Set("status", "active").
					Set("updated_at", "2024-01-01 00:00:00").
					Where(In("id", 1, 2, 3, 4, 5)).
					Query()
			}
		})
	}
}

func BenchmarkDeleteBuilder_WithConditions(b *testing.B) {
	for _, d := range allDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Delete("users").
					Where(
						And(
							EQ("status", "deleted"),
							LT("deleted_at", "2023-01-01"),
							NotIn("role", "admin", "moderator"),
						),
					).
					Query()
			}
		})
	}
}

func BenchmarkStatementValidate(b *testing.B) {
	stmt, err := Dialect(dialect.Postgres).
		Select("*").
		From(Table("users")).
		Where(And(EQ("status", "active"), In("role", "a", "b", "c"))).
		Statement()
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := stmt.Validate(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStatementCacheRender(b *testing.B) {
	stmt, err := Dialect(dialect.Postgres).
		Select("id", "name").
		From(Table("users")).
		Where(EQ("age", 30)).
		Statement()
	if err != nil {
		b.Fatal(err)
	}
	sc := NewStatementCache(NewMemoryCache(), time.Minute)
	ctx := context.Background()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := sc.Render(ctx, stmt); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPredicates_Compound(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = And(
			EQ("status", "active"),
			Or(
				GT("age", 18),
				EQ("role", "admin"),
			),
			In("department", "eng", "product"),
			NotNull("email"),
			Contains("name", "John"),
		)
	}
}
