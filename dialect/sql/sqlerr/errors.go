// Package sqlerr classifies driver errors returned by the supported
// backends into portable constraint-violation kinds. Each backend
// reports violations its own way: postgres with SQLSTATE codes, mysql
// with error numbers, sqlite with message text. Callers match on the
// Kind instead of driver-specific types.
package sqlerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the portable classification of a constraint violation.
type Kind int

const (
	// KindOther marks errors that are not recognized constraint
	// violations.
	KindOther Kind = iota
	// KindUnique marks uniqueness violations (duplicate key).
	KindUnique
	// KindForeignKey marks foreign-key violations (missing parent or
	// referenced child).
	KindForeignKey
	// KindCheck marks check-constraint violations.
	KindCheck
)

var kindNames = map[Kind]string{
	KindOther:      "other",
	KindUnique:     "unique",
	KindForeignKey: "foreign_key",
	KindCheck:      "check",
}

func (k Kind) String() string { return kindNames[k] }

// errorCoder is implemented by errors that carry a string error code,
// such as pq.Error.
type errorCoder interface {
	Code() string
}

// errorNumberer is implemented by errors that carry a numeric error
// code, such as mysql.MySQLError.
type errorNumberer interface {
	Number() uint16
}

// sqlStateError is implemented by errors that carry a SQLSTATE code,
// such as pq.Error and pgx errors.
type sqlStateError interface {
	SQLState() string
}

// kindSpec holds, per constraint kind, the codes and message
// fragments each backend uses to report it.
type kindSpec struct {
	// Postgres SQLSTATE codes (class 23).
	sqlStates []string
	// MySQL error numbers.
	mysqlNumbers []uint16
	// Message fragments for drivers that expose neither codes nor
	// numbers. SQLite in particular only has text.
	fragments []string
}

var kindSpecs = map[Kind]kindSpec{
	KindUnique: {
		sqlStates:    []string{"23505"},
		mysqlNumbers: []uint16{1062},
		fragments: []string{
			"Error 1062",
			"violates unique constraint",
			"UNIQUE constraint failed",
		},
	},
	KindForeignKey: {
		sqlStates: []string{"23503"},
		// 1451: cannot delete or update a parent row.
		// 1452: cannot add or update a child row.
		mysqlNumbers: []uint16{1451, 1452},
		fragments: []string{
			"Error 1451",
			"Error 1452",
			"violates foreign key constraint",
			"FOREIGN KEY constraint failed",
		},
	},
	KindCheck: {
		sqlStates:    []string{"23514"},
		mysqlNumbers: []uint16{3819},
		fragments: []string{
			"Error 3819",
			"violates check constraint",
			"CHECK constraint failed",
		},
	},
}

// Classify reports the constraint-violation kind of err, or KindOther
// if err is nil or not a recognized violation.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}
	for _, k := range []Kind{KindUnique, KindForeignKey, KindCheck} {
		if matches(err, kindSpecs[k]) {
			return k
		}
	}
	return KindOther
}

func matches(err error, spec kindSpec) bool {
	if e, ok := asError[sqlStateError](err); ok {
		for _, s := range spec.sqlStates {
			if e.SQLState() == s {
				return true
			}
		}
	}
	if e, ok := asError[errorCoder](err); ok {
		for _, s := range spec.sqlStates {
			if e.Code() == s {
				return true
			}
		}
	}
	if e, ok := asError[errorNumberer](err); ok {
		for _, n := range spec.mysqlNumbers {
			if e.Number() == n {
				return true
			}
		}
	}
	msg := err.Error()
	for _, f := range spec.fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

// IsUnique reports whether err is a uniqueness violation.
func IsUnique(err error) bool { return Classify(err) == KindUnique }

// IsForeignKey reports whether err is a foreign-key violation.
func IsForeignKey(err error) bool { return Classify(err) == KindForeignKey }

// IsCheck reports whether err is a check-constraint violation.
func IsCheck(err error) bool { return Classify(err) == KindCheck }

// IsConstraint reports whether err is any recognized constraint
// violation.
func IsConstraint(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) || Classify(err) != KindOther
}

// ConstraintError wraps a driver error with its classification and
// the table the statement targeted.
type ConstraintError struct {
	Table string
	Kind  Kind
	err   error
}

// Wrap classifies err and wraps it with the target table. It returns
// err unchanged when it is nil or not a constraint violation.
func Wrap(table string, err error) error {
	kind := Classify(err)
	if kind == KindOther {
		return err
	}
	return &ConstraintError{Table: table, Kind: kind, err: err}
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("sqlerr: %s constraint on %q: %s", e.Kind, e.Table, e.err)
}

// Unwrap returns the underlying driver error.
func (e *ConstraintError) Unwrap() error { return e.err }

// asError extracts an error implementing interface T from the error
// chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}
