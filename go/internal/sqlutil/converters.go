package sqlutil

import (
	"database/sql"
	"time"
)

// Conversions between optional Go values and sql.Null* column types.

// ToSqlString maps nil to NULL.
func ToSqlString(val *string) sql.NullString {
	if val == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *val, Valid: true}
}

// FromSqlStringPtr maps NULL to nil.
func FromSqlStringPtr(val sql.NullString) *string {
	if !val.Valid {
		return nil
	}
	s := val.String
	return &s
}

// ToSqlTime maps nil to NULL and stores the time in UTC.
func ToSqlTime(val *time.Time) sql.NullTime {
	if val == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: val.UTC(), Valid: true}
}
