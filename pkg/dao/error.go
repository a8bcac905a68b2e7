package dao

import (
	"github.com/jackc/pgx/v5/pgconn"
)

func isUniqueViolation(err error) bool {
	pgError, ok := err.(*pgconn.PgError)
	if ok {
		if pgError.Code == "23505" {
			return true
		}
	}
	return false
}
