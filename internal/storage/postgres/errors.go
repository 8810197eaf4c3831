package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcoot/humanbench/internal/model"
)

// PostgreSQL error codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

// Constraints whose violations carry domain meaning
var constraintErrors = map[string]error{
	"users_email_key":           model.ErrEmailTaken,
	"rooms_code_key":            model.ErrRoomCodeTaken,
	"room_members_room_id_fkey": model.ErrRoomNotFound,
	"room_members_user_id_fkey": model.ErrUserNotFound,
	"scores_user_id_fkey":       model.ErrUserNotFound,
}

// mapError translates driver errors into model errors. notFound is returned
// for sql.ErrNoRows and malformed ids; pass nil where no row is expected.
func mapError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeForeignKeyViolation:
			if mapped, ok := constraintErrors[pgErr.ConstraintName]; ok {
				return mapped
			}
		case codeInvalidText:
			// a non-UUID id can never match a row
			if notFound != nil {
				return notFound
			}
		}
	}
	return model.WrapStorage(op, err)
}
