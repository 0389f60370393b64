package postgres

import (
	"context"
	"errors"
	"net"

	"medication-adherence-tracker/internal/domain/doses"

	"github.com/jackc/pgx/v5/pgconn"
)

// Códigos SQLSTATE que tratamos como transitorios: carreras y recursos, no
// errores del request. La clasificación se decide acá, una sola vez; la
// política de retry del persister lee la clase y nunca strings de error.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
)

func isTransientCode(code string) bool {
	switch code {
	case codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled:
		return true
	}
	// clase 08 = fallas de conexión, clase 53 = recursos insuficientes
	if len(code) == 5 && (code[:2] == "08" || code[:2] == "53") {
		return true
	}
	return false
}

// classifyStoreErr mapea un error crudo del driver al set cerrado
// Transient | Permanent del dominio de doses.
func classifyStoreErr(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == codeUniqueViolation {
			// Carrera de constraint: para el persister es un skip, no una falla.
			return doses.ErrDuplicate
		}
		if isTransientCode(pgErr.Code) {
			return doses.TransientError(err)
		}
		return doses.PermanentError(err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return doses.TransientError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return doses.TransientError(err)
	}
	if errors.Is(err, context.Canceled) {
		return doses.PermanentError(err)
	}

	return doses.PermanentError(err)
}
