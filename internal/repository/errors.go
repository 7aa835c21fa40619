package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

var (
	ErrInscriptionNotFound  = errors.New("INSCRIPTION_NOT_FOUND")
	ErrInscriptionDuplicate = errors.New("INSCRIPTION_DUPLICATE")
	ErrTransactionNotFound  = errors.New("TRANSACTION_NOT_FOUND")
	ErrTransactionDuplicate = errors.New("TRANSACTION_DUPLICATE")
	ErrNoRowsAffected       = errors.New("NO_ROWS_AFFECTED")
)

func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
