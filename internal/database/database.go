package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// OpenDB creates and configures the MySQL connection pool, then pings it
// to verify the DSN actually works before the server starts taking traffic.
func OpenDB(dsn string, log *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.WithError(err).Error("database ping failed")
		return nil, err
	}

	log.Info("database connection pool established")
	return db, nil
}

// MySQL server error codes for lock contention.
const (
	errDeadlock        = 1213 // ER_LOCK_DEADLOCK
	errLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
)

// IsLockConflict reports whether err is a MySQL deadlock or lock-wait
// timeout, i.e. the transaction lost a race with a concurrent one and the
// caller can safely retry the whole operation.
func IsLockConflict(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == errDeadlock || mysqlErr.Number == errLockWaitTimeout
	}
	return false
}
