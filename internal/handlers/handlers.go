package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopora/shopora-golang/internal/database"
	"github.com/sirupsen/logrus"
)

// Handlers holds the shared dependencies for all HTTP handlers.
type Handlers struct {
	DB  *sql.DB
	Log *logrus.Logger
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, for
// helpers that run both inside and outside a transaction.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

// requester returns the caller identity placed on the context by the auth
// middleware.
func requester(c *gin.Context) (userID int64, isAdmin bool) {
	userIDRaw, _ := c.Get("userID")
	userID = userIDRaw.(int64)
	if roleRaw, exists := c.Get("userRole"); exists {
		isAdmin = roleRaw.(string) == "admin"
	}
	return userID, isAdmin
}

// dbError finishes a request that failed on a database operation. Lock
// conflicts (a concurrent transaction won the race) get a retryable 409;
// everything else is logged and surfaces as a 500.
func (h *Handlers) dbError(c *gin.Context, err error, msg string) {
	if database.IsLockConflict(err) {
		c.JSON(http.StatusConflict, gin.H{"error": "Operation conflicted with a concurrent update, please retry"})
		return
	}
	h.Log.WithError(err).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
