package server

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/dealops/dealflow/internal/deals"
	"github.com/dealops/dealflow/misc"
)

// apiError maps engine error classes onto HTTP codes. Anything outside the
// taxonomy is an internal failure and is logged without leaking store
// details to the client.
func apiError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, deals.ErrNotFound):
		c.JSON(404, misc.StatusErr(err.Error()))
	case errors.Is(err, deals.ErrForbidden):
		c.JSON(403, misc.StatusErr(err.Error()))
	case errors.Is(err, deals.ErrConflict):
		// The caller lost a race; refresh and retry, it's not a bug.
		c.JSON(409, misc.StatusErr(err.Error()))
	case errors.Is(err, deals.ErrBadRequest):
		c.JSON(400, misc.StatusErr(err.Error()))
	default:
		log.Println("internal error:", err)
		c.JSON(500, misc.StatusErr("Internal error"))
	}
}
