package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dealops/dealflow/misc"
)

const ctxUserKey = `authUser`

// Middleware resolves the bearer token on each request and aborts with 401
// when it's missing or bad. Handlers downstream read the user via CtxUser.
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			misc.AbortWithErr(c, 401, ErrBadToken)
			return
		}
		u, err := a.VerifyUser(tok)
		if err != nil {
			misc.AbortWithErr(c, 401, err)
			return
		}
		c.Set(ctxUserKey, u)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.Request.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return h[len("Bearer "):]
	}
	return c.Query("token")
}

func CtxUser(c *gin.Context) *User {
	if v, ok := c.Get(ctxUserKey); ok {
		if u, ok := v.(*User); ok {
			return u
		}
	}
	return nil
}
