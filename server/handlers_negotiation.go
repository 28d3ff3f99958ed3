package server

import (
	"github.com/gin-gonic/gin"

	"github.com/dealops/dealflow/internal/auth"
	"github.com/dealops/dealflow/internal/common"
	"github.com/dealops/dealflow/misc"
)

///////// Negotiations /////////

type counterReq struct {
	Offer   *common.Offer `json:"offer"`
	Message string        `json:"message"`
}

func postCounter(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req counterReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		neg, err := s.engine.Log.Counter(c.Param("id"), auth.CtxUser(c), req.Offer, req.Message)
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, neg)
	}
}

func getNegotiations(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := s.engine.Log.History(c.Param("id"), auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		if out == nil {
			out = []*common.Negotiation{}
		}
		c.JSON(200, out)
	}
}
