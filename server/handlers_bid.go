package server

import (
	"github.com/gin-gonic/gin"

	"github.com/dealops/dealflow/internal/auth"
	"github.com/dealops/dealflow/internal/common"
	"github.com/dealops/dealflow/misc"
)

///////// Bids /////////

type bidReq struct {
	Offer *common.Offer `json:"offer"`
}

func postBid(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bidReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		bid, err := s.engine.Ledger.Place(c.Param("id"), auth.CtxUser(c), req.Offer)
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, bid)
	}
}

func getBid(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		bid, err := s.engine.Ledger.Get(c.Param("id"), auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, bid)
	}
}

func getBidsForDeal(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := s.engine.Ledger.ListForDeal(c.Param("id"), auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		if out == nil {
			out = []*common.Bid{}
		}
		c.JSON(200, out)
	}
}

func amendBid(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bidReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		bid, err := s.engine.Ledger.Amend(c.Param("id"), auth.CtxUser(c), req.Offer)
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, bid)
	}
}

func withdrawBid(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		bid, err := s.engine.Ledger.Withdraw(c.Param("id"), auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, bid)
	}
}

func rejectBid(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		bid, err := s.engine.Ledger.Reject(c.Param("id"), auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, bid)
	}
}

func acceptBid(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		cn, err := s.engine.Ledger.Accept(c.Param("id"), auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, cn)
	}
}

func getConnection(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		cn, err := s.engine.GetConnection(c.Param("id"), auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, cn)
	}
}
