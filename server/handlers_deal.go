package server

import (
	"github.com/gin-gonic/gin"

	"github.com/dealops/dealflow/internal/auth"
	"github.com/dealops/dealflow/internal/common"
	"github.com/dealops/dealflow/misc"
)

///////// Deals /////////

func postDeal(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var d common.Deal
		if err := misc.BindJSON(c, &d); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		deal, err := s.engine.Registry.Create(auth.CtxUser(c), &d)
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, deal)
	}
}

func getDeal(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		deal, err := s.engine.Registry.Get(c.Param("id"), auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, deal)
	}
}

func getOpenDeals(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := s.engine.Registry.ListOpen(auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		if out == nil {
			out = []*common.Deal{}
		}
		c.JSON(200, out)
	}
}

func getMyDeals(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := s.engine.Registry.ListByRequester(auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		if out == nil {
			out = []*common.Deal{}
		}
		c.JSON(200, out)
	}
}

func cancelDeal(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		deal, err := s.engine.Registry.Cancel(c.Param("id"), auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, misc.StatusOK(deal.Id))
	}
}

func closeDeal(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		deal, err := s.engine.Registry.Close(c.Param("id"), auth.CtxUser(c))
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(200, misc.StatusOK(deal.Id))
	}
}
