package server

import (
	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"

	"github.com/dealops/dealflow/config"
	"github.com/dealops/dealflow/internal/auth"
	"github.com/dealops/dealflow/internal/deals"
	"github.com/dealops/dealflow/internal/fanout"
	"github.com/dealops/dealflow/misc"
)

type Server struct {
	Cfg *config.Config

	db     *bolt.DB
	auth   *auth.Auth
	hub    *fanout.Hub
	engine *deals.Engine

	r *gin.Engine
}

func New(cfg *config.Config, r *gin.Engine) (*Server, error) {
	db := misc.OpenDB(cfg.DBPath, cfg.DBName)
	if err := misc.InitBuckets(db, cfg.AllBuckets()); err != nil {
		return nil, err
	}

	a := auth.New(db, cfg)
	if cfg.AdminEmail != "" && cfg.AdminPass != "" {
		if err := a.EnsureAdmin(cfg.AdminEmail, cfg.AdminPass); err != nil {
			return nil, err
		}
	}

	var gate deals.BidGate = deals.AllowAll()
	if cfg.RequireSubscription {
		gate = deals.SubscriberFunc(a.Subscribed)
	}

	hub := fanout.NewHub()

	srv := &Server{
		Cfg:    cfg,
		db:     db,
		auth:   a,
		hub:    hub,
		engine: deals.New(db, cfg, hub, gate),
		r:      r,
	}
	srv.initRoutes(r)
	return srv, nil
}

func (srv *Server) initRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	v1.POST("/signUp", signUp(srv))
	v1.POST("/signIn", signIn(srv))

	// The feed authenticates its own handshake; the token arrives as a
	// query parameter and is validated before the upgrade.
	v1.GET("/feed", feed(srv))

	authed := v1.Group("", srv.auth.Middleware())

	authed.GET("/user/:id", getUser(srv))

	authed.POST("/deal", postDeal(srv))
	authed.GET("/deal/:id", getDeal(srv))
	authed.GET("/deals", getOpenDeals(srv))
	authed.GET("/myDeals", getMyDeals(srv))
	authed.PUT("/deal/:id/cancel", cancelDeal(srv))
	authed.PUT("/deal/:id/close", closeDeal(srv))

	authed.POST("/deal/:id/bid", postBid(srv))
	authed.GET("/deal/:id/bids", getBidsForDeal(srv))
	authed.GET("/bid/:id", getBid(srv))
	authed.PUT("/bid/:id", amendBid(srv))
	authed.PUT("/bid/:id/withdraw", withdrawBid(srv))
	authed.PUT("/bid/:id/reject", rejectBid(srv))
	authed.PUT("/bid/:id/accept", acceptBid(srv))

	authed.POST("/bid/:id/counter", postCounter(srv))
	authed.GET("/bid/:id/negotiations", getNegotiations(srv))

	authed.GET("/connection/:id", getConnection(srv))

	authed.POST("/message", postMessage(srv))
}

func (srv *Server) Run() error {
	return srv.r.Run(srv.Cfg.Host + ":" + srv.Cfg.Port)
}

func (srv *Server) Close() error {
	return srv.db.Close()
}
