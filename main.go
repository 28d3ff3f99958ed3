package main

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dealops/dealflow/config"
	"github.com/dealops/dealflow/server"
)

func main() {
	log.SetFlags(log.Lshortfile)

	cfg, err := config.New("config/config.json")
	if err != nil {
		log.Fatal(err)
	}
	if !cfg.Sandbox {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginLogger("/static", "/favicon.ico"))

	// Ping test
	r.GET("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})

	srv, err := server.New(cfg, r)
	if err != nil {
		log.Fatal(err)
	}
	defer srv.Close()

	if err = srv.Run(); err != nil {
		// panic rather than fatal so the deferred close still runs
		log.Panicf("Failed to listen: %v", err)
	}
}

func ginLogger(prefixesToSkip ...string) gin.HandlerFunc {
	// shamelessly copied from gin.Logger
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, pre := range prefixesToSkip {
			if strings.HasPrefix(path, pre) {
				return
			}
		}
		start := time.Now()

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		log.Printf("[%s] [%d] %s %s [%s]", clientIP, statusCode, method, path, latency)
	}
}
