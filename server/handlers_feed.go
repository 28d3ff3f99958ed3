package server

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dealops/dealflow/internal/auth"
	"github.com/dealops/dealflow/misc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// feed is the realtime channel handshake. The token is validated before the
// upgrade, so an unauthenticated handle is refused without ever touching
// the hub.
func feed(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := s.auth.VerifyUser(c.Query("token"))
		if err != nil {
			misc.AbortWithErr(c, 401, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("feed upgrade failed for user", u.Id, err)
			return
		}

		// Blocks for the life of the connection; gin keeps one goroutine
		// per request anyway.
		s.hub.Serve(conn, u.Id)
	}
}

// The message relay belongs to the messaging collaborator; it rides this
// fan-out because the events share a channel, nothing more. No persistence.
type messageReq struct {
	To      string `json:"to"`
	Room    string `json:"room,omitempty"`
	Message string `json:"message"`
}

func postMessage(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req messageReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}
		if req.To == "" || req.Message == "" {
			c.JSON(400, misc.StatusErr("Missing recipient or message"))
			return
		}

		from := auth.CtxUser(c)
		payload := gin.H{"from": from.Id, "message": req.Message}
		if req.Room != "" {
			s.hub.EmitRoom(req.To, req.Room, "new_message", payload)
		} else {
			s.hub.Emit(req.To, "new_message", payload)
		}
		c.JSON(200, misc.StatusOK(req.To))
	}
}
