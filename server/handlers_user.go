package server

import (
	"github.com/gin-gonic/gin"

	"github.com/dealops/dealflow/internal/auth"
	"github.com/dealops/dealflow/misc"
)

func signUp(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var su auth.SignupUser
		if err := misc.BindJSON(c, &su); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		// Admin accounts are provisioned out of band, never via signup.
		if su.Type == auth.AdminScope {
			c.JSON(403, misc.StatusErr("Cannot sign up with this user type"))
			return
		}

		u, err := s.auth.SignUp(&su)
		if err != nil {
			c.JSON(400, misc.StatusErr(err.Error()))
			return
		}
		c.JSON(200, misc.StatusOK(u.Id))
	}
}

type signInReq struct {
	Email string `json:"email"`
	Pass  string `json:"pass"`
}

type signInResp struct {
	Id    string     `json:"id"`
	Token string     `json:"token"`
	Type  auth.Scope `json:"type"`
}

func signIn(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signInReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		u, tok, err := s.auth.SignIn(req.Email, req.Pass)
		if err != nil {
			c.JSON(401, misc.StatusErr(err.Error()))
			return
		}
		c.JSON(200, signInResp{Id: u.Id, Token: tok, Type: u.Type})
	}
}

func getUser(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			caller = auth.CtxUser(c)
			id     = c.Param("id")
		)

		u := s.auth.GetUser(id)
		if u == nil {
			c.JSON(404, misc.StatusErr("User not found"))
			return
		}

		// Only the account owner and admins see the email and billing flag.
		if caller.Id != id && caller.Type != auth.AdminScope {
			u = &auth.User{Id: u.Id, Name: u.Name, Type: u.Type}
		}
		c.JSON(200, u)
	}
}
