package misc

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
)

func BindJSON(c *gin.Context, v interface{}) error {
	body := c.Request.Body
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

type Status struct {
	Code   int    `json:"code"`
	Status string `json:"status,omitempty"`
	Msg    string `json:"msg,omitempty"`
	Id     string `json:"id,omitempty"`
}

func StatusOK(id string) Status {
	return Status{Code: 200, Status: "success", Id: id}
}

func StatusErr(msg string) Status {
	return Status{Code: 400, Status: "error", Msg: msg}
}

func AbortWithErr(c *gin.Context, code int, err error) {
	c.JSON(code, StatusErr(err.Error()))
	c.Abort()
}
