package response

import (
	"net/http"

	"GuardianLink/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Body 统一响应结构
type Body struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Msg: msg, Data: data})
}

func Created(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Code: 0, Msg: msg, Data: data})
}

func Fail(c *gin.Context, msg string, data interface{}) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Body{Code: errors.CodeInvalidInput, Msg: msg, Data: data})
}

// Error writes err with the status derived from its code.
func Error(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errors.HTTPStatus(err), Body{Code: errors.GetCode(err), Msg: err.Error()})
}
