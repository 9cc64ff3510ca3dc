package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"HibiscusGuard/pkg/errors"
)

// Body 统一响应结构
type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 response with the given message and data.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: message, Data: data})
}

// Created writes a 201 response with the given data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Code: 0, Message: "created", Data: data})
}

// Fail writes a 400 response with the given message.
func Fail(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusBadRequest, Body{Code: errors.CodeInvalidArgument, Message: message, Data: data})
}

// Error maps a service error to an HTTP response by its code.
func Error(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeInvalidArgument:
		status = http.StatusBadRequest
	case errors.CodeForbidden:
		status = http.StatusForbidden
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeStoreUnavailable:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, Body{Code: code, Message: errors.GetMessage(err)})
}
