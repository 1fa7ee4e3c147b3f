package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func successResponse(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func errorResponse(c *gin.Context, status int, message string, err error) {
	resp := APIResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, message string, err error) {
	errorResponse(c, http.StatusBadRequest, message, err)
}

func notFound(c *gin.Context, message string) {
	errorResponse(c, http.StatusNotFound, message, nil)
}

func internalError(c *gin.Context, message string, err error) {
	errorResponse(c, http.StatusInternalServerError, message, err)
}
