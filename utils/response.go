package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes the standard success envelope. Extra fields are
// merged into the top level so handlers can return
// {"success":true,"message":...,"bookings":[...]} shapes.
func Success(c *gin.Context, message string, data gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Created is Success with a 201 status.
func Created(c *gin.Context, message string, data gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(http.StatusCreated, body)
}

// Error writes the standard error envelope and aborts the request.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// BadRequest is Error with a 400 status, the default for validation
// and conflict failures.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// ServerError hides the underlying storage error behind a fixed
// message so driver internals never leak to clients.
func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
