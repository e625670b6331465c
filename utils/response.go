package utils

import (
	"github.com/gin-gonic/gin"
)

// Respond writes message plus any extra top-level fields.
func Respond(c *gin.Context, status int, message string, fields gin.H) {
	body := gin.H{}
	for k, v := range fields {
		body[k] = v
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

func ErrorWithKind(c *gin.Context, status int, message string, kind string) {
	if kind == "" {
		Error(c, status, message)
		return
	}
	c.JSON(status, gin.H{"message": message, "error": kind})
}
