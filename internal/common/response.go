package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Fail writes {"error": msg} and aborts the chain.
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
