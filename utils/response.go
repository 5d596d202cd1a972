package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse writes the success envelope: status, message and payload
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError writes the error envelope. The error text is kept separate from the
// human readable message so clients can tell rejection kinds apart.
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, errorBody(status, err, message))
}

// AbortWithError writes the error envelope and stops the middleware chain
func AbortWithError(c *gin.Context, status int, err error, message string) {
	c.AbortWithStatusJSON(status, errorBody(status, err, message))
}

func errorBody(status int, err error, message string) gin.H {
	return gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	}
}
