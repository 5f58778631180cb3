package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// okJson writes the success envelope.
func okJson(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code": http.StatusOK,
		"msg":  "success",
		"data": data,
	})
}

// badRequest rejects invalid caller input.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code": http.StatusBadRequest,
		"msg":  msg,
	})
}

// serverError hides internal detail behind a generic message; the cause
// is already logged where it happened.
func serverError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code": http.StatusInternalServerError,
		"msg":  "unexpected error",
	})
}
