package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medilink/utils"
)

// Health returns the latest dependency health snapshot.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}
