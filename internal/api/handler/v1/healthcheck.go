package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/response"
)

// HandleHealthcheck godoc
// @Summary      Report that the API is up
// @Tags         healthcheck
// @Produce      json
// @Success      200      {object}   response.MessageResponse
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "OK"})
}
