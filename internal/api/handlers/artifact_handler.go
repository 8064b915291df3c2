package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mingainspire/better-bolt/internal/utils"
)

// ArtifactHandler exposes the saved visual breakdowns.
type ArtifactHandler struct {
	log *logrus.Logger
}

func NewArtifactHandler(log *logrus.Logger) *ArtifactHandler {
	return &ArtifactHandler{log: log}
}

func (h *ArtifactHandler) List(c *gin.Context) {
	list := artifactStore(c, h.log).List()
	if list == nil {
		c.JSON(http.StatusOK, gin.H{"artifacts": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifacts": list})
}

type saveArtifactRequest struct {
	Content string `json:"content"`
}

func (h *ArtifactHandler) Save(c *gin.Context) {
	const op = "ArtifactHandler.Save"

	var req saveArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	a, err := artifactStore(c, h.log).Save(req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
