package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// HandleExtractedText serves a saved text file by name
func (h *Handler) HandleExtractedText(c *gin.Context) {
	name := c.Param("file")

	// Prevent directory traversal attacks
	fullPath, ok := h.store.Resolve(name)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid file path")
		return
	}

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		c.String(http.StatusNotFound, "Not found")
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.File(fullPath)
}

func (h *Handler) HandleHealthcheck(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
