package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lehigh-university-libraries/pathfinder/internal/learningpath"
	"github.com/lehigh-university-libraries/pathfinder/internal/models"
)

const defaultPathLength = 30 * 24 * time.Hour

var errEmptyPath = errors.New("learning path has no modules")

// HandleOCR runs the full pipeline: save upload, OCR, learning path generation
func (h *Handler) HandleOCR(c *gin.Context) {
	header, ok := h.formFile(c)
	if !ok {
		return
	}

	now := h.now()
	startDate := c.PostForm("startDate")
	if startDate == "" {
		startDate = learningpath.FormatISO(now)
	}
	endDate := c.PostForm("endDate")
	if endDate == "" {
		endDate = learningpath.FormatISO(now.Add(defaultPathLength))
	}

	uploadPath, err := h.saveUpload(header)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			h.writeError(c, http.StatusRequestEntityTooLarge, "File too large", nil)
			return
		}
		h.processingFailed(c, err)
		return
	}

	ctx := c.Request.Context()
	extracted, err := h.extract(ctx, uploadPath)
	if err != nil {
		h.processingFailed(c, err)
		return
	}

	pathJSON, err := h.generator.Generate(ctx, h.userID(c), extracted.Text, startDate, endDate)
	h.metrics.IncGeneration(h.generator.Provider(), err)
	if err != nil {
		if errors.Is(err, learningpath.ErrNoLearningPath) {
			h.writeError(c, http.StatusInternalServerError, "Failed to generate learning path", err)
			return
		}
		h.processingFailed(c, err)
		return
	}

	count, err := learningpath.ModuleCount(pathJSON)
	if err == nil && count == 0 {
		err = errEmptyPath
	}
	if err != nil {
		h.writeError(c, http.StatusInternalServerError, "Failed to generate learning path", err)
		return
	}

	// the typed model is only for the debug dump
	if path, err := learningpath.Decode(pathJSON); err == nil {
		h.logLearningPath(path)
	} else {
		h.log.Debug("Learning path fields do not match the typed model", "modules", count, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"result":     extracted.Text,
		"savedUrl":   h.store.URL(extracted.SavedPath),
		"aiResponse": pathJSON,
	})
}

// HandleUploadSyllabus runs OCR only and returns the extracted text
func (h *Handler) HandleUploadSyllabus(c *gin.Context) {
	header, ok := h.formFile(c)
	if !ok {
		return
	}

	uploadPath, err := h.saveUpload(header)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			h.writeError(c, http.StatusRequestEntityTooLarge, "File too large", nil)
			return
		}
		h.writeError(c, http.StatusInternalServerError, "Error processing file", err)
		return
	}

	extracted, err := h.extract(c.Request.Context(), uploadPath)
	if err != nil {
		h.writeError(c, http.StatusInternalServerError, "Error processing file", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File processed successfully",
		"text":    extracted.Text,
	})
}

func (h *Handler) processingFailed(c *gin.Context, err error) {
	h.log.Error("Error processing file", "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Failed to process file",
		"details": err.Error(),
	})
}

func (h *Handler) logLearningPath(path *models.LearningPath) {
	h.log.Info("Learning path generated",
		"course", path.CourseName,
		"modules", len(path.Modules),
		"start_date", path.StartDate,
		"end_date", path.EndDate,
	)
	for _, m := range path.Modules {
		h.log.Debug("Module",
			"id", m.ID,
			"title", m.Title,
			"duration", string(m.Duration),
			"hours", string(m.HoursRequired),
			"start_date", m.StartDate,
			"end_date", m.EndDate,
			"status", m.Status,
		)
		if m.Quiz == nil {
			continue
		}
		for i, q := range m.Quiz.Questions {
			h.log.Debug("Quiz question",
				"module", m.ID,
				"number", i+1,
				"question", q.Question,
				"options", q.Options,
				"correct_answer", q.CorrectAnswer,
			)
		}
	}
}
