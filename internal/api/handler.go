package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/audit-report-converter/internal/config"
	"github.com/insightdelivered/audit-report-converter/internal/models"
	"github.com/insightdelivered/audit-report-converter/internal/parser"
)

const version = "1.0.0"

// ParseResponse is the JSON response from the /api/parse endpoint.
type ParseResponse struct {
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
	Family   string           `json:"family,omitempty"`
	Count    int              `json:"count"`
	ByTopic  map[string]int   `json:"byTopic,omitempty"`
	Messages []models.Message `json:"messages"`
	Version  string           `json:"version,omitempty"`
}

// NewApp builds the Fiber application with all routes registered.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 64 << 20, // report files can be large
	})
	app.Get("/api/health", HandleHealth)
	app.Post("/api/parse", HandleParse)
	return app
}

// HandleHealth reports service liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
	})
}

// HandleParse accepts a multipart report upload (form field "file", optional
// "family" of TRR/STL/SAR) and returns the normalized messages.
func HandleParse(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}

	family, err := resolveFamily(c.FormValue("family"), fileHeader.Filename)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	// Keep the original extension so gzip detection still works.
	tmp, err := os.CreateTemp("", "report-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "Failed to create temp file.")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveFile(fileHeader, tmpPath); err != nil {
		return writeError(c, fiber.StatusInternalServerError, "Failed to save uploaded file.")
	}

	messages, err := parser.ParseFileWithConfig(tmpPath, family, config.Default())
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Parsing failed: %v", err))
	}

	byTopic := make(map[string]int)
	for i := range messages {
		byTopic[messages[i].QueueTopic()]++
	}

	// nil marshals to JSON null, not []
	if messages == nil {
		messages = []models.Message{}
	}

	return c.JSON(ParseResponse{
		Success:  true,
		Family:   string(family),
		Count:    len(messages),
		ByTopic:  byTopic,
		Messages: messages,
		Version:  version,
	})
}

func resolveFamily(param, filename string) (models.Family, error) {
	if param == "" {
		return parser.DetectFamily(filename)
	}
	switch models.Family(strings.ToUpper(param)) {
	case models.FamilyTransactionDetail:
		return models.FamilyTransactionDetail, nil
	case models.FamilySettlement:
		return models.FamilySettlement, nil
	case models.FamilySubscription:
		return models.FamilySubscription, nil
	default:
		return "", fmt.Errorf("unknown report family %q. Use TRR, STL, or SAR", param)
	}
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ParseResponse{
		Success:  false,
		Error:    msg,
		Messages: []models.Message{},
	})
}
