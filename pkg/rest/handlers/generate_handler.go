package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pixmix/pixmix-backend/pkg/pipeline"
	"github.com/pixmix/pixmix-backend/pkg/tokenregistry"
)

const maxUploadSize = 10 << 20 // 10MB

type GenerateResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
	Filter   string `json:"filter"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// GenerateHandler accepts a multipart image upload plus a filter name and
// runs them through the processing pipeline.
type GenerateHandler struct {
	pipeline   pipeline.Service
	registry   tokenregistry.Registry
	uploadsDir string
	logger     *slog.Logger
}

func NewGenerateHandler(pipelineService pipeline.Service, registry tokenregistry.Registry, uploadsDir string, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		pipeline:   pipelineService,
		registry:   registry,
		uploadsDir: uploadsDir,
		logger:     logger,
	}
}

func (h *GenerateHandler) Handle(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No image file provided"})
	}

	if fileHeader.Size > maxUploadSize {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Image file exceeds the 10MB limit"})
	}

	if !strings.HasPrefix(fileHeader.Header.Get(echo.HeaderContentType), "image/") {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Only image files are allowed"})
	}

	filter := c.FormValue("filter")
	if filter == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Filter type is required"})
	}

	localPath, err := h.saveUpload(fileHeader)
	if err != nil {
		h.logger.Error("saving uploaded image failed", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Image processing failed",
			Message: "could not persist uploaded image",
		})
	}

	h.logger.Info("processing image", "filter", filter, "path", localPath)

	result, err := h.pipeline.Process(c.Request().Context(), pipeline.ProcessRequest{
		LocalPath:   localPath,
		Filter:      filter,
		DeviceToken: h.deviceToken(c),
	})
	if err != nil {
		h.logger.Error("pipeline failed", "error", err, "filter", filter)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Image processing failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, GenerateResponse{
		Success:  true,
		ImageURL: result.ImageURL,
		Filter:   result.Filter,
	})
}

// deviceToken prefers the token sent with the request and falls back to the
// one registered for the authenticated user. Either may be empty; the
// notification is best-effort downstream.
func (h *GenerateHandler) deviceToken(c echo.Context) string {
	if token := c.FormValue("fcmToken"); token != "" {
		return token
	}

	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return ""
	}

	token, found, err := h.registry.Fetch(c.Request().Context(), userID)
	if err != nil || !found {
		return ""
	}

	return token
}

// saveUpload writes the multipart file under a collision-resistant name so
// concurrent requests never contend over storage keys.
func (h *GenerateHandler) saveUpload(fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), filepath.Ext(fileHeader.Filename))
	localPath := filepath.Join(h.uploadsDir, fileName)

	dst, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return localPath, nil
}
