package transform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const defaultServiceURL = "https://api.openai.com/v1/images/edits"

type httpRequestFunc func(req *http.Request) (*http.Response, error)

type Config struct {
	// ServiceURL is the image-edit endpoint; defaults to the OpenAI API.
	ServiceURL string
	APIKey     string
	// OutputDir receives the decoded result images.
	OutputDir string
}

type transformService struct {
	config      Config
	makeRequest httpRequestFunc
}

var _ Transformer = (*transformService)(nil)

func NewTransformService(config Config) Transformer {
	if config.ServiceURL == "" {
		config.ServiceURL = defaultServiceURL
	}

	return &transformService{config, http.DefaultClient.Do}
}

type editResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (t *transformService) Transform(ctx context.Context, localImagePath, filterName string) (string, error) {
	if _, err := os.Stat(localImagePath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, localImagePath)
	}

	req, err := t.buildRequest(ctx, localImagePath, Instruction(filterName))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTransformUnavailable, err)
	}

	response, err := t.makeRequest(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTransformUnavailable, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTransformUnavailable, err)
	}

	var parsed editResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %s", ErrTransformUnavailable, err)
	}

	if response.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("%w: %s", ErrTransformUnavailable, parsed.Error.Message)
		}
		return "", fmt.Errorf("%w: status %d", ErrTransformUnavailable, response.StatusCode)
	}

	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return "", ErrNoImageInResponse
	}

	imageBytes, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoImageInResponse, err)
	}

	return t.writeResult(localImagePath, imageBytes)
}

func (t *transformService) buildRequest(ctx context.Context, localImagePath, instruction string) (*http.Request, error) {
	imageFile, err := os.Open(localImagePath)
	if err != nil {
		return nil, err
	}
	defer imageFile.Close()

	var buffer bytes.Buffer
	form := multipart.NewWriter(&buffer)

	imagePart, err := form.CreateFormFile("image", filepath.Base(localImagePath))
	if err != nil {
		return nil, err
	}

	if _, err := io.Copy(imagePart, imageFile); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"model":           "gpt-image-1",
		"prompt":          instruction,
		"n":               "1",
		"size":            "1024x1024",
		"response_format": "b64_json",
	}

	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return nil, err
		}
	}

	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.ServiceURL, &buffer)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+t.config.APIKey)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req, nil
}

func (t *transformService) writeResult(localImagePath string, imageBytes []byte) (string, error) {
	if err := os.MkdirAll(t.config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %s", ErrTransformUnavailable, err)
	}

	fileName := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), filepath.Ext(localImagePath))
	outputPath := filepath.Join(t.config.OutputDir, fileName)

	if err := os.WriteFile(outputPath, imageBytes, 0o644); err != nil {
		return "", fmt.Errorf("%w: %s", ErrTransformUnavailable, err)
	}

	return outputPath, nil
}

var (
	ErrSourceNotFound       = errors.New("source image not found")
	ErrNoImageInResponse    = errors.New("no image data in transform response")
	ErrTransformUnavailable = errors.New("transform service unavailable")
)
