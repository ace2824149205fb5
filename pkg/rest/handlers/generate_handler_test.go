package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixmix/pixmix-backend/pkg/pipeline"
	mock_pipeline "github.com/pixmix/pixmix-backend/pkg/pipeline/mocks"
	mock_tokenregistry "github.com/pixmix/pixmix-backend/pkg/tokenregistry/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type generateForm struct {
	fileField   string
	fileName    string
	contentType string
	payload     []byte
	fields      map[string]string
}

func defaultGenerateForm() generateForm {
	return generateForm{
		fileField:   "image",
		fileName:    "photo.png",
		contentType: "image/png",
		payload:     []byte("fake png bytes"),
		fields:      map[string]string{"filter": "Ghibli"},
	}
}

func newGenerateRequest(t *testing.T, form generateForm) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if form.fileField != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="`+form.fileField+`"; filename="`+form.fileName+`"`)
		header.Set("Content-Type", form.contentType)

		part, err := writer.CreatePart(header)
		require.NoError(t, err)

		_, err = part.Write(form.payload)
		require.NoError(t, err)
	}

	for name, value := range form.fields {
		require.NoError(t, writer.WriteField(name, value))
	}

	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func performGenerate(t *testing.T, handler *GenerateHandler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)
	require.NoError(t, handler.Handle(ctx))
	return rec
}

func TestGenerateHandler_ReturnsProcessedImageURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pipelineMock := mock_pipeline.NewMockService(ctrl)
	pipelineMock.EXPECT().
		Process(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, request pipeline.ProcessRequest) (pipeline.ProcessResult, error) {
			assert.Equal(t, "Ghibli", request.Filter)
			assert.Equal(t, "device-token-1", request.DeviceToken)
			assert.FileExists(t, request.LocalPath)

			saved, err := os.ReadFile(request.LocalPath)
			require.NoError(t, err)
			assert.Equal(t, []byte("fake png bytes"), saved)

			return pipeline.ProcessResult{
				ImageURL: "https://cdn.example.com/bucket/processed/photo.png",
				Filter:   "Ghibli",
			}, nil
		})

	handler := NewGenerateHandler(pipelineMock, nil, t.TempDir(), testLogger())

	form := defaultGenerateForm()
	form.fields["fcmToken"] = "device-token-1"

	rec := performGenerate(t, handler, newGenerateRequest(t, form))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"success": true,
		"imageUrl": "https://cdn.example.com/bucket/processed/photo.png",
		"filter": "Ghibli"
	}`, rec.Body.String())
}

func TestGenerateHandler_FallsBackToRegisteredToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registryMock := mock_tokenregistry.NewMockRegistry(ctrl)
	registryMock.EXPECT().
		Fetch(gomock.Any(), "user-1").
		Return("registered-device-token", true, nil)

	pipelineMock := mock_pipeline.NewMockService(ctrl)
	pipelineMock.EXPECT().
		Process(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, request pipeline.ProcessRequest) (pipeline.ProcessResult, error) {
			assert.Equal(t, "registered-device-token", request.DeviceToken)
			return pipeline.ProcessResult{ImageURL: "https://cdn.example.com/x", Filter: request.Filter}, nil
		})

	handler := NewGenerateHandler(pipelineMock, registryMock, t.TempDir(), testLogger())

	req := newGenerateRequest(t, defaultGenerateForm())
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)
	ctx.Set("user_id", "user-1")
	require.NoError(t, handler.Handle(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateHandler_RejectsMissingImage(t *testing.T) {
	handler := NewGenerateHandler(nil, nil, t.TempDir(), testLogger())

	form := defaultGenerateForm()
	form.fileField = ""

	rec := performGenerate(t, handler, newGenerateRequest(t, form))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No image file provided")
}

func TestGenerateHandler_RejectsMissingFilter(t *testing.T) {
	handler := NewGenerateHandler(nil, nil, t.TempDir(), testLogger())

	form := defaultGenerateForm()
	delete(form.fields, "filter")

	rec := performGenerate(t, handler, newGenerateRequest(t, form))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Filter type is required")
}

func TestGenerateHandler_RejectsNonImageUpload(t *testing.T) {
	handler := NewGenerateHandler(nil, nil, t.TempDir(), testLogger())

	form := defaultGenerateForm()
	form.fileName = "notes.txt"
	form.contentType = "text/plain"

	rec := performGenerate(t, handler, newGenerateRequest(t, form))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only image files are allowed")
}

func TestGenerateHandler_ReportsPipelineFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pipelineMock := mock_pipeline.NewMockService(ctrl)
	pipelineMock.EXPECT().
		Process(gomock.Any(), gomock.Any()).
		Return(pipeline.ProcessResult{}, errors.New("transform backend is down"))

	handler := NewGenerateHandler(pipelineMock, nil, t.TempDir(), testLogger())

	rec := performGenerate(t, handler, newGenerateRequest(t, defaultGenerateForm()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Image processing failed")
	assert.Contains(t, rec.Body.String(), "transform backend is down")
}
