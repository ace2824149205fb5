package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pixmix/pixmix-backend/pkg/notify"
	"github.com/pixmix/pixmix-backend/pkg/storage"
	"github.com/pixmix/pixmix-backend/pkg/transform"
)

const (
	originalsNamespace = "originals"
	processedNamespace = "processed"
)

type pipelineService struct {
	store       storage.Store
	transformer transform.Transformer
	dispatcher  notify.Dispatcher
	logger      *slog.Logger
}

var _ Service = (*pipelineService)(nil)

func NewPipelineService(
	store storage.Store,
	transformer transform.Transformer,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
) Service {
	return &pipelineService{
		store:       store,
		transformer: transformer,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Process runs the strictly sequential pipeline. Steps are attempted once,
// earlier steps are not rolled back on later failure, and the optional
// notification step never affects the outcome.
func (p *pipelineService) Process(ctx context.Context, request ProcessRequest) (ProcessResult, error) {
	if request.LocalPath == "" || request.Filter == "" {
		return ProcessResult{}, ErrBadRequest
	}

	originalKey := originalsNamespace + "/" + filepath.Base(request.LocalPath)
	originalURI, err := p.store.Upload(ctx, request.LocalPath, originalKey)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("%w: uploading original: %s", ErrProcessingFailed, err)
	}
	p.logger.Info("uploaded original image", "uri", originalURI)

	resultPath, err := p.transformer.Transform(ctx, request.LocalPath, request.Filter)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("%w: transforming image: %s", ErrProcessingFailed, err)
	}
	p.logger.Info("transform complete", "path", resultPath, "filter", request.Filter)

	processedKey := processedNamespace + "/" + filepath.Base(resultPath)
	processedURI, err := p.store.Upload(ctx, resultPath, processedKey)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("%w: uploading processed image: %s", ErrProcessingFailed, err)
	}
	p.logger.Info("uploaded processed image", "uri", processedURI)

	publicURL, err := p.store.PublicURL(processedURI)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("%w: resolving public URL: %s", ErrProcessingFailed, err)
	}

	if request.DeviceToken != "" {
		if err := p.dispatcher.Send(ctx, request.DeviceToken, publicURL, request.Filter); err != nil {
			// Best effort: a failed notification never fails the request.
			p.logger.Error("notification dispatch failed", "error", err)
		} else {
			p.logger.Info("notification sent", "filter", request.Filter)
		}
	}

	return ProcessResult{
		ImageURL: publicURL,
		Filter:   request.Filter,
	}, nil
}

var (
	ErrBadRequest       = errors.New("image payload and filter name are required")
	ErrProcessingFailed = errors.New("image processing failed")
)
