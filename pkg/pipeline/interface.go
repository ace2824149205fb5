package pipeline

import "context"

// ProcessRequest describes one validated upload to run through the pipeline.
type ProcessRequest struct {
	// LocalPath is the uploaded image on local disk.
	LocalPath string
	// Filter is the requested style name.
	Filter string
	// DeviceToken, when set, addresses the completion notification.
	DeviceToken string
}

// ProcessResult is the outcome of a successful pipeline run.
type ProcessResult struct {
	ImageURL string
	Filter   string
}

// Service runs the upload -> transform -> upload -> notify sequence for one
// request.
type Service interface {
	Process(ctx context.Context, request ProcessRequest) (ProcessResult, error)
}
