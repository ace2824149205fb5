package transform

import "context"

// Transformer applies a named filter to a local image through the remote
// image-editing service and writes the result to a fresh local path.
type Transformer interface {
	// Transform sends the image at localImagePath with the instruction
	// resolved from filterName and returns the path of the written result.
	// One attempt per call; retrying is up to the caller.
	Transform(ctx context.Context, localImagePath, filterName string) (string, error)
}
