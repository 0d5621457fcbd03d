package client

import (
	"context"

	"github.com/menta2k/image-annotator/pkg/types"
)

// VisionClient is implemented by vision model backends.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	DetectObjects(ctx context.Context, model, prompt, imgB64 string) (*types.DetectionResult, error)
}
