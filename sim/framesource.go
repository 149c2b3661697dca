package sim

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/rdk/components/camera"
)

// CameraFrameSource reads frames from a machine camera with a bounded wait
// per read.
type CameraFrameSource struct {
	cam camera.Camera
}

// NewCameraFrameSource wraps a camera resource.
func NewCameraFrameSource(cam camera.Camera) *CameraFrameSource {
	return &CameraFrameSource{cam: cam}
}

// NextFrame returns the next available frame, waiting at most timeout.
func (s *CameraFrameSource) NextFrame(ctx context.Context, timeout time.Duration) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	img, err := camera.DecodeImageFromCamera(ctx, s.cam, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read frame")
	}
	return img, nil
}
