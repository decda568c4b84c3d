package editor

import (
	"context"
	"fmt"
	"goods-manager/thumbnail"
	"image"

	"github.com/sirupsen/logrus"
)

// Facing selects which camera to open.
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Toggle returns the other camera.
func (f Facing) Toggle() Facing {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

type (
	// Camera grants access to a capture device.
	Camera interface {
		Open(ctx context.Context, facing Facing) (Stream, error)
	}

	// Stream is an open capture session. Stop must release the device.
	Stream interface {
		Frame(ctx context.Context) (image.Image, error)
		Capabilities() Capabilities
		SetTorch(on bool) error
		Stop()
	}

	// Capabilities reports optional device features.
	Capabilities struct {
		Torch bool
	}
)

// CaptureSource takes one frame from a Camera and normalizes it to a square
// thumbnail at capture quality. Frames from the front camera are mirrored.
type CaptureSource struct {
	Camera Camera
	Facing Facing
	Size   int
	// Torch turns on auxiliary lighting when the device supports it.
	Torch bool
}

func (c CaptureSource) AcquireImage(ctx context.Context) ([]byte, error) {
	facing := c.Facing
	if facing == "" {
		facing = FacingEnvironment
	}
	size := c.Size
	if size <= 0 {
		size = thumbnail.DefaultSize
	}
	log := logrus.WithField("facing", facing)

	stream, err := c.Camera.Open(ctx, facing)
	if err != nil {
		log.WithError(err).Warn("Failed to open camera")
		return nil, fmt.Errorf("open camera: %w", err)
	}
	defer stream.Stop()

	if c.Torch {
		if stream.Capabilities().Torch {
			if err := stream.SetTorch(true); err != nil {
				log.WithError(err).Warn("Failed to turn on torch")
			}
		} else {
			log.Debug("Torch requested but not supported")
		}
	}

	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}
	return thumbnail.Capture(frame, size, facing == FacingUser)
}
