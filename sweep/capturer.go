// Package sweep positions a simulated vehicle around labeled scene objects
// and captures one camera frame per pose, producing a labeled image dataset.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/spatialmath"
	goutils "go.viam.com/utils"
)

// TargetGroup pairs a class label with the scene objects belonging to it.
type TargetGroup struct {
	Label   string   `json:"label"`
	Objects []string `json:"objects"`
}

// DefaultTargetGroups mirrors the sign layout of the stock simulation world.
func DefaultTargetGroups() []TargetGroup {
	return []TargetGroup{
		{Label: "STOP", Objects: []string{"STOP_A", "STOP_C", "STOP_E", "STOP_G", "STOP_W", "STOP_Y", "STOP_Z"}},
		{Label: "PARKING", Objects: []string{"PRK_P1", "PRK_P2", "PRK_P3", "PRK_P4"}},
	}
}

// Params are the sweep geometry and capture pacing settings.
type Params struct {
	VehicleModel string
	// Radius is the distance from the target in meters.
	Radius float64
	// Heights are offsets relative to the target's z, in meters.
	Heights []float64
	// Angles around the target in the horizontal plane, in radians.
	Angles       []float64
	ShotsPerPose int
	// SettleDelay is the pause after each vehicle move before sampling.
	SettleDelay time.Duration
	// PreflightTimeout bounds the single probe frame read before the sweep.
	PreflightTimeout time.Duration
	// ShotTimeout bounds each per-shot frame read. Shorter than preflight.
	ShotTimeout time.Duration
}

// Validate checks the sweep parameters and fills in the capture timeouts.
func (p *Params) Validate() error {
	if p.VehicleModel == "" {
		return errors.New("vehicle model name is required")
	}
	if p.Radius <= 0 {
		return errors.New("radius must be greater than 0")
	}
	if len(p.Heights) == 0 {
		return errors.New("at least one height is required")
	}
	if len(p.Angles) == 0 {
		return errors.New("at least one angle is required")
	}
	if p.ShotsPerPose <= 0 {
		return errors.New("shots_per_pose must be greater than 0")
	}
	if p.SettleDelay < 0 {
		return errors.New("settle delay must not be negative")
	}
	if p.PreflightTimeout == 0 {
		p.PreflightTimeout = 5 * time.Second
	}
	if p.ShotTimeout == 0 {
		p.ShotTimeout = 2 * time.Second
	}
	return nil
}

// PoseGetter reads the world position of a named scene model.
type PoseGetter interface {
	ModelPosition(ctx context.Context, name string) (r3.Vector, error)
}

// PoseSetter commands a named scene model to a full pose in the world frame.
type PoseSetter interface {
	SetModelPose(ctx context.Context, name string, pose spatialmath.Pose) error
}

// FrameSource returns the next available camera frame within the timeout.
type FrameSource interface {
	NextFrame(ctx context.Context, timeout time.Duration) (image.Image, error)
}

// FrameWriter persists one captured frame under a label/object-indexed
// filename and returns the destination path.
type FrameWriter interface {
	WriteFrame(label, object string, index int, img image.Image) (string, error)
}

// Summary counts the outcome of one sweep.
type Summary struct {
	Saved          int `json:"saved"`
	ObjectsSkipped int `json:"objects_skipped"`
	PosesSkipped   int `json:"poses_skipped"`
	ShotsSkipped   int `json:"shots_skipped"`
}

// Capturer runs the pose sweep against the simulator collaborators. All
// per-item failures are logged and skipped; only a failed pre-flight probe
// aborts the run.
type Capturer struct {
	groups  []TargetGroup
	params  Params
	scene   PoseGetter
	vehicle PoseSetter
	frames  FrameSource
	writer  FrameWriter
	logger  logging.Logger
}

// NewCapturer validates the parameters and builds a capturer.
func NewCapturer(
	groups []TargetGroup,
	params Params,
	scene PoseGetter,
	vehicle PoseSetter,
	frames FrameSource,
	writer FrameWriter,
	logger logging.Logger,
) (*Capturer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		groups = DefaultTargetGroups()
	}
	return &Capturer{
		groups:  groups,
		params:  params,
		scene:   scene,
		vehicle: vehicle,
		frames:  frames,
		writer:  writer,
		logger:  logger,
	}, nil
}

// Preflight probes the frame source once with the long timeout. A failure
// here means the capture source is misconfigured or not publishing.
func (c *Capturer) Preflight(ctx context.Context) error {
	if _, err := c.frames.NextFrame(ctx, c.params.PreflightTimeout); err != nil {
		return fmt.Errorf(
			"no frames available on the configured source within %v - verify the capture source name: %w",
			c.params.PreflightTimeout, err)
	}
	return nil
}

// Run executes the full sweep: group order, then object order, then heights
// (outer) and angles (inner), exactly as configured. It returns early only if
// the pre-flight probe fails or the context is cancelled.
func (c *Capturer) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	if err := c.Preflight(ctx); err != nil {
		return sum, err
	}
	c.logger.Info("capture source OK, starting sweep")

	for _, group := range c.groups {
		for _, object := range group.Objects {
			if err := c.sweepObject(ctx, group.Label, object, &sum); err != nil {
				return sum, err
			}
		}
	}

	c.logger.Infof("sweep done: %d saved, skipped %d objects / %d poses / %d shots",
		sum.Saved, sum.ObjectsSkipped, sum.PosesSkipped, sum.ShotsSkipped)
	return sum, nil
}

func (c *Capturer) sweepObject(ctx context.Context, label, object string, sum *Summary) error {
	target, err := c.scene.ModelPosition(ctx, object)
	if err != nil {
		c.logger.Warnf("could not find model %q, skipping: %v", object, err)
		sum.ObjectsSkipped++
		return nil
	}

	// The frame index is shared across all heights and angles of one object
	// and advances only on successful writes.
	idx := 0
	for _, height := range c.params.Heights {
		for _, angle := range c.params.Angles {
			if err := ctx.Err(); err != nil {
				return err
			}

			pose := PoseAround(target, c.params.Radius, height, angle)
			if err := c.vehicle.SetModelPose(ctx, c.params.VehicleModel, pose.Spatial()); err != nil {
				c.logger.Warnf("failed to move %q for %q (height=%.2f angle=%.2f): %v",
					c.params.VehicleModel, object, height, angle, err)
				sum.PosesSkipped++
				continue
			}

			if !goutils.SelectContextOrWait(ctx, c.params.SettleDelay) {
				return ctx.Err()
			}

			for shot := 0; shot < c.params.ShotsPerPose; shot++ {
				img, err := c.frames.NextFrame(ctx, c.params.ShotTimeout)
				if err != nil {
					c.logger.Warnf("frame capture failed at %q: %v", object, err)
					sum.ShotsSkipped++
					continue
				}

				path, err := c.writer.WriteFrame(label, object, idx+1, img)
				if err != nil {
					c.logger.Errorf("failed to save frame for %q: %v", object, err)
					sum.ShotsSkipped++
					continue
				}
				idx++
				sum.Saved++
				c.logger.Infof("saved %s", path)
			}
		}
	}
	return nil
}
