// Package sim provides the simulator-facing collaborators of the sweep:
// model state access over a generic bridge resource, camera frame reads, and
// the labeled dataset layout on disk.
package sim

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/rdk/components/generic"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/robot"
	"go.viam.com/rdk/spatialmath"
)

// WorldFrame is the reference frame all sweep poses are expressed in.
const WorldFrame = "world"

// ModelStateClient drives the simulator bridge component, a generic resource
// that exposes the simulator's model state services over DoCommand.
type ModelStateClient struct {
	bridge resource.Resource
	frame  string
	logger logging.Logger
}

// NewModelStateClient looks up the bridge component on the machine.
func NewModelStateClient(robotClient robot.Robot, bridgeName string, logger logging.Logger) (*ModelStateClient, error) {
	name := resource.NewName(generic.API, bridgeName)
	res, err := robotClient.ResourceByName(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get simulator bridge %q", bridgeName)
	}
	return NewModelStateClientFromResource(res, logger), nil
}

// NewModelStateClientFromResource wraps an already-resolved bridge resource.
func NewModelStateClientFromResource(res resource.Resource, logger logging.Logger) *ModelStateClient {
	return &ModelStateClient{bridge: res, frame: WorldFrame, logger: logger}
}

// ModelPosition queries the world position of a named scene model.
func (c *ModelStateClient) ModelPosition(ctx context.Context, name string) (r3.Vector, error) {
	resp, err := c.bridge.DoCommand(ctx, map[string]interface{}{
		"command":         "get-model-state",
		"name":            name,
		"reference_frame": c.frame,
	})
	if err != nil {
		return r3.Vector{}, errors.Wrapf(err, "failed to get model state for %q", name)
	}
	if success, ok := resp["success"].(bool); ok && !success {
		msg, _ := resp["status_message"].(string)
		return r3.Vector{}, errors.Errorf("model %q not found: %s", name, msg)
	}
	position, ok := resp["position"].(map[string]interface{})
	if !ok {
		return r3.Vector{}, errors.Errorf("model state for %q has no position map", name)
	}
	x, ok := position["x"].(float64)
	if !ok {
		return r3.Vector{}, errors.Errorf("model state position x for %q is not a float", name)
	}
	y, ok := position["y"].(float64)
	if !ok {
		return r3.Vector{}, errors.Errorf("model state position y for %q is not a float", name)
	}
	z, ok := position["z"].(float64)
	if !ok {
		return r3.Vector{}, errors.Errorf("model state position z for %q is not a float", name)
	}
	c.logger.Debugf("model %q at (%.3f, %.3f, %.3f)", name, x, y, z)

	return r3.Vector{X: x, Y: y, Z: z}, nil
}

// SetModelPose commands a named scene model to the given pose in the world
// frame. The previous pose is fully overwritten.
func (c *ModelStateClient) SetModelPose(ctx context.Context, name string, pose spatialmath.Pose) error {
	pt := pose.Point()
	q := pose.Orientation().Quaternion()
	resp, err := c.bridge.DoCommand(ctx, map[string]interface{}{
		"command":         "set-model-state",
		"name":            name,
		"reference_frame": c.frame,
		"position": map[string]interface{}{
			"x": pt.X,
			"y": pt.Y,
			"z": pt.Z,
		},
		"orientation": map[string]interface{}{
			"x": q.Imag,
			"y": q.Jmag,
			"z": q.Kmag,
			"w": q.Real,
		},
	})
	if err != nil {
		return errors.Wrapf(err, "failed to set model state for %q", name)
	}
	if success, ok := resp["success"].(bool); ok && !success {
		msg, _ := resp["status_message"].(string)
		return errors.Errorf("simulator rejected pose for %q: %s", name, msg)
	}
	return nil
}
