package ravensim

import (
	"context"
	"fmt"
	"image"
	"testing"
	"time"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/data"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/robot"
	genericservice "go.viam.com/rdk/services/generic"
	rutils "go.viam.com/rdk/utils"
	"go.viam.com/test"

	"github.com/RAVEN-GP/raven-sim/sweep"
)

var _ resource.Resource = (*sweepService)(nil)

func minimalConfig() *Config {
	return &Config{
		CaptureSource: "front_camera",
		SimBridge:     "sim-bridge",
	}
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := minimalConfig()
	_, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)

	test.That(t, cfg.VehicleModel, test.ShouldEqual, "automobile")
	test.That(t, cfg.OutputDir, test.ShouldEqual, "dataset")
	test.That(t, cfg.Radius, test.ShouldEqual, 1.2)
	test.That(t, cfg.Heights, test.ShouldResemble, []float64{0.15, 0.25})
	test.That(t, cfg.AnglesDeg, test.ShouldResemble, []float64{-60, -40, -20, 0, 20, 40, 60})
	test.That(t, cfg.ShotsPerPose, test.ShouldEqual, 1)
	test.That(t, *cfg.SettleSec, test.ShouldEqual, 0.25)
}

func TestConfigValidateKeepsExplicitValues(t *testing.T) {
	cfg := minimalConfig()
	cfg.Radius = 2.5
	cfg.Heights = []float64{0.5}
	cfg.AnglesDeg = []float64{0, 90}
	cfg.ShotsPerPose = 3

	_, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Radius, test.ShouldEqual, 2.5)
	test.That(t, cfg.Heights, test.ShouldResemble, []float64{0.5})
	test.That(t, cfg.AnglesDeg, test.ShouldResemble, []float64{0, 90})
	test.That(t, cfg.ShotsPerPose, test.ShouldEqual, 3)
}

func TestConfigValidateAllowsZeroSettle(t *testing.T) {
	cfg := minimalConfig()
	settle := 0.0
	cfg.SettleSec = &settle

	_, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *cfg.SettleSec, test.ShouldEqual, 0.0)
}

func TestConfigValidateErrors(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing capture source", func(c *Config) { c.CaptureSource = "" }, "capture_source"},
		{"missing bridge", func(c *Config) { c.SimBridge = "" }, "sim_bridge"},
		{"negative radius", func(c *Config) { c.Radius = -1 }, "radius"},
		{"negative shots", func(c *Config) { c.ShotsPerPose = -1 }, "shots_per_pose"},
		{"negative settle", func(c *Config) { settle := -0.5; c.SettleSec = &settle }, "settle_sec"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := minimalConfig()
			tc.mutate(cfg)
			_, _, err := cfg.Validate("")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
		})
	}
}

type fakeMachine struct {
	robot.Robot
	resources map[string]resource.Resource
}

func (m *fakeMachine) ResourceByName(name resource.Name) (resource.Resource, error) {
	res, ok := m.resources[name.Name]
	if !ok {
		return nil, fmt.Errorf("resource %q not found", name.Name)
	}
	return res, nil
}

func (m *fakeMachine) Close(ctx context.Context) error {
	return nil
}

type fakeSimBridge struct {
	resource.Resource
}

func (b *fakeSimBridge) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	switch cmd["command"] {
	case "get-model-state":
		return map[string]interface{}{
			"success":  true,
			"position": map[string]interface{}{"x": 1.0, "y": 2.0, "z": 0.0},
		}, nil
	case "set-model-state":
		return map[string]interface{}{"success": true}, nil
	}
	return nil, fmt.Errorf("unexpected command %v", cmd["command"])
}

// gateCamera holds every frame read until release is closed.
type gateCamera struct {
	camera.Camera
	release chan struct{}
}

func (c *gateCamera) Images(ctx context.Context, filterSourceNames []string, extra map[string]interface{}) ([]camera.NamedImage, resource.ResponseMetadata, error) {
	select {
	case <-c.release:
	case <-ctx.Done():
		return nil, resource.ResponseMetadata{}, ctx.Err()
	}
	named, err := camera.NamedImageFromImage(image.NewRGBA(image.Rect(0, 0, 4, 4)), "color", rutils.MimeTypePNG, data.Annotations{})
	if err != nil {
		return nil, resource.ResponseMetadata{}, err
	}
	return []camera.NamedImage{named}, resource.ResponseMetadata{}, nil
}

func newTestService(t *testing.T, cam camera.Camera) resource.Resource {
	t.Helper()
	logger := logging.NewTestLogger(t)

	settle := 0.0
	cfg := &Config{
		CaptureSource: "front_camera",
		SimBridge:     "sim-bridge",
		OutputDir:     t.TempDir(),
		Heights:       []float64{0.15},
		AnglesDeg:     []float64{0},
		SettleSec:     &settle,
		Targets:       []sweep.TargetGroup{{Label: "STOP", Objects: []string{"STOP_A"}}},
	}
	_, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)

	machine := &fakeMachine{resources: map[string]resource.Resource{
		"sim-bridge":   &fakeSimBridge{},
		"front_camera": cam,
	}}

	svc, err := NewSweepCapturer(context.Background(), resource.NewName(genericservice.API, "capturer"), cfg, machine, logger)
	test.That(t, err, test.ShouldBeNil)
	return svc
}

func TestDoCommandStatusBeforeRun(t *testing.T) {
	svc := newTestService(t, &gateCamera{release: make(chan struct{})})
	defer svc.Close(context.Background())

	status, err := svc.DoCommand(context.Background(), map[string]interface{}{"command": "status"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status["running"], test.ShouldBeFalse)

	_, hasSaved := status["saved"]
	test.That(t, hasSaved, test.ShouldBeFalse)
}

func TestDoCommandRunGuardAndStatus(t *testing.T) {
	cam := &gateCamera{release: make(chan struct{})}
	svc := newTestService(t, cam)
	defer svc.Close(context.Background())

	resp, err := svc.DoCommand(context.Background(), map[string]interface{}{"command": "run"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp["status"], test.ShouldEqual, "started")

	// The sweep is gated on its first frame read, so a second run must be
	// rejected.
	_, err = svc.DoCommand(context.Background(), map[string]interface{}{"command": "run"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "already running")

	close(cam.release)

	var status map[string]interface{}
	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err = svc.DoCommand(context.Background(), map[string]interface{}{"command": "status"})
		test.That(t, err, test.ShouldBeNil)
		if status["running"] == false || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	test.That(t, status["running"], test.ShouldBeFalse)
	test.That(t, status["saved"], test.ShouldEqual, 1)
	test.That(t, status["objects_skipped"], test.ShouldEqual, 0)
	test.That(t, status["poses_skipped"], test.ShouldEqual, 0)
	test.That(t, status["shots_skipped"], test.ShouldEqual, 0)

	_, hasErr := status["error"]
	test.That(t, hasErr, test.ShouldBeFalse)

	// A finished sweep can be re-run.
	resp, err = svc.DoCommand(context.Background(), map[string]interface{}{"command": "run"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp["status"], test.ShouldEqual, "started")
}
