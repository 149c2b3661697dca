// Package ravensim registers the sweep-capturer modular service: it drives a
// simulated vehicle around labeled sign models and saves camera frames per
// pose to build a labeled image dataset.
package ravensim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erh/vmodutils"
	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/robot"
	genericservice "go.viam.com/rdk/services/generic"
	goutils "go.viam.com/utils"

	"github.com/RAVEN-GP/raven-sim/sim"
	"github.com/RAVEN-GP/raven-sim/sweep"
	"github.com/RAVEN-GP/raven-sim/utils"
)

var (
	// SweepCapturer is the model triplet of the capture service.
	SweepCapturer = resource.NewModel("raven-gp", "raven-sim", "sweep-capturer")
)

func init() {
	resource.RegisterService(genericservice.API, SweepCapturer,
		resource.Registration[resource.Resource, *Config]{
			Constructor: newSweepCapturer,
		},
	)
}

// Config mirrors the original capture script's flags. Zero values take the
// defaults of the stock simulation world.
type Config struct {
	CaptureSource string              `json:"capture_source"`
	SimBridge     string              `json:"sim_bridge"`
	VehicleModel  string              `json:"vehicle_model"`
	OutputDir     string              `json:"output_dir"`
	Radius        float64             `json:"radius"`
	Heights       []float64           `json:"heights"`
	AnglesDeg     []float64           `json:"angles_deg"`
	ShotsPerPose  int                 `json:"shots_per_pose"`
	SettleSec     *float64            `json:"settle_sec,omitempty"`
	Targets       []sweep.TargetGroup `json:"targets,omitempty"`
	RunOnStart    bool                `json:"run_on_start"`
}

// Validate ensures all parts of the config are valid and important fields exist.
// Returns implicit required (first return) and optional (second return) dependencies based on the config.
func (cfg *Config) Validate(path string) ([]string, []string, error) {
	if cfg.CaptureSource == "" {
		return nil, nil, errors.New("capture_source is required")
	}
	if cfg.SimBridge == "" {
		return nil, nil, errors.New("sim_bridge is required")
	}
	if cfg.Radius < 0 {
		return nil, nil, errors.New("radius must not be negative")
	}
	if cfg.ShotsPerPose < 0 {
		return nil, nil, errors.New("shots_per_pose must not be negative")
	}
	if cfg.SettleSec != nil && *cfg.SettleSec < 0 {
		return nil, nil, errors.New("settle_sec must not be negative")
	}
	// Set defaults for optional parameters
	if cfg.VehicleModel == "" {
		cfg.VehicleModel = "automobile"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "dataset"
	}
	if cfg.Radius == 0 {
		cfg.Radius = 1.2
	}
	if len(cfg.Heights) == 0 {
		cfg.Heights = []float64{0.15, 0.25}
	}
	if len(cfg.AnglesDeg) == 0 {
		cfg.AnglesDeg = []float64{-60, -40, -20, 0, 20, 40, 60}
	}
	if cfg.ShotsPerPose == 0 {
		cfg.ShotsPerPose = 1
	}
	// An explicit zero settle is allowed; only a missing value takes the
	// default.
	if cfg.SettleSec == nil {
		settle := 0.25
		cfg.SettleSec = &settle
	}
	return nil, nil, nil
}

type sweepService struct {
	resource.AlwaysRebuild

	name resource.Name

	logger logging.Logger
	cfg    *Config

	robotClient robot.Robot
	worker      *goutils.StoppableWorkers

	mu          sync.Mutex
	running     bool
	lastSummary *sweep.Summary
	lastErr     string
}

func newSweepCapturer(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (resource.Resource, error) {
	conf, err := resource.NativeConfig[*Config](rawConf)
	if err != nil {
		return nil, err
	}

	machine, err := vmodutils.ConnectToMachineFromEnv(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to machine: %w", err)
	}

	return NewSweepCapturer(ctx, rawConf.ResourceName(), conf, machine, logger)
}

// NewSweepCapturer builds the service against an already-connected machine
// hosting the simulator bridge and capture camera.
func NewSweepCapturer(ctx context.Context, name resource.Name, conf *Config, machine robot.Robot, logger logging.Logger) (resource.Resource, error) {
	s := &sweepService{
		name:        name,
		logger:      logger,
		cfg:         conf,
		robotClient: machine,
		worker:      goutils.NewBackgroundStoppableWorkers(),
	}

	if conf.RunOnStart {
		s.startSweep()
		s.logger.Info("sweep capturer started")
	}

	return s, nil
}

func (s *sweepService) Name() resource.Name {
	return s.name
}

func (s *sweepService) Close(ctx context.Context) error {
	s.worker.Stop()
	return s.robotClient.Close(ctx)
}

// Status reports whether a sweep is in flight and the counters of the last
// completed run.
func (s *sweepService) Status(ctx context.Context) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := map[string]interface{}{"running": s.running}
	if s.lastSummary != nil {
		resp["saved"] = s.lastSummary.Saved
		resp["objects_skipped"] = s.lastSummary.ObjectsSkipped
		resp["poses_skipped"] = s.lastSummary.PosesSkipped
		resp["shots_skipped"] = s.lastSummary.ShotsSkipped
	}
	if s.lastErr != "" {
		resp["error"] = s.lastErr
	}
	return resp, nil
}

func (s *sweepService) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	switch cmd["command"] {
	case "run":
		if !s.startSweep() {
			return nil, errors.New("a sweep is already running")
		}
		return map[string]interface{}{"status": "started"}, nil

	case "status":
		return s.Status(ctx)

	case "preflight":
		capturer, err := s.buildCapturer()
		if err != nil {
			return nil, err
		}
		if err := capturer.Preflight(ctx); err != nil {
			return map[string]interface{}{"ok": false, "error": err.Error()}, nil
		}
		return map[string]interface{}{"ok": true}, nil

	case "preview-pose":
		return s.previewPose(ctx, cmd)

	default:
		return nil, fmt.Errorf("invalid command: %v", cmd["command"])
	}
}

// previewPose computes the vehicle pose for one (object, height, angle)
// sample without moving anything, for checking framing before a long run.
func (s *sweepService) previewPose(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	object, ok := cmd["object"].(string)
	if !ok || object == "" {
		return nil, errors.New("object field is required")
	}
	height, ok := cmd["height"].(float64)
	if !ok {
		return nil, errors.New("height field is required")
	}
	angleDeg, ok := cmd["angle_deg"].(float64)
	if !ok {
		return nil, errors.New("angle_deg field is required")
	}

	bridge, err := sim.NewModelStateClient(s.robotClient, s.cfg.SimBridge, s.logger)
	if err != nil {
		return nil, err
	}
	target, err := bridge.ModelPosition(ctx, object)
	if err != nil {
		return nil, err
	}

	pose := sweep.PoseAround(target, s.cfg.Radius, height, utils.DegreesToRadians(angleDeg))
	return map[string]interface{}{
		"pose":    utils.PoseToMap(pose.Spatial()),
		"yaw_deg": utils.RadiansToDegrees(pose.Yaw),
	}, nil
}

func (s *sweepService) params() sweep.Params {
	return sweep.Params{
		VehicleModel: s.cfg.VehicleModel,
		Radius:       s.cfg.Radius,
		Heights:      s.cfg.Heights,
		Angles:       utils.DegreesSliceToRadians(s.cfg.AnglesDeg),
		ShotsPerPose: s.cfg.ShotsPerPose,
		SettleDelay:  time.Duration(*s.cfg.SettleSec * float64(time.Second)),
	}
}

func (s *sweepService) buildCapturer() (*sweep.Capturer, error) {
	bridge, err := sim.NewModelStateClient(s.robotClient, s.cfg.SimBridge, s.logger)
	if err != nil {
		return nil, err
	}
	cam, err := camera.FromRobot(s.robotClient, s.cfg.CaptureSource)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture source %q: %w", s.cfg.CaptureSource, err)
	}

	return sweep.NewCapturer(
		s.cfg.Targets,
		s.params(),
		bridge,
		bridge,
		sim.NewCameraFrameSource(cam),
		sim.NewDatasetWriter(s.cfg.OutputDir),
		s.logger,
	)
}

// startSweep launches a sweep on the background worker. Returns false if one
// is already in flight.
func (s *sweepService) startSweep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true

	s.worker.Add(func(ctx context.Context) {
		summary, err := s.runSweep(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.running = false
		s.lastSummary = &summary
		if err != nil {
			s.lastErr = err.Error()
		} else {
			s.lastErr = ""
		}
	})
	return true
}

func (s *sweepService) runSweep(ctx context.Context) (sweep.Summary, error) {
	capturer, err := s.buildCapturer()
	if err != nil {
		s.logger.Errorf("failed to build capturer: %v", err)
		return sweep.Summary{}, err
	}

	sweep.AnalyzePlan(s.params()).LogWarnings(s.logger)

	summary, err := capturer.Run(ctx)
	if err != nil {
		s.logger.Errorf("sweep failed: %v", err)
	}
	return summary, err
}
