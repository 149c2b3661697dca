// Package main runs one capture sweep from the command line against the
// machine configured in the environment.
package main

import (
	"context"
	"time"

	"github.com/erh/vmodutils"
	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/logging"
	goutils "go.viam.com/utils"

	"github.com/RAVEN-GP/raven-sim/sim"
	"github.com/RAVEN-GP/raven-sim/sweep"
	"github.com/RAVEN-GP/raven-sim/utils"
)

var logger = logging.NewLogger("synthetic-capture")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command. Defaults match the stock simulation world.
type Arguments struct {
	CaptureSource string  `flag:"capture-source,default=front_camera,usage=camera to capture frames from"`
	SimBridge     string  `flag:"sim-bridge,default=sim-bridge,usage=generic component bridging the simulator model state services"`
	VehicleModel  string  `flag:"vehicle-model,default=automobile,usage=simulator model name of the vehicle"`
	OutputDir     string  `flag:"output-dir,default=dataset,usage=where to save images"`
	Radius        float64 `flag:"radius,default=1.2,usage=distance from sign in meters"`
	Heights       string  `flag:"heights,usage=comma heights relative to sign z in meters (default 0.15 and 0.25)"`
	AnglesDeg     string  `flag:"angles-deg,usage=comma angles around the sign in degrees (default -60 to 60 in steps of 20)"`
	ShotsPerPose  int     `flag:"shots-per-pose,default=1,usage=images to take at each pose"`
	SettleSec     float64 `flag:"settle,default=0.25,usage=wait after moving the vehicle in seconds"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	heights, err := utils.ParseFloatList(argsParsed.Heights)
	if err != nil {
		return err
	}
	if len(heights) == 0 {
		heights = []float64{0.15, 0.25}
	}
	anglesDeg, err := utils.ParseFloatList(argsParsed.AnglesDeg)
	if err != nil {
		return err
	}
	if len(anglesDeg) == 0 {
		anglesDeg = []float64{-60, -40, -20, 0, 20, 40, 60}
	}

	machine, err := vmodutils.ConnectToMachineFromEnv(ctx, logger)
	if err != nil {
		return err
	}
	defer machine.Close(ctx)

	bridge, err := sim.NewModelStateClient(machine, argsParsed.SimBridge, logger)
	if err != nil {
		return err
	}
	cam, err := camera.FromRobot(machine, argsParsed.CaptureSource)
	if err != nil {
		return err
	}

	params := sweep.Params{
		VehicleModel: argsParsed.VehicleModel,
		Radius:       argsParsed.Radius,
		Heights:      heights,
		Angles:       utils.DegreesSliceToRadians(anglesDeg),
		ShotsPerPose: argsParsed.ShotsPerPose,
		SettleDelay:  time.Duration(argsParsed.SettleSec * float64(time.Second)),
	}

	capturer, err := sweep.NewCapturer(
		nil, // default STOP and PARKING groups
		params,
		bridge,
		bridge,
		sim.NewCameraFrameSource(cam),
		sim.NewDatasetWriter(argsParsed.OutputDir),
		logger,
	)
	if err != nil {
		return err
	}

	sweep.AnalyzePlan(params).LogWarnings(logger)

	summary, err := capturer.Run(ctx)
	if err != nil {
		return err
	}
	logger.Infof("dataset created: %d images under %s", summary.Saved, argsParsed.OutputDir)
	return nil
}
