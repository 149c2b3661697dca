package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.viam.com/rdk/spatialmath"
)

// PoseToMap converts a spatialmath.Pose to a user-friendly map for DoCommand
// responses and logs.
func PoseToMap(pose spatialmath.Pose) map[string]interface{} {
	if pose == nil {
		return nil
	}
	pos := pose.Point()
	ori := pose.Orientation().Quaternion()
	return map[string]interface{}{
		"translation": map[string]float64{
			"x": pos.X,
			"y": pos.Y,
			"z": pos.Z,
		},
		"orientation": map[string]float64{
			"Imag": ori.Imag,
			"Jmag": ori.Jmag,
			"Kmag": ori.Kmag,
			"Real": ori.Real,
		},
	}
}

func DegreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

func RadiansToDegrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// DegreesSliceToRadians converts every entry of a slice of degree values.
func DegreesSliceToRadians(degrees []float64) []float64 {
	radians := make([]float64, len(degrees))
	for i, d := range degrees {
		radians[i] = DegreesToRadians(d)
	}
	return radians
}

// ParseFloatList parses a comma-separated list of floats, ignoring empty
// entries, e.g. "0.15,0.25" or "-60, -40,,0".
func ParseFloatList(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q in list: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}
