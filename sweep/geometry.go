package sweep

import (
	"math"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/spatialmath"
)

// CapturePose is the vehicle pose for one (height, angle) sample on the
// capture circle around a target. Yaw points from the vehicle back at the
// target; roll and pitch are always zero.
type CapturePose struct {
	Position r3.Vector
	Yaw      float64
}

// PoseAround places the vehicle on a circle of the given radius around the
// target's xy position, at the given height offset from the target's z,
// facing the target. The angle is in radians, measured in the horizontal
// plane. Yaw is computed from the offset vehicle xy back toward the target
// xy, not from the full 3D vector, so the framing stays level regardless of
// the height offset.
func PoseAround(target r3.Vector, radius, height, angle float64) CapturePose {
	pos := r3.Vector{
		X: target.X + radius*math.Cos(angle),
		Y: target.Y + radius*math.Sin(angle),
		Z: target.Z + height,
	}
	yaw := math.Atan2(target.Y-pos.Y, target.X-pos.X)
	return CapturePose{Position: pos, Yaw: yaw}
}

// Spatial returns the pose in spatialmath form with a yaw-only orientation.
func (p CapturePose) Spatial() spatialmath.Pose {
	return spatialmath.NewPose(p.Position, QuaternionFromYaw(p.Yaw))
}

// QuaternionFromYaw builds the yaw-only quaternion (x=y=0,
// z=sin(yaw/2), w=cos(yaw/2)).
func QuaternionFromYaw(yaw float64) *spatialmath.Quaternion {
	return &spatialmath.Quaternion{
		Real: math.Cos(yaw * 0.5),
		Kmag: math.Sin(yaw * 0.5),
	}
}

// YawFromQuaternion recovers the yaw encoded by QuaternionFromYaw.
func YawFromQuaternion(q *spatialmath.Quaternion) float64 {
	return 2 * math.Atan2(q.Kmag, q.Real)
}
