package bodyscan

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NoTrackingID is the selected identity before a body has been locked on
const NoTrackingID uint64 = math.MaxUint64

// TrackingState is tracking quality of a single joint
type TrackingState uint8

const (
	NotTracked TrackingState = iota
	Inferred
	Tracked
)

// JointType names a skeleton joint
type JointType uint8

const (
	SpineBase JointType = iota
	SpineMid
	Neck
	Head
	ShoulderLeft
	ElbowLeft
	WristLeft
	HandLeft
	ShoulderRight
	ElbowRight
	WristRight
	HandRight
	HipLeft
	KneeLeft
	AnkleLeft
	FootLeft
	HipRight
	KneeRight
	AnkleRight
	FootRight
	SpineShoulder
	HandTipLeft
	ThumbLeft
	HandTipRight
	ThumbRight
)

var jointNames = [...]string{
	"SpineBase", "SpineMid", "Neck", "Head",
	"ShoulderLeft", "ElbowLeft", "WristLeft", "HandLeft",
	"ShoulderRight", "ElbowRight", "WristRight", "HandRight",
	"HipLeft", "KneeLeft", "AnkleLeft", "FootLeft",
	"HipRight", "KneeRight", "AnkleRight", "FootRight",
	"SpineShoulder", "HandTipLeft", "ThumbLeft", "HandTipRight", "ThumbRight",
}

func (jt JointType) String() string {
	if int(jt) < len(jointNames) {
		return jointNames[jt]
	}
	return "Unknown"
}

// Joint is a camera space position (meters) with its tracking state.
// X is lateral offset from the sensor axis, Z is distance from the sensor.
type Joint struct {
	Position r3.Vec
	State    TrackingState
}

// TrackedBody is a per-tick body record produced by the sensor's body tracking stage.
// Its position in the tick's body slice is the value used in the body index frame.
type TrackedBody struct {
	TrackingID uint64
	IsTracked  bool
	Joints     map[JointType]Joint
}

// Joint returns joint of given type. Missing joints are reported as not tracked
func (body *TrackedBody) Joint(jt JointType) Joint {
	if body.Joints == nil {
		return Joint{}
	}
	return body.Joints[jt]
}
