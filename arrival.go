// arrival.go

// This file contains the arrival-detection predicate.

// Copyright (C) 2019  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package mav

import "math"

// Arrival tolerances.  The vehicle counts as arrived only when it is both
// close to the target and nearly stationary.
const (
	arrivalMaxPosError = 0.5  // m
	arrivalMaxYawError = 0.1  // rad, approx 6 deg
	arrivalMaxSpeed    = 0.2  // m/s
	arrivalMaxAngSpeed = 0.05 // rad/s
)

// arrived reports whether the current pose and velocity are within
// tolerance of the target.  All four tolerances must hold at once.
// Any NaN in the inputs makes the corresponding comparison false, so a
// degenerate update can never spuriously declare arrival.
func arrived(target, current Pose, vel Velocity) bool {
	posGood := posError(target.Position, current.Position) < arrivalMaxPosError
	yawGood := yawError(target.Orientation, current.Orientation) < arrivalMaxYawError
	velGood := vel.Linear.Norm() < arrivalMaxSpeed
	angVelGood := vel.Angular.Norm() < arrivalMaxAngSpeed
	return posGood && yawGood && velGood && angVelGood
}

// posError is the Euclidean distance between the target and current
// positions.
func posError(target, current Point) float64 {
	return PointToVec(target).Sub(PointToVec(current)).Norm()
}

// yawError is the absolute difference of the extracted yaw angles.
// Note that the difference is not wrapped, so targets either side of
// the +/-pi seam read as far apart.
func yawError(target, current Quaternion) float64 {
	return math.Abs(QuaternionToYaw(target) - QuaternionToYaw(current))
}
