// geometry.go

// This file contains the pose and orientation helpers used throughout the package.

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

import (
	"math"

	"github.com/golang/geo/r3"
)

// Point is a position in the local frame, in metres.
type Point struct {
	X, Y, Z float64
}

// Quaternion is an orientation as a unit quaternion.
type Quaternion struct {
	X, Y, Z, W float64
}

// Pose combines a position with an orientation.
type Pose struct {
	Position    Point
	Orientation Quaternion
}

// Velocity holds the linear and angular velocity of the vehicle,
// in m/s and rad/s respectively.
type Velocity struct {
	Linear  r3.Vector
	Angular r3.Vector
}

// QuaternionToYaw extracts the yaw (rotation about the vertical axis)
// from a quaternion, ignoring any roll and pitch components.
func QuaternionToYaw(q Quaternion) float64 {
	return math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
}

// YawToQuaternion builds the quaternion for a rotation of yaw radians
// about the vertical axis, with zero roll and pitch.
func YawToQuaternion(yaw float64) Quaternion {
	return Quaternion{Z: math.Sin(yaw / 2), W: math.Cos(yaw / 2)}
}

// PointToVec converts a Point to an r3.Vector for vector arithmetic.
func PointToVec(p Point) r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// VecToPoint converts an r3.Vector back to a Point.
func VecToPoint(v r3.Vector) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}
