// setpoint.go

// This file contains the distance-limited setpoint generator.

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

// Setpoint is a single position/orientation command for the flight
// controller's offboard interface.
type Setpoint struct {
	Position    Point
	Orientation Quaternion
}

// BoundedTarget computes the setpoint to send for the given current and
// target positions.  If the target is further away than maxStep the
// commanded position is clipped to a sphere of radius maxStep centred on
// the current position, preserving direction; the target orientation is
// always passed through unchanged.
//
// This runs once per incoming pose update, so maxStep is a limit per
// update, not a true m/s speed - the effective speed depends on the
// update rate.
func BoundedTarget(current, target Point, ori Quaternion, maxStep float64) Setpoint {
	diff := PointToVec(target).Sub(PointToVec(current))
	dist := diff.Norm()
	if dist == 0 || dist < maxStep {
		return Setpoint{Position: target, Orientation: ori}
	}
	clipped := PointToVec(current).Add(diff.Mul(maxStep / dist))
	return Setpoint{Position: VecToPoint(clipped), Orientation: ori}
}
