// arrival_test.go

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
	"testing"

	"github.com/golang/geo/r3"
)

func TestArrived(t *testing.T) {
	target := Pose{Orientation: YawToQuaternion(0)}

	tests := []struct {
		name    string
		posErr  float64
		yawErr  float64
		speed   float64
		angVel  float64
		arrived bool
	}{
		{"all within tolerance", 0.4, 0.05, 0.1, 0.01, true},
		{"too fast", 0.4, 0.05, 0.3, 0.01, false},
		{"too far", 0.6, 0.05, 0.1, 0.01, false},
		{"yaw off", 0.4, 0.15, 0.1, 0.01, false},
		{"still rotating", 0.4, 0.05, 0.1, 0.06, false},
		{"stationary at target", 0, 0, 0, 0, true},
	}

	for _, tc := range tests {
		current := Pose{
			Position:    Point{X: tc.posErr},
			Orientation: YawToQuaternion(tc.yawErr),
		}
		vel := Velocity{
			Linear:  r3.Vector{X: tc.speed},
			Angular: r3.Vector{Z: tc.angVel},
		}
		if got := arrived(target, current, vel); got != tc.arrived {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.arrived, got)
		}
	}
}

func TestArrivedNeverTrueOnNaN(t *testing.T) {
	target := Pose{Orientation: YawToQuaternion(0)}
	current := Pose{
		Position:    Point{X: math.NaN()},
		Orientation: YawToQuaternion(0),
	}

	if arrived(target, current, Velocity{}) {
		t.Error("Expected NaN position to never count as arrived")
	}

	current.Position = Point{}
	vel := Velocity{Linear: r3.Vector{X: math.NaN()}}
	if arrived(target, current, vel) {
		t.Error("Expected NaN velocity to never count as arrived")
	}
}
