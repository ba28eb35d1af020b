// transport.go

// This file defines the interfaces the controller expects from the
// transport that carries traffic to and from the flight controller.

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

// SetpointWriter publishes position setpoints to the flight controller.
// WriteSetpoint is called from the pose update path and must not block
// for longer than a local socket write.
type SetpointWriter interface {
	WriteSetpoint(sp Setpoint) error
}

// CommandClient issues arm, mode-change, and long-command requests to
// the flight controller.  The boolean result reports whether the flight
// controller accepted the request; acceptance is not confirmation - the
// controller observes actual state changes via the vehicle state stream.
type CommandClient interface {
	Arm(arm bool) (bool, error)
	SetMode(mode string) (bool, error)
	SendCommand(command int, param1 float64) (bool, error)
}

// UpdateSink receives the inbound update streams from a transport.
// *Mav implements it.
type UpdateSink interface {
	UpdateVehicleState(st VehicleState)
	UpdatePose(p Pose)
	UpdateVelocity(v Velocity)
}
