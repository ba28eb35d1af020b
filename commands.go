// commands.go

// This file contains the high-level command API of the controller.

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

import "github.com/pkg/errors"

// MAV_CMD_DO_PARACHUTE with the 'release' action.
const (
	cmdDoParachute   = 185
	parachuteRelease = 1
)

// SetTargetPose replaces the target pose.  The stored orientation is
// reduced to its yaw component - the controller never commands pitch or
// roll targets.  Nothing is sent until the next pose update.
func (m *Mav) SetTargetPose(p Pose) {
	m.mu.Lock()
	m.targetPose = Pose{
		Position:    p.Position,
		Orientation: YawToQuaternion(QuaternionToYaw(p.Orientation)),
	}
	m.mu.Unlock()
}

// SetTargetPosition replaces the target position, keeping the current
// target yaw.
func (m *Mav) SetTargetPosition(pt Point) {
	m.mu.Lock()
	m.targetPose.Position = pt
	m.mu.Unlock()
}

// SetTargetYaw replaces the target yaw, keeping the current target
// position.
func (m *Mav) SetTargetYaw(yaw float64) {
	m.mu.Lock()
	m.targetPose.Orientation = YawToQuaternion(yaw)
	m.mu.Unlock()
}

// TakeOff sets the flight intent.  The arm and OFFBOARD mode requests
// are issued by the state machine as vehicle state updates arrive.
func (m *Mav) TakeOff() {
	m.mu.Lock()
	m.fly = true
	m.mu.Unlock()
}

// Land clears the flight intent.  The AUTO.LAND mode request is issued
// by the state machine as vehicle state updates arrive.
func (m *Mav) Land() {
	m.mu.Lock()
	m.fly = false
	m.mu.Unlock()
}

// DeployParachute fires the vehicle's parachute via a long command.
// There is no acknowledgement handling beyond the transport's own; an
// error means the command channel failed or the flight controller
// rejected the command.
func (m *Mav) DeployParachute() error {
	log.Info("Deploying parachute")
	ok, err := m.cmd.SendCommand(cmdDoParachute, parachuteRelease)
	if err != nil {
		return errors.Wrap(err, "parachute command")
	}
	if !ok {
		return errors.New("parachute command rejected")
	}
	return nil
}
