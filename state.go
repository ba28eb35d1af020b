// state.go

// This file contains the flight state machine which negotiates arming and
// mode changes with the flight controller.

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

import "time"

// Flight-controller mode strings (PX4 naming).
const (
	ModeOffboard = "OFFBOARD"
	ModeAutoLand = "AUTO.LAND"
)

// VehicleState is the most recently reported state of the vehicle.
// There is no historical buffer; each state update replaces the last.
type VehicleState struct {
	Connected bool
	Armed     bool
	Guided    bool
	Mode      string
}

// FlightPhase is the controller's view of where the vehicle is in the
// arm/offboard/land cycle, derived from the reported state and the
// current flight intent.
type FlightPhase int

const (
	// PhaseDisconnected - no vehicle state received, or link reported down.
	PhaseDisconnected FlightPhase = iota
	// PhaseManual - connected, not intending to fly, not yet landing.
	PhaseManual
	// PhaseArming - intending to fly but arming and/or the mode change
	// has not been confirmed.
	PhaseArming
	// PhaseOffboard - armed and in OFFBOARD mode, tracking setpoints.
	PhaseOffboard
	// PhaseLanding - landing requested and confirmed by the vehicle.
	PhaseLanding
)

func (p FlightPhase) String() string {
	switch p {
	case PhaseDisconnected:
		return "Disconnected"
	case PhaseManual:
		return "Manual"
	case PhaseArming:
		return "Arming"
	case PhaseOffboard:
		return "Offboard"
	case PhaseLanding:
		return "Landing"
	}
	return "Unknown"
}

// phaseOf derives the FlightPhase from a vehicle state and the flight
// intent.
func phaseOf(st VehicleState, fly bool) FlightPhase {
	switch {
	case !st.Connected:
		return PhaseDisconnected
	case fly && st.Armed && st.Mode == ModeOffboard:
		return PhaseOffboard
	case fly:
		return PhaseArming
	case st.Mode == ModeAutoLand:
		return PhaseLanding
	default:
		return PhaseManual
	}
}

// stateMachine decides, on each vehicle state update, whether to request
// a mode change or arming.  Requests are throttled to at most one pass
// per interval so that a pending confirmation is not flooded with
// repeats; a failed request is simply retried on the next eligible
// update.
type stateMachine struct {
	cmd      CommandClient
	interval time.Duration
	last     time.Time // time of the last request attempt
	now      func() time.Time
}

func newStateMachine(cmd CommandClient, interval time.Duration) *stateMachine {
	return &stateMachine{cmd: cmd, interval: interval, now: time.Now}
}

// step runs one transition of the state machine.  The caller is expected
// to serialise calls; cmd must not block (see asyncCommands).
func (sm *stateMachine) step(st VehicleState, fly bool) {
	if sm.now().Sub(sm.last) <= sm.interval {
		return
	}
	if fly {
		if st.Mode != ModeOffboard {
			log.WithField("mode", ModeOffboard).Info("Requesting mode change")
			sm.cmd.SetMode(ModeOffboard)
			sm.last = sm.now()
		}
		if !st.Armed {
			log.Info("Requesting arming")
			sm.cmd.Arm(true)
			sm.last = sm.now()
		}
	} else if st.Mode != ModeAutoLand {
		log.WithField("mode", ModeAutoLand).Info("Requesting mode change")
		sm.cmd.SetMode(ModeAutoLand)
		sm.last = sm.now()
	}
}

// asyncCommands wraps a CommandClient so that each request is issued on
// its own goroutine - a slow or unresponsive command channel must never
// stall the update streams.  Results are logged; the throttle timestamp
// in the state machine is updated optimistically at issue time.
type asyncCommands struct {
	c CommandClient
}

func (a asyncCommands) Arm(arm bool) (bool, error) {
	go func() {
		ok, err := a.c.Arm(arm)
		switch {
		case err != nil:
			log.WithError(err).Warn("Arming request failed")
		case !ok:
			log.Warn("Arming request rejected")
		case arm:
			log.Info("Vehicle armed")
		default:
			log.Info("Vehicle disarmed")
		}
	}()
	return true, nil
}

func (a asyncCommands) SetMode(mode string) (bool, error) {
	go func() {
		ok, err := a.c.SetMode(mode)
		switch {
		case err != nil:
			log.WithError(err).WithField("mode", mode).Warn("Mode change request failed")
		case !ok:
			log.WithField("mode", mode).Warn("Mode change request rejected")
		}
	}()
	return true, nil
}

func (a asyncCommands) SendCommand(command int, param1 float64) (bool, error) {
	return a.c.SendCommand(command, param1)
}
