// mav.go

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
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

// SetLogger redirects the package's log output.
func SetLogger(l *logrus.Logger) { log = l }

// Config holds the tunable parameters of a Mav.
type Config struct {
	// MaxStep is the maximum commanded displacement per pose update, in
	// metres.  Note this is a limit per update, not per second.
	MaxStep float64 `json:"max_step"`
	// SetpointBurst is the number of hold-position setpoints published
	// during construction, before normal operation.  The flight
	// controller refuses to enter OFFBOARD mode without a recent stream
	// of setpoints.
	SetpointBurst int `json:"setpoint_burst"`
	// RequestInterval is the minimum interval between arm/mode request
	// passes while a confirmation is pending.
	RequestInterval time.Duration `json:"request_interval"`
}

// DefaultConfig returns the parameters used by the reference vehicle.
func DefaultConfig() Config {
	return Config{
		MaxStep:         1.0,
		SetpointBurst:   100,
		RequestInterval: time.Second,
	}
}

// Mav holds the current state of one vehicle and drives its offboard
// control.  All fields are guarded by a single mutex: pose, velocity and
// vehicle state arrive on independent streams and must never be mutated
// concurrently.
type Mav struct {
	mu   sync.Mutex
	cond *sync.Cond // signalled on every inbound update

	cfg Config

	currentPose Pose
	velocity    Velocity
	state       VehicleState
	targetPose  Pose
	fly         bool // should we currently be flying?

	sm  *stateMachine
	sp  SetpointWriter
	cmd CommandClient

	telemetering bool
}

// New creates a Mav over the given transport endpoints and publishes the
// initial setpoint burst.  The returned Mav starts with flight intent
// set, a zero target pose, and no vehicle state; callers normally
// WaitForConnection before commanding anything.
func New(cfg Config, sp SetpointWriter, cmd CommandClient) (*Mav, error) {
	if sp == nil || cmd == nil {
		return nil, errors.New("mav: transport endpoints must not be nil")
	}
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = DefaultConfig().MaxStep
	}
	if cfg.SetpointBurst == 0 {
		cfg.SetpointBurst = DefaultConfig().SetpointBurst
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = DefaultConfig().RequestInterval
	}

	m := &Mav{
		cfg:        cfg,
		targetPose: Pose{Orientation: YawToQuaternion(0)},
		fly:        true,
		sm:         newStateMachine(asyncCommands{c: cmd}, cfg.RequestInterval),
		sp:         sp,
		cmd:        cmd,
	}
	m.cond = sync.NewCond(&m.mu)

	// Prime the offboard channel with hold-position setpoints.
	hold := Setpoint{Position: m.targetPose.Position, Orientation: m.targetPose.Orientation}
	for i := 0; i < cfg.SetpointBurst; i++ {
		if err := sp.WriteSetpoint(hold); err != nil {
			log.WithError(err).Warn("Initial setpoint write failed")
		}
	}

	return m, nil
}

// UpdateVehicleState applies a vehicle state update and runs one
// transition of the flight state machine.
func (m *Mav) UpdateVehicleState(st VehicleState) {
	m.mu.Lock()
	m.state = st
	m.sm.step(st, m.fly)
	m.cond.Broadcast()
	m.mu.Unlock()
}

// UpdatePose applies a local pose update and publishes the next bounded
// setpoint toward the current target.
func (m *Mav) UpdatePose(p Pose) {
	m.mu.Lock()
	m.currentPose = p
	sp := BoundedTarget(p.Position, m.targetPose.Position, m.targetPose.Orientation, m.cfg.MaxStep)
	m.cond.Broadcast()
	m.mu.Unlock()

	if err := m.sp.WriteSetpoint(sp); err != nil {
		log.WithError(err).Warn("Setpoint write failed")
	}
}

// UpdateVelocity applies a local velocity update.
func (m *Mav) UpdateVelocity(v Velocity) {
	m.mu.Lock()
	m.velocity = v
	m.cond.Broadcast()
	m.mu.Unlock()
}

// State returns the most recently reported vehicle state.
func (m *Mav) State() VehicleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pose returns the most recently reported pose.
func (m *Mav) Pose() Pose {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentPose
}

// Velocity returns the most recently reported velocity.
func (m *Mav) Velocity() Velocity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.velocity
}

// TargetPose returns the current target pose.
func (m *Mav) TargetPose() Pose {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.targetPose
}

// Phase returns the controller's current view of the arm/offboard/land
// cycle.
func (m *Mav) Phase() FlightPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return phaseOf(m.state, m.fly)
}

// HasArrived reports whether the vehicle is within tolerance of the
// target pose and nearly stationary.
func (m *Mav) HasArrived() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return arrived(m.targetPose, m.currentPose, m.velocity)
}

// WaitForConnection blocks until the vehicle reports connected, or ctx
// is done.  The wait is woken by the update handlers; no lock is held
// while blocked.
func (m *Mav) WaitForConnection(ctx context.Context) error {
	return m.waitFor(ctx, func() bool { return m.state.Connected })
}

// WaitForArrival blocks until HasArrived would return true, or ctx is
// done.
func (m *Mav) WaitForArrival(ctx context.Context) error {
	return m.waitFor(ctx, func() bool {
		return arrived(m.targetPose, m.currentPose, m.velocity)
	})
}

// waitFor blocks until pred (evaluated under the lock) holds.  A ctx
// expiry wakes the wait via a broadcast.
func (m *Mav) waitFor(ctx context.Context, pred func() bool) error {
	stop := context.AfterFunc(ctx, func() {
		m.mu.Lock()
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	for !pred() {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.cond.Wait()
	}
	return nil
}

// Telemetry is a consistent snapshot of the controller's view of the
// vehicle.
type Telemetry struct {
	Pose     Pose
	Velocity Velocity
	State    VehicleState
	Phase    FlightPhase
}

// GetTelemetry returns a snapshot of the current pose, velocity, state
// and phase.
func (m *Mav) GetTelemetry() Telemetry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Telemetry{
		Pose:     m.currentPose,
		Velocity: m.velocity,
		State:    m.state,
		Phase:    phaseOf(m.state, m.fly),
	}
}

// StreamTelemetry starts a Goroutine which sends Telemetry snapshots to
// a channel every period.  The streamer does not block on the channel,
// so unconsumed snapshots are lost.
func (m *Mav) StreamTelemetry(period time.Duration) (<-chan Telemetry, error) {
	m.mu.Lock()
	if m.telemetering {
		m.mu.Unlock()
		return nil, errors.New("already streaming telemetry from this Mav")
	}
	m.telemetering = true
	m.mu.Unlock()

	tChan := make(chan Telemetry, 2)
	go func() {
		for {
			select {
			case tChan <- m.GetTelemetry():
			default:
			}
			time.Sleep(period)
		}
	}()
	return tChan, nil
}
