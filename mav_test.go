// mav_test.go

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
	"math"
	"sync"
	"testing"
	"time"
)

// fakeWriter records every published setpoint.
type fakeWriter struct {
	mu        sync.Mutex
	setpoints []Setpoint
}

func (f *fakeWriter) WriteSetpoint(sp Setpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setpoints = append(f.setpoints, sp)
	return nil
}

func (f *fakeWriter) all() []Setpoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Setpoint(nil), f.setpoints...)
}

func newTestMav(t *testing.T, cfg Config) (*Mav, *fakeWriter, *fakeCommands) {
	t.Helper()
	w := &fakeWriter{}
	c := newFakeCommands()
	m, err := New(cfg, w, c)
	if err != nil {
		t.Fatalf("New failed with error %v", err)
	}
	return m, w, c
}

func TestNewRejectsNilTransport(t *testing.T) {
	if _, err := New(DefaultConfig(), nil, nil); err == nil {
		t.Error("Expected an error for nil transport endpoints")
	}
}

func TestSetpointBurst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetpointBurst = 25
	m, w, _ := newTestMav(t, cfg)

	sps := w.all()
	if len(sps) != 25 {
		t.Fatalf("Expected 25 burst setpoints, got %d", len(sps))
	}
	hold := Setpoint{Position: m.TargetPose().Position, Orientation: m.TargetPose().Orientation}
	for i, sp := range sps {
		if sp != hold {
			t.Fatalf("Burst setpoint %d differs from hold setpoint: %v", i, sp)
		}
	}
}

func TestPoseUpdatePublishesBoundedSetpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetpointBurst = 1
	cfg.MaxStep = 1.0
	m, w, _ := newTestMav(t, cfg)

	m.SetTargetPosition(Point{X: 10})
	m.UpdatePose(Pose{Orientation: YawToQuaternion(0)})

	sps := w.all()
	last := sps[len(sps)-1]
	if math.Abs(last.Position.X-1) > 1e-12 || last.Position.Y != 0 || last.Position.Z != 0 {
		t.Errorf("Expected setpoint clipped to (1,0,0), got %v", last.Position)
	}

	// a second update from the commanded position advances another step
	m.UpdatePose(Pose{Position: Point{X: 1}, Orientation: YawToQuaternion(0)})
	sps = w.all()
	last = sps[len(sps)-1]
	if math.Abs(last.Position.X-2) > 1e-12 {
		t.Errorf("Expected setpoint clipped to (2,0,0), got %v", last.Position)
	}
}

func TestStateUpdateDrivesStateMachine(t *testing.T) {
	m, _, c := newTestMav(t, DefaultConfig())

	m.UpdateVehicleState(VehicleState{Connected: true, Armed: true, Mode: "MANUAL"})

	// requests are issued asynchronously
	deadline := time.Now().Add(time.Second)
	for len(c.modes()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if modes := c.modes(); len(modes) != 1 || modes[0] != ModeOffboard {
		t.Errorf("Expected a single OFFBOARD request, got %v", modes)
	}
}

func TestLandSwitchesToAutoLand(t *testing.T) {
	m, _, c := newTestMav(t, DefaultConfig())

	m.Land()
	m.UpdateVehicleState(VehicleState{Connected: true, Armed: true, Mode: ModeOffboard})

	deadline := time.Now().Add(time.Second)
	for len(c.modes()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if modes := c.modes(); len(modes) != 1 || modes[0] != ModeAutoLand {
		t.Errorf("Expected a single AUTO.LAND request, got %v", modes)
	}
	if len(c.arms()) != 0 {
		t.Error("Expected no arm requests after Land()")
	}
}

func TestWaitForConnection(t *testing.T) {
	m, _, _ := newTestMav(t, DefaultConfig())

	result := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		result <- m.WaitForConnection(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	m.UpdateVehicleState(VehicleState{Connected: true})

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("WaitForConnection failed with error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForConnection did not wake on the state update")
	}
}

func TestWaitForConnectionCancelled(t *testing.T) {
	m, _, _ := newTestMav(t, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := m.WaitForConnection(ctx); err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestWaitForArrival(t *testing.T) {
	m, _, _ := newTestMav(t, DefaultConfig())

	// target is the zero pose; put the vehicle on it, stationary
	m.UpdatePose(Pose{Orientation: YawToQuaternion(0)})
	m.UpdateVelocity(Velocity{})

	if !m.HasArrived() {
		t.Fatal("Expected HasArrived at the target")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.WaitForArrival(ctx); err != nil {
		t.Errorf("WaitForArrival failed with error %v", err)
	}
}

func TestTargetMutations(t *testing.T) {
	m, _, _ := newTestMav(t, DefaultConfig())

	m.SetTargetPose(Pose{
		Position: Point{X: 1, Y: 2, Z: 3},
		// off-axis components must be stripped to yaw only
		Orientation: Quaternion{X: 0.3, Y: 0.1, Z: 0, W: 0.9},
	})
	tp := m.TargetPose()
	if tp.Orientation.X != 0 || tp.Orientation.Y != 0 {
		t.Errorf("Expected yaw-only target orientation, got %v", tp.Orientation)
	}

	m.SetTargetYaw(1.0)
	tp = m.TargetPose()
	if tp.Position != (Point{X: 1, Y: 2, Z: 3}) {
		t.Error("Expected SetTargetYaw to keep the target position")
	}

	m.SetTargetPosition(Point{X: 5})
	tp2 := m.TargetPose()
	if tp2.Orientation != tp.Orientation {
		t.Error("Expected SetTargetPosition to keep the target yaw")
	}
}

func TestPhaseTracksIntent(t *testing.T) {
	m, _, _ := newTestMav(t, DefaultConfig())

	if m.Phase() != PhaseDisconnected {
		t.Errorf("Expected Disconnected before any update, got %v", m.Phase())
	}
	m.UpdateVehicleState(VehicleState{Connected: true, Armed: true, Mode: ModeOffboard})
	if m.Phase() != PhaseOffboard {
		t.Errorf("Expected Offboard, got %v", m.Phase())
	}
	m.Land()
	if m.Phase() != PhaseManual {
		t.Errorf("Expected Manual until AUTO.LAND confirms, got %v", m.Phase())
	}
}

func TestDeployParachute(t *testing.T) {
	m, _, c := newTestMav(t, DefaultConfig())

	if err := m.DeployParachute(); err != nil {
		t.Errorf("DeployParachute failed with error %v", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cmdCalls) != 1 || c.cmdCalls[0] != cmdDoParachute || c.param1s[0] != parachuteRelease {
		t.Errorf("Expected command %d with param1 %d, got %v / %v",
			cmdDoParachute, parachuteRelease, c.cmdCalls, c.param1s)
	}
}

func TestDeployParachuteRejected(t *testing.T) {
	m, _, c := newTestMav(t, DefaultConfig())

	c.ok = false
	if err := m.DeployParachute(); err == nil {
		t.Error("Expected an error when the command is rejected")
	}
}

func TestStreamTelemetry(t *testing.T) {
	m, _, _ := newTestMav(t, DefaultConfig())

	tChan, err := m.StreamTelemetry(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("StreamTelemetry failed with error %v", err)
	}
	if _, err = m.StreamTelemetry(10 * time.Millisecond); err == nil {
		t.Error("Expected an error starting a second telemetry stream")
	}

	m.UpdateVehicleState(VehicleState{Connected: true, Mode: "MANUAL"})
	deadline := time.After(time.Second)
	for {
		select {
		case tel := <-tChan:
			if tel.State.Connected {
				return // saw the update in a snapshot
			}
		case <-deadline:
			t.Fatal("Telemetry stream never reflected the state update")
		}
	}
}
