// udplink.go

// This file contains a reference UDP/JSON transport.  Any transport
// satisfying SetpointWriter and CommandClient may be used instead.

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
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

const requestTimeout = 3 * time.Second

// Wire message types.
const (
	msgState    = "state"
	msgPose     = "pose"
	msgVelocity = "velocity"
	msgSetpoint = "setpoint"
	msgArm      = "arm"
	msgSetMode  = "set_mode"
	msgCommand  = "command"
	msgAck      = "ack"
)

type wireVec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type wireQuat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

type wireState struct {
	Connected bool   `json:"connected"`
	Armed     bool   `json:"armed"`
	Guided    bool   `json:"guided"`
	Mode      string `json:"mode"`
}

type wirePose struct {
	Position    wireVec  `json:"position"`
	Orientation wireQuat `json:"orientation"`
}

type wireVelocity struct {
	Linear  wireVec `json:"linear"`
	Angular wireVec `json:"angular"`
}

// wireMessage is the single envelope carried in each datagram, in either
// direction.
type wireMessage struct {
	Type     string        `json:"type"`
	Seq      uint16        `json:"seq,omitempty"`
	OK       bool          `json:"ok,omitempty"`
	State    *wireState    `json:"state,omitempty"`
	Pose     *wirePose     `json:"pose,omitempty"`
	Velocity *wireVelocity `json:"velocity,omitempty"`
	Setpoint *wirePose     `json:"setpoint,omitempty"`
	Arm      bool          `json:"arm,omitempty"`
	Mode     string        `json:"mode,omitempty"`
	Command  int           `json:"command,omitempty"`
	Param1   float64       `json:"param1,omitempty"`
}

// UDPLink is a UDP/JSON transport to a flight-controller endpoint.  It
// implements SetpointWriter and CommandClient, and demultiplexes the
// inbound state/pose/velocity streams into an UpdateSink.
type UDPLink struct {
	mu      sync.Mutex // protects conn writes, seq and pending
	conn    *net.UDPConn
	seq     uint16
	pending map[uint16]chan bool
	stop    chan bool
	sink    UpdateSink
}

// DialUDP connects to a flight-controller endpoint at the given UDP
// address and starts the inbound listener.  Updates are delivered to
// sink as they arrive.
func DialUDP(addr string, sink UpdateSink) (*UDPLink, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "resolving endpoint address")
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, errors.Wrap(err, "dialling endpoint")
	}
	l := &UDPLink{
		conn:    conn,
		pending: make(map[uint16]chan bool),
		stop:    make(chan bool, 2),
		sink:    sink,
	}
	go l.listener()
	return l, nil
}

// Close stops the listener and closes the connection.
func (l *UDPLink) Close() error {
	l.stop <- true
	return l.conn.Close()
}

// WriteSetpoint publishes one position setpoint.  Fire-and-forget: no
// acknowledgement is expected.
func (l *UDPLink) WriteSetpoint(sp Setpoint) error {
	msg := wireMessage{
		Type: msgSetpoint,
		Setpoint: &wirePose{
			Position:    wireVec{X: sp.Position.X, Y: sp.Position.Y, Z: sp.Position.Z},
			Orientation: wireQuat{X: sp.Orientation.X, Y: sp.Orientation.Y, Z: sp.Orientation.Z, W: sp.Orientation.W},
		},
	}
	return l.send(msg)
}

// Arm requests arming (or disarming) and waits for the acknowledgement.
func (l *UDPLink) Arm(arm bool) (bool, error) {
	return l.request(wireMessage{Type: msgArm, Arm: arm})
}

// SetMode requests a flight-mode change and waits for the
// acknowledgement.
func (l *UDPLink) SetMode(mode string) (bool, error) {
	return l.request(wireMessage{Type: msgSetMode, Mode: mode})
}

// SendCommand issues a long command with one parameter and waits for
// the acknowledgement.
func (l *UDPLink) SendCommand(command int, param1 float64) (bool, error) {
	return l.request(wireMessage{Type: msgCommand, Command: command, Param1: param1})
}

func (l *UDPLink) send(msg wireMessage) error {
	buff, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encoding message")
	}
	l.mu.Lock()
	_, err = l.conn.Write(buff)
	l.mu.Unlock()
	return errors.Wrap(err, "writing message")
}

// request sends msg with a fresh sequence number and blocks until the
// matching ack arrives or the request times out.  A timed-out request is
// reported as a failure; the state machine will retry it on a later
// update.
func (l *UDPLink) request(msg wireMessage) (bool, error) {
	ackChan := make(chan bool, 1)
	l.mu.Lock()
	l.seq++
	msg.Seq = l.seq
	l.pending[msg.Seq] = ackChan
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.pending, msg.Seq)
		l.mu.Unlock()
	}()

	if err := l.send(msg); err != nil {
		return false, err
	}

	select {
	case ok := <-ackChan:
		return ok, nil
	case <-time.After(requestTimeout):
		return false, errors.Errorf("timeout waiting for ack of %s request", msg.Type)
	}
}

func (l *UDPLink) listener() {
	buff := make([]byte, 4096)
	for {
		n, err := l.conn.Read(buff)

		select {
		case <-l.stop:
			return
		default:
		}
		if err != nil {
			log.WithError(err).Warn("Link read error")
			continue
		}

		var msg wireMessage
		if err := json.Unmarshal(buff[:n], &msg); err != nil {
			log.WithError(err).Warn("Undecodable message from endpoint")
			continue
		}

		switch msg.Type {
		case msgAck:
			l.mu.Lock()
			ackChan, found := l.pending[msg.Seq]
			l.mu.Unlock()
			if found {
				select {
				case ackChan <- msg.OK:
				default:
				}
			}
		case msgState:
			if msg.State != nil {
				l.sink.UpdateVehicleState(VehicleState{
					Connected: msg.State.Connected,
					Armed:     msg.State.Armed,
					Guided:    msg.State.Guided,
					Mode:      msg.State.Mode,
				})
			}
		case msgPose:
			if msg.Pose != nil {
				l.sink.UpdatePose(poseFromWire(*msg.Pose))
			}
		case msgVelocity:
			if msg.Velocity != nil {
				l.sink.UpdateVelocity(Velocity{
					Linear:  vecFromWire(msg.Velocity.Linear),
					Angular: vecFromWire(msg.Velocity.Angular),
				})
			}
		default:
			log.WithField("type", msg.Type).Warn("Unknown message type from endpoint")
		}
	}
}

func vecFromWire(wv wireVec) r3.Vector {
	return r3.Vector{X: wv.X, Y: wv.Y, Z: wv.Z}
}

func poseFromWire(wp wirePose) Pose {
	return Pose{
		Position:    Point{X: wp.Position.X, Y: wp.Position.Y, Z: wp.Position.Z},
		Orientation: Quaternion{X: wp.Orientation.X, Y: wp.Orientation.Y, Z: wp.Orientation.Z, W: wp.Orientation.W},
	}
}
