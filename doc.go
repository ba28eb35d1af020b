/*Package mav provides a flight-mode and setpoint-tracking controller for
flight controllers that accept offboard position setpoints (eg. PX4 via a
MAVLink/MAVROS-style link).

The package sits between a high-level mission layer and the flight
controller's offboard interface.  It maintains the vehicle's last known
state, negotiates arming and flight-mode transitions, and rate-limits
target-position commands so the vehicle is never sent a step command
beyond its kinematic limits.

Features

The following features have been implemented...
  * Distance-limited setpoint generation - the commanded position never
    moves more than a configurable step per pose update
  * Automatic arming and OFFBOARD/AUTO.LAND mode negotiation with
    throttled, retried requests
  * Arrival detection combining position, yaw, and velocity tolerances
  * Blocking waits for connection and arrival, eg. WaitForConnection()
  * Telemetry streaming, eg. StreamTelemetry()
  * Parachute deployment via a MAVLink long command
  * A reference UDP/JSON transport, UDPLink - any transport satisfying
    SetpointWriter and CommandClient may be substituted

Concepts

Update Streams

The controller is fed by three inbound streams from the transport:
vehicle state (connected/armed/guided/mode), local pose, and local
velocity.  Each arriving update is applied through one of the Update
methods; the controller serialises them internally, so the transport may
deliver them from independent goroutines.

Setpoints

Every pose update triggers publication of one position setpoint, clipped
so its displacement from the current position is at most MaxStep.  The
flight controller's offboard protocol refuses to enter OFFBOARD mode
without a recent stream of setpoints, so construction of a Mav emits a
burst of hold-position setpoints before normal operation begins.

Flight Intent

TakeOff() and Land() only record intent.  The mode and arming requests
that realise that intent are issued by the state machine as vehicle
state updates arrive, at most one request per throttle window, until the
flight controller confirms the change.

*/
package mav
