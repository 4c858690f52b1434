// The sentry home security system for the Raspberry Pi
//
// Features
//
// - Restricted area monitoring with a PIR motion sensor and an HC-SR04
// ultrasonic distance sensor
//
// - Buzzer alert the instant motion is seen or an object comes too close
//
// - Smart and configurable alarm behaviour (latching, cooldowns) via state
// machines
//
// - Distributed message system (run input and outputs over a network)
//
// - Lightweight, small memory footprint (runs on the Raspberry Pi)
//
// - Remotely controllable over a REST API
//
// - Console status display
//
// - Sensor health watchdog
//
// Services supported
//
// - monitor: the GPIO sensor/buzzer polling loop
//
// - alarm: state machine driven alarm behaviour
//
// - display: console status panel
//
// - api: REST API dashboard
//
// - watchdog: sensor liveness alerting
package sentry
