package monitor

import (
	"time"

	"github.com/barnybug/ener314/rpio"
	"github.com/pkg/errors"

	"github.com/Ganesh-Jaishi/Samsung-IOT/config"
)

// Hardware is the handle owning the four GPIO lines. The loop receives it
// explicitly rather than touching pin state through globals, and tests
// substitute a fake.
type Hardware interface {
	ReadMotion() bool
	MeasureDistance() float64
	SetBuzzer(on bool)
	Close()
}

// speed of sound at 20°C, in cm/s
const speedOfSound = 34300

// pulseToDistance converts an echo pulse round-trip time to centimeters,
// clamped to maxRange.
func pulseToDistance(pulse time.Duration, maxRange float64) float64 {
	distance := pulse.Seconds() * speedOfSound / 2
	if distance > maxRange {
		return maxRange
	}
	return distance
}

type gpioHardware struct {
	pir         rpio.Pin
	trigger     rpio.Pin
	echo        rpio.Pin
	buzzer      rpio.Pin
	echoTimeout time.Duration
	maxRange    float64
}

// OpenHardware memory maps the GPIO registers and configures the pins.
// Fails are fatal to the service - if the lines can't be acquired there is
// nothing to monitor.
func OpenHardware(conf config.MonitorConf) (Hardware, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "opening /dev/gpiomem")
	}

	hw := &gpioHardware{
		pir:         rpio.Pin(conf.Pins.Pir),
		trigger:     rpio.Pin(conf.Pins.Trigger),
		echo:        rpio.Pin(conf.Pins.Echo),
		buzzer:      rpio.Pin(conf.Pins.Buzzer),
		echoTimeout: conf.EchoTimeout(),
		maxRange:    conf.MaxRange(),
	}
	hw.pir.Input()
	hw.pir.PullOff()
	hw.echo.Input()
	hw.echo.PullOff()
	hw.trigger.Output()
	hw.trigger.Write(rpio.Low)
	hw.buzzer.Output()
	hw.buzzer.Write(rpio.Low)
	return hw, nil
}

func (hw *gpioHardware) ReadMotion() bool {
	return hw.pir.Read() == rpio.High
}

// MeasureDistance fires a 10µs trigger pulse and times the echo line. Both
// waits are bounded by the echo timeout: no echo means no object in range,
// returned as the max range sentinel rather than blocking the loop.
func (hw *gpioHardware) MeasureDistance() float64 {
	hw.trigger.Write(rpio.High)
	time.Sleep(10 * time.Microsecond)
	hw.trigger.Write(rpio.Low)

	deadline := time.Now().Add(hw.echoTimeout)
	for hw.echo.Read() == rpio.Low {
		if time.Now().After(deadline) {
			return hw.maxRange
		}
	}
	start := time.Now()
	for hw.echo.Read() == rpio.High {
		if time.Now().After(deadline) {
			return hw.maxRange
		}
	}
	return pulseToDistance(time.Since(start), hw.maxRange)
}

func (hw *gpioHardware) SetBuzzer(on bool) {
	if on {
		hw.buzzer.Write(rpio.High)
	} else {
		hw.buzzer.Write(rpio.Low)
	}
}

// Close leaves the output lines low and releases the GPIO mapping.
func (hw *gpioHardware) Close() {
	hw.buzzer.Write(rpio.Low)
	hw.trigger.Write(rpio.Low)
	rpio.Close()
}
