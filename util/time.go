package util

import (
	"errors"
	"fmt"
	"time"
)

type Scheduler struct {
	C <-chan time.Time
}

func NextSchedule(now time.Time, offset time.Duration, d time.Duration) time.Time {
	t := now.Truncate(d).Add(offset)
	if t.After(now) {
		return t
	}
	return t.Add(d)
}

// NewScheduler returns a ticker aligned to the wall clock: the channel sends
// the time with a period of d, at the given offset into the period.
func NewScheduler(offset time.Duration, d time.Duration) *Scheduler {
	if d <= 0 {
		panic(errors.New("non-positive interval for NewScheduler"))
	}

	now := time.Now()
	next := NextSchedule(now, offset, d)
	dnext := next.Sub(now)

	// 1-element buffer: if the client falls behind, ticks are dropped on
	// the floor until it catches up.
	c := make(chan time.Time, 1)
	t := &Scheduler{
		C: c,
	}

	time.AfterFunc(dnext, func() {
		for {
			c <- time.Now()
			next = next.Add(d)
			dnext = next.Sub(time.Now())
			time.Sleep(dnext)
		}
	})

	return t
}

func plural(n int, suffix string) string {
	switch n {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%d %s", n, suffix)
	default:
		return fmt.Sprintf("%d %ss", n, suffix)
	}
}

func number(n int, suffix string) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func joinpair(a, b string) string {
	if a != "" && b != "" {
		return a + " " + b
	}
	return a + b
}

// FriendlyDuration renders a duration in full words, eg "1 hour 5 minutes".
func FriendlyDuration(d time.Duration) string {
	switch {
	case d.Hours() >= 24:
		days := int(d.Hours() / 24)
		hours := int(d.Hours()) - days*24
		return joinpair(plural(days, "day"), plural(hours, "hour"))
	case d.Hours() >= 1:
		hours := int(d.Hours())
		mins := int(d.Minutes()) - 60*hours
		return joinpair(plural(hours, "hour"), plural(mins, "minute"))
	case d.Minutes() >= 1:
		mins := int(d.Minutes())
		secs := int(d.Seconds()) - 60*mins
		return joinpair(plural(mins, "minute"), plural(secs, "second"))
	case d.Seconds() >= 1:
		return plural(int(d.Seconds()), "second")
	case d.Nanoseconds() >= 1000:
		return plural(int(d.Seconds()*1000), "millisecond")
	}
	return "0 seconds"
}

// ShortDuration renders a duration compactly, eg "1h5m".
func ShortDuration(d time.Duration) string {
	switch {
	case d.Hours() >= 24:
		days := int(d.Hours() / 24)
		hours := int(d.Hours()) - days*24
		return joinpair(number(days, "d"), number(hours, "h"))
	case d.Hours() >= 1:
		hours := int(d.Hours())
		mins := int(d.Minutes()) - 60*hours
		return joinpair(number(hours, "h"), number(mins, "m"))
	case d.Minutes() >= 1:
		mins := int(d.Minutes())
		secs := int(d.Seconds()) - 60*mins
		return joinpair(number(mins, "m"), number(secs, "s"))
	case d.Seconds() >= 1:
		return number(int(d.Seconds()), "s")
	case d.Nanoseconds() >= 1000:
		return number(int(d.Seconds()*1000), "ms")
	}
	return "0s"
}
