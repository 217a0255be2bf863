package macro

import (
	"fmt"
	"time"

	"github.com/nleeper/goment"
)

// clock lets tests pin the current time; the zero value means time.Now.
type clock func() time.Time

func (c clock) now() time.Time {
	if c != nil {
		return c()
	}
	return time.Now()
}

// formatTime renders t with a moment-style format pattern ("LT", "LL",
// "dddd", "YYYY-MM-DD HH:mm", ...). Render failures degrade to "".
func formatTime(t time.Time, pattern string) string {
	g, err := goment.New(t)
	if err != nil {
		return ""
	}
	return g.Format(pattern)
}

// utcOffsetTime returns the current time shifted into a fixed UTC+N
// zone.
func utcOffsetTime(now time.Time, offsetHours int) time.Time {
	zone := time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
	return now.In(zone)
}
