package tools

import (
	"context"
	"fmt"
	"time"
)

// ClockInput optionally selects an IANA timezone.
type ClockInput struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"description=IANA timezone name such as Asia/Taipei. Defaults to local time."`
}

// Clock returns a tool reporting the current date and time.
func Clock() Tool {
	return New("current_time", "Get the current date and time, optionally in a specific timezone.",
		func(_ context.Context, in ClockInput) (string, error) {
			now := time.Now()
			if in.Timezone != "" {
				loc, err := time.LoadLocation(in.Timezone)
				if err != nil {
					return "", fmt.Errorf("unknown timezone %q: %w", in.Timezone, err)
				}
				now = now.In(loc)
			}
			return now.Format("2006-01-02 15:04:05 MST (Monday)"), nil
		})
}
