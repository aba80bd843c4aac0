package strategy

import (
	"fmt"
	"strings"

	"pvbess-model/internal/model"
)

// WindowPolicy implements a simple daily time-window rule:
// - Discharge permitted during [Start, End)
// - Otherwise denied
//
// Times are interpreted in the timezone of the sample timestamps.
type WindowPolicy struct {
	startMins int
	endMins   int
}

func newWindow(plant model.PlantConfig) (Policy, error) {
	w := plant.DischargeWindow
	if strings.TrimSpace(w.Start) == "" {
		return nil, model.ConfigErrorf("discharge_window.start", "required for the window strategy")
	}
	start, err := parseHHMM(w.Start)
	if err != nil {
		return nil, model.ConfigErrorf("discharge_window.start", "%v", err)
	}
	end := start
	if strings.TrimSpace(w.End) != "" {
		end, err = parseHHMM(w.End)
		if err != nil {
			return nil, model.ConfigErrorf("discharge_window.end", "%v", err)
		}
	}
	if start == end {
		return nil, model.ConfigErrorf("discharge_window", "window %s-%s is empty", w.Start, w.End)
	}
	return &WindowPolicy{startMins: start, endMins: end}, nil
}

func (p *WindowPolicy) Name() string { return "window" }

func (p *WindowPolicy) AllowDischarge(s model.HourlySample) bool {
	mins := s.Timestamp.Hour()*60 + s.Timestamp.Minute()
	return inWindow(mins, p.startMins, p.endMins)
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// inWindow checks whether tMins is in [start, end) on a 24h clock.
// If start == end, the window is empty (always false).
// If start < end, it's a normal same-day window.
// If start > end, it wraps across midnight.
func inWindow(tMins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return tMins >= start && tMins < end
	}
	return tMins >= start || tMins < end
}
