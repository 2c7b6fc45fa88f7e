package profile

import "github.com/restartfu/truefan/internal/domain"

// UnknownDuty applies to any profile outside the table.
const UnknownDuty = 120

type step struct {
	minTemp float64
	duty    int
}

type curve struct {
	steps []step // highest threshold first
	base  int
}

var curves = map[domain.Profile]curve{
	domain.ProfileQuiet: {
		steps: []step{{80, 180}, {65, 120}},
		base:  70,
	},
	domain.ProfileCool: {
		steps: []step{{70, 255}, {55, 180}},
		base:  100,
	},
	domain.ProfileAggressive: {
		steps: []step{{50, 255}, {40, 180}},
		base:  130,
	},
}

// Duty maps a CPU temperature to a PWM duty value for the given profile.
// Thresholds are inclusive lower bounds.
func Duty(cpuTemp float64, p domain.Profile) int {
	c, ok := curves[p]
	if !ok {
		return UnknownDuty
	}
	for _, s := range c.steps {
		if cpuTemp >= s.minTemp {
			return s.duty
		}
	}
	return c.base
}
