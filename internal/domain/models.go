package domain

import "time"

type Profile string

const (
	ProfileQuiet      Profile = "quiet"
	ProfileCool       Profile = "cool"
	ProfileAggressive Profile = "aggressive"

	DefaultProfile = ProfileCool
)

// Profiles lists the profiles the duty cycle table knows about.
var Profiles = []Profile{ProfileQuiet, ProfileCool, ProfileAggressive}

func (p Profile) Known() bool {
	for _, known := range Profiles {
		if p == known {
			return true
		}
	}
	return false
}

const (
	SensorCPU  = "cpu"
	SensorNVMe = "nvme"
	SensorHDD  = "hdd"
)

// HwmonDevice is a single /sys/class/hwmon entry keyed by its lowercased name.
type HwmonDevice struct {
	Name string
	Path string
}

// SensorReading is a measured temperature in Celsius. Default is only set on
// display placeholders and never on a real measurement.
type SensorReading struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Default bool    `json:"default,omitempty"`
}

type AgentHealth struct {
	Online      bool          `json:"online"`
	StatusCode  int           `json:"status_code"`
	Error       string        `json:"error"`
	LastChecked time.Time     `json:"last_checked"`
	Age         time.Duration `json:"-"`
	AgeSeconds  float64       `json:"age_seconds"`
}

// AgentStatus mirrors the privileged agent's GET /status body.
type AgentStatus struct {
	AvailablePWMs []string          `json:"available_pwms"`
	CurrentPWM    int               `json:"current_pwm"`
	HwmonMap      map[string]string `json:"hwmon_map"`
}

// SetPWMResult mirrors the privileged agent's POST /set_pwm body.
type SetPWMResult struct {
	Status        string   `json:"status"`
	PWM           int      `json:"pwm"`
	Target        string   `json:"target,omitempty"`
	Message       string   `json:"message,omitempty"`
	AvailablePWMs []string `json:"available_pwms"`
}

const (
	ModeFullControl    = "full-control"
	ModeMonitoringOnly = "monitoring-only"
)

// FanStatus combines the agent's PWM view with locally read fan speeds.
type FanStatus struct {
	CurrentPWM    int            `json:"current_pwm"`
	AvailablePWMs []string       `json:"available_pwms"`
	RPMs          map[string]int `json:"rpms"`
}

type Capabilities struct {
	SmartAvailable bool `json:"smart_available"`
}

type SystemInfo struct {
	Hostname string    `json:"hostname"`
	CPUModel string    `json:"cpu_model"`
	Board    string    `json:"board"`
	Cores    int       `json:"cores"`
	Threads  int       `json:"threads"`
	Uptime   string    `json:"uptime"`
	Load1    float64   `json:"load_1m"`
	Load5    float64   `json:"load_5m"`
	Load15   float64   `json:"load_15m"`
	Time     time.Time `json:"time"`
}

// Status is the read model served to the dashboard.
type Status struct {
	Mode              string          `json:"mode"`
	AgentAvailable    bool            `json:"agent_available"`
	PWMControlEnabled bool            `json:"pwm_control_enabled"`
	ReadOnly          bool            `json:"read_only"`
	Profile           Profile         `json:"profile"`
	TargetPWM         *int            `json:"target_pwm"`
	Agent             AgentHealth     `json:"agent"`
	Sensors           []SensorReading `json:"sensors"`
	Fan               FanStatus       `json:"fan"`
	Capabilities      Capabilities    `json:"capabilities"`
	System            SystemInfo      `json:"system"`
}

// DefaultStatus is the payload served when the read model cannot be built.
// Its sensor entries are zero placeholders flagged as Default.
func DefaultStatus() Status {
	return Status{
		Mode:    ModeMonitoringOnly,
		Profile: DefaultProfile,
		Agent: AgentHealth{
			Error: "unknown",
		},
		Sensors: []SensorReading{
			{Name: SensorCPU, Default: true},
			{Name: SensorNVMe, Default: true},
			{Name: SensorHDD, Default: true},
		},
		Fan: FanStatus{
			AvailablePWMs: []string{},
			RPMs:          map[string]int{},
		},
		Capabilities: Capabilities{SmartAvailable: true},
	}
}

// ControlDecision records one read-decide-write cycle of the control loop.
type ControlDecision struct {
	Profile Profile   `json:"profile"`
	CPUTemp float64   `json:"cpu_temp"`
	PWM     int       `json:"pwm"`
	Applied bool      `json:"applied"`
	Time    time.Time `json:"time"`
}

type Health struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
