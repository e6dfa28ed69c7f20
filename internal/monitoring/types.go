// Package monitoring implements the wire contract of the timing daemon's
// monitoring socket: the command catalog, the JSON request codec, and the
// decoder that projects the daemon's status reply into a typed report.
package monitoring

// Report is a decoded status reply. Sections are independently optional: a
// nil section means the daemon did not report that subsystem, not that an
// error occurred. A Report is immutable once decoded.
type Report struct {
	Disciplining *Disciplining
	Oscillator   *Oscillator
	Clock        *Clock
	Gnss         *Gnss
	Parameters   *DiscipliningParameters
	Action       *string // echo of the action the daemon executed
}

// DiscipliningStatus is the disciplining algorithm state as reported by the
// daemon. Values outside the three convergence states are carried verbatim.
type DiscipliningStatus string

const (
	StatusTracking           DiscipliningStatus = "TRACKING"
	StatusLockLowResolution  DiscipliningStatus = "LOCK_LOW_RESOLUTION"
	StatusLockHighResolution DiscipliningStatus = "LOCK_HIGH_RESOLUTION"
)

// Converging reports whether the phase convergence counters are meaningful
// in this state.
func (s DiscipliningStatus) Converging() bool {
	switch s {
	case StatusTracking, StatusLockLowResolution, StatusLockHighResolution:
		return true
	}
	return false
}

// Disciplining describes the algorithm steering the oscillator toward the
// reference time source.
type Disciplining struct {
	Status                         DiscipliningStatus
	TrackingOnly                   bool
	CurrentPhaseConvergenceCount   int32
	ValidPhaseConvergenceThreshold int32
	ConvergenceProgress            float64 // percent
	ReadyForHoldover               bool
}

// Oscillator describes the disciplined oscillator hardware.
type Oscillator struct {
	Model       string
	FineCtrl    uint32
	CoarseCtrl  uint32
	Lock        bool
	Temperature float64 // °C
}

// Clock describes the system clock the daemon steers.
type Clock struct {
	Class  string
	Offset int32 // ns
}

// Gnss describes the GNSS receiver supplying the time reference.
type Gnss struct {
	Fix                   int32
	FixOK                 bool
	AntennaStatus         int32
	AntennaPower          int32
	SurveyInPositionError float64 // meters
	LeapSecondChange      int32
	LeapSeconds           int32
}

// DiscipliningParameters carries the daemon's calibration state. Both parts
// are optional independently of each other; the temperature table may be
// present and empty.
type DiscipliningParameters struct {
	Calibration      *CalibrationParameters
	TemperatureTable map[string]string // temperature range label → mean value
}

// CalibrationParameters is the disciplining calibration snapshot kept in
// EEPROM. The load-node and drift-coefficient lists arrive as serialized
// number lists and are kept as text; consumers parse them as needed.
type CalibrationParameters struct {
	CtrlNodesLength          int32
	CtrlLoadNodes            string
	CtrlDriftCoeffs          string
	CoarseEquilibrium        int32
	CalibrationDate          int32 // unix epoch seconds
	CalibrationValid         bool
	CtrlNodesLengthFactory   int32
	CtrlLoadNodesFactory     string
	CtrlDriftCoeffsFactory   string
	CoarseEquilibriumFactory int32
	EstimatedEquilibriumES   int32
}
