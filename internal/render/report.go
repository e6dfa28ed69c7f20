// Package render turns decoded status reports into their human-readable
// console form.
package render

import (
	"fmt"
	"sort"
	"strings"

	"oscctl/internal/monitoring"
)

// Format renders rep section by section in the daemon's reporting order:
// disciplining, oscillator, clock, gnss, disciplining parameters, action.
// Absent sections are omitted entirely; an empty report says so.
func Format(rep *monitoring.Report) string {
	var lines []string

	if d := rep.Disciplining; d != nil {
		lines = append(lines,
			"Disciplining:",
			fmt.Sprintf("  status: %s", d.Status),
			fmt.Sprintf("  tracking_only: %s", boolText(d.TrackingOnly)),
			fmt.Sprintf("  ready_for_holdover: %s", boolText(d.ReadyForHoldover)),
		)
		if d.Status.Converging() {
			lines = append(lines, fmt.Sprintf("  %s convergence progress: %0.2f %% (%d/%d)",
				convergenceLabel(d.Status), d.ConvergenceProgress,
				d.CurrentPhaseConvergenceCount, d.ValidPhaseConvergenceThreshold))
		}
	}

	if o := rep.Oscillator; o != nil {
		lines = append(lines,
			"Oscillator:",
			fmt.Sprintf("  model: %s", o.Model),
			fmt.Sprintf("  fine_ctrl: %d", o.FineCtrl),
			fmt.Sprintf("  coarse_ctrl: %d", o.CoarseCtrl),
			fmt.Sprintf("  lock: %s", boolText(o.Lock)),
			fmt.Sprintf("  temperature: %0.2f °C", o.Temperature),
		)
	}

	if c := rep.Clock; c != nil {
		lines = append(lines,
			"Clock:",
			fmt.Sprintf("  class: %s", c.Class),
			fmt.Sprintf("  offset: %d ns", c.Offset),
		)
	}

	if g := rep.Gnss; g != nil {
		lines = append(lines,
			"Gnss:",
			fmt.Sprintf("  fix: %d", g.Fix),
			fmt.Sprintf("  fixOk: %s", boolText(g.FixOK)),
			fmt.Sprintf("  antenna_status: %d", g.AntennaStatus),
			fmt.Sprintf("  antenna_power: %d", g.AntennaPower),
			fmt.Sprintf("  survey_in_position_error: %0.2f m", g.SurveyInPositionError),
			fmt.Sprintf("  lsChange: %d", g.LeapSecondChange),
			fmt.Sprintf("  leap_seconds: %d", g.LeapSeconds),
		)
	}

	if p := rep.Parameters; p != nil {
		lines = append(lines, "Disciplining parameters:")
		if c := p.Calibration; c != nil {
			lines = append(lines,
				"  Calibration parameters:",
				fmt.Sprintf("    ctrl_nodes_length: %d", c.CtrlNodesLength),
				fmt.Sprintf("    ctrl_load_nodes: %s", c.CtrlLoadNodes),
				fmt.Sprintf("    ctrl_drift_coeffs: %s", c.CtrlDriftCoeffs),
				fmt.Sprintf("    coarse_equilibrium: %d", c.CoarseEquilibrium),
				fmt.Sprintf("    calibration_date: %d", c.CalibrationDate),
				fmt.Sprintf("    calibration_valid: %s", boolText(c.CalibrationValid)),
				fmt.Sprintf("    ctrl_nodes_length_factory: %d", c.CtrlNodesLengthFactory),
				fmt.Sprintf("    ctrl_load_nodes_factory: %s", c.CtrlLoadNodesFactory),
				fmt.Sprintf("    ctrl_drift_coeffs_factory: %s", c.CtrlDriftCoeffsFactory),
				fmt.Sprintf("    coarse_equilibrium_factory: %d", c.CoarseEquilibriumFactory),
				fmt.Sprintf("    estimated_equilibrium_ES: %d", c.EstimatedEquilibriumES),
			)
		}
		if p.TemperatureTable != nil {
			lines = append(lines, "  Temperature table:")
			for _, rangeLabel := range sortedRanges(p.TemperatureTable) {
				lines = append(lines, fmt.Sprintf("    %s: %s", rangeLabel, p.TemperatureTable[rangeLabel]))
			}
		}
	}

	if rep.Action != nil {
		lines = append(lines, fmt.Sprintf("Action requested: %s", *rep.Action))
	}

	if len(lines) == 0 {
		return "no status sections reported"
	}
	return strings.Join(lines, "\n")
}

// convergenceLabel turns a status such as LOCK_LOW_RESOLUTION into the
// progress-line label "lock low resolution".
func convergenceLabel(s monitoring.DiscipliningStatus) string {
	return strings.ToLower(strings.ReplaceAll(string(s), "_", " "))
}

// sortedRanges orders table keys for deterministic output.
func sortedRanges(table map[string]string) []string {
	ranges := make([]string, 0, len(table))
	for rangeLabel := range table {
		ranges = append(ranges, rangeLabel)
	}
	sort.Strings(ranges)
	return ranges
}

func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
