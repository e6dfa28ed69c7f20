package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Top-level reply keys. "Action requested" really does carry a space; the
// key is part of the daemon's wire contract.
const (
	sectionDisciplining = "disciplining"
	sectionOscillator   = "oscillator"
	sectionClock        = "clock"
	sectionGnss         = "gnss"
	sectionParameters   = "disciplining_parameters"
	sectionCalibration  = "calibration_parameters"
	keyTemperatureTable = "temperature_table"
	keyAction           = "Action requested"
)

// MalformedReplyError reports a reply that is not a JSON object at all:
// invalid syntax or a non-object top level.
type MalformedReplyError struct {
	err error
}

func (e *MalformedReplyError) Error() string {
	if e.err == nil {
		return "malformed reply: top level is not a JSON object"
	}
	return fmt.Sprintf("malformed reply: %v", e.err)
}

func (e *MalformedReplyError) Unwrap() error { return e.err }

// MissingFieldError reports a mandatory field absent from a present section.
type MissingFieldError struct {
	Section string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("section %q: missing field %q", e.Section, e.Field)
}

// TypeMismatchError reports a field whose JSON kind does not match the
// schema. An empty Field means the section value itself has the wrong kind.
type TypeMismatchError struct {
	Section string
	Field   string
	Want    string
}

func (e *TypeMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("section %q: expected %s", e.Section, e.Want)
	}
	return fmt.Sprintf("section %q: field %q: expected %s", e.Section, e.Field, e.Want)
}

// Decode parses a raw status reply into a Report. Sections absent from the
// reply stay nil. Within a present section every schema field is mandatory
// and must carry the expected JSON kind: the reply as a whole is rejected on
// the first violation, so a partially decoded report is never returned.
func Decode(data []byte) (*Report, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &MalformedReplyError{err: err}
	}
	if top == nil {
		// JSON null unmarshals into a map without error.
		return nil, &MalformedReplyError{}
	}

	var rep Report
	var err error
	if raw, ok := top[sectionDisciplining]; ok {
		if rep.Disciplining, err = decodeDisciplining(raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := top[sectionOscillator]; ok {
		if rep.Oscillator, err = decodeOscillator(raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := top[sectionClock]; ok {
		if rep.Clock, err = decodeClock(raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := top[sectionGnss]; ok {
		if rep.Gnss, err = decodeGnss(raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := top[sectionParameters]; ok {
		if rep.Parameters, err = decodeParameters(raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := top[keyAction]; ok {
		var action string
		if isNull(raw) || json.Unmarshal(raw, &action) != nil {
			return nil, &TypeMismatchError{Section: keyAction, Want: "string"}
		}
		rep.Action = &action
	}
	return &rep, nil
}

func decodeDisciplining(raw json.RawMessage) (*Disciplining, error) {
	sec, err := newSection(sectionDisciplining, raw)
	if err != nil {
		return nil, err
	}
	d := &Disciplining{
		Status:                         DiscipliningStatus(sec.str("status")),
		TrackingOnly:                   sec.boolean("tracking_only"),
		CurrentPhaseConvergenceCount:   sec.i32("current_phase_convergence_count"),
		ValidPhaseConvergenceThreshold: sec.i32("valid_phase_convergence_threshold"),
		ConvergenceProgress:            sec.f64("convergence_progress"),
		ReadyForHoldover:               sec.boolean("ready_for_holdover"),
	}
	if sec.err != nil {
		return nil, sec.err
	}
	return d, nil
}

func decodeOscillator(raw json.RawMessage) (*Oscillator, error) {
	sec, err := newSection(sectionOscillator, raw)
	if err != nil {
		return nil, err
	}
	o := &Oscillator{
		Model:       sec.str("model"),
		FineCtrl:    sec.u32("fine_ctrl"),
		CoarseCtrl:  sec.u32("coarse_ctrl"),
		Lock:        sec.boolean("lock"),
		Temperature: sec.f64("temperature"),
	}
	if sec.err != nil {
		return nil, sec.err
	}
	return o, nil
}

func decodeClock(raw json.RawMessage) (*Clock, error) {
	sec, err := newSection(sectionClock, raw)
	if err != nil {
		return nil, err
	}
	c := &Clock{
		Class:  sec.str("class"),
		Offset: sec.i32("offset"),
	}
	if sec.err != nil {
		return nil, sec.err
	}
	return c, nil
}

func decodeGnss(raw json.RawMessage) (*Gnss, error) {
	sec, err := newSection(sectionGnss, raw)
	if err != nil {
		return nil, err
	}
	g := &Gnss{
		Fix:                   sec.i32("fix"),
		FixOK:                 sec.boolean("fixOk"),
		AntennaStatus:         sec.i32("antenna_status"),
		AntennaPower:          sec.i32("antenna_power"),
		SurveyInPositionError: sec.f64("survey_in_position_error"),
		LeapSecondChange:      sec.i32("lsChange"),
		LeapSeconds:           sec.i32("leap_seconds"),
	}
	if sec.err != nil {
		return nil, sec.err
	}
	return g, nil
}

func decodeParameters(raw json.RawMessage) (*DiscipliningParameters, error) {
	sec, err := newSection(sectionParameters, raw)
	if err != nil {
		return nil, err
	}
	var p DiscipliningParameters
	if raw, ok := sec.fields[sectionCalibration]; ok {
		if p.Calibration, err = decodeCalibration(raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := sec.fields[keyTemperatureTable]; ok {
		if p.TemperatureTable, err = decodeTemperatureTable(raw); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func decodeCalibration(raw json.RawMessage) (*CalibrationParameters, error) {
	sec, err := newSection(sectionCalibration, raw)
	if err != nil {
		return nil, err
	}
	c := &CalibrationParameters{
		CtrlNodesLength:          sec.i32("ctrl_nodes_length"),
		CtrlLoadNodes:            sec.str("ctrl_load_nodes"),
		CtrlDriftCoeffs:          sec.str("ctrl_drift_coeffs"),
		CoarseEquilibrium:        sec.i32("coarse_equilibrium"),
		CalibrationDate:          sec.i32("calibration_date"),
		CalibrationValid:         sec.boolean("calibration_valid"),
		CtrlNodesLengthFactory:   sec.i32("ctrl_nodes_length_factory"),
		CtrlLoadNodesFactory:     sec.str("ctrl_load_nodes_factory"),
		CtrlDriftCoeffsFactory:   sec.str("ctrl_drift_coeffs_factory"),
		CoarseEquilibriumFactory: sec.i32("coarse_equilibrium_factory"),
		EstimatedEquilibriumES:   sec.i32("estimated_equilibrium_ES"),
	}
	if sec.err != nil {
		return nil, sec.err
	}
	return c, nil
}

// decodeTemperatureTable keeps every value as text: string values verbatim,
// anything else as its raw JSON representation. The decoder imposes no
// numeric parsing on the mean values; consumers parse as needed.
func decodeTemperatureTable(raw json.RawMessage) (map[string]string, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		return nil, &TypeMismatchError{Section: sectionParameters, Field: keyTemperatureTable, Want: "object"}
	}
	table := make(map[string]string, len(entries))
	for rangeLabel, value := range entries {
		var text string
		if isNull(value) || json.Unmarshal(value, &text) != nil {
			text = string(bytes.TrimSpace(value))
		}
		table[rangeLabel] = text
	}
	return table, nil
}

// section gives typed access to the fields of one reply object. The getters
// record the first violation of the mandatory-field rule (an absent field or
// a wrong JSON kind) in err rather than substituting a zero value, so a
// section decoder can fill a whole struct literal and check once.
type section struct {
	name   string
	fields map[string]json.RawMessage
	err    error
}

func newSection(name string, raw json.RawMessage) (*section, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &TypeMismatchError{Section: name, Want: "object"}
	}
	return &section{name: name, fields: fields}, nil
}

func (s *section) raw(field string) (json.RawMessage, bool) {
	raw, ok := s.fields[field]
	if !ok {
		s.fail(&MissingFieldError{Section: s.name, Field: field})
	}
	return raw, ok
}

func (s *section) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *section) mismatch(field, want string) {
	s.fail(&TypeMismatchError{Section: s.name, Field: field, Want: want})
}

func (s *section) str(field string) string {
	raw, ok := s.raw(field)
	if !ok {
		return ""
	}
	var v string
	if isNull(raw) || json.Unmarshal(raw, &v) != nil {
		s.mismatch(field, "string")
		return ""
	}
	return v
}

func (s *section) i32(field string) int32 {
	raw, ok := s.raw(field)
	if !ok {
		return 0
	}
	var v int32
	if isNull(raw) || json.Unmarshal(raw, &v) != nil {
		s.mismatch(field, "integer")
		return 0
	}
	return v
}

func (s *section) u32(field string) uint32 {
	raw, ok := s.raw(field)
	if !ok {
		return 0
	}
	var v uint32
	if isNull(raw) || json.Unmarshal(raw, &v) != nil {
		s.mismatch(field, "unsigned integer")
		return 0
	}
	return v
}

func (s *section) f64(field string) float64 {
	raw, ok := s.raw(field)
	if !ok {
		return 0
	}
	var v float64
	if isNull(raw) || json.Unmarshal(raw, &v) != nil {
		s.mismatch(field, "number")
		return 0
	}
	return v
}

// boolean accepts the daemon's two boolean spellings: a JSON boolean, or a
// truthy string such as "true" or "False".
func (s *section) boolean(field string) bool {
	raw, ok := s.raw(field)
	if !ok {
		return false
	}
	if !isNull(raw) {
		var b bool
		if json.Unmarshal(raw, &b) == nil {
			return b
		}
		var text string
		if json.Unmarshal(raw, &text) == nil {
			if b, err := strconv.ParseBool(text); err == nil {
				return b
			}
		}
	}
	s.mismatch(field, "boolean")
	return false
}

// isNull spots a literal JSON null, which json.Unmarshal would otherwise
// absorb silently into a zero value.
func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
