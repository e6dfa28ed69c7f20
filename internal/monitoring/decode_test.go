package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEmptyObject(t *testing.T) {
	rep, err := Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, rep.Disciplining)
	assert.Nil(t, rep.Oscillator)
	assert.Nil(t, rep.Clock)
	assert.Nil(t, rep.Gnss)
	assert.Nil(t, rep.Parameters)
	assert.Nil(t, rep.Action)
}

func TestDecodeFullReply(t *testing.T) {
	// Boolean fields arrive both as JSON booleans and as strings; unknown
	// top-level keys must be ignored.
	reply := []byte(`{
		"disciplining": {
			"status": "LOCK_HIGH_RESOLUTION",
			"tracking_only": "false",
			"current_phase_convergence_count": 180,
			"valid_phase_convergence_threshold": 240,
			"convergence_progress": 75.0,
			"ready_for_holdover": "true"
		},
		"oscillator": {
			"model": "mRO50",
			"fine_ctrl": 4236,
			"coarse_ctrl": 328,
			"lock": true,
			"temperature": 47.25
		},
		"clock": {
			"class": "Lock",
			"offset": -3
		},
		"gnss": {
			"fix": 3,
			"fixOk": true,
			"antenna_status": 2,
			"antenna_power": 1,
			"survey_in_position_error": 1.75,
			"lsChange": 0,
			"leap_seconds": 18
		},
		"disciplining_parameters": {
			"calibration_parameters": {
				"ctrl_nodes_length": 3,
				"ctrl_load_nodes": "0.25,0.5,0.75",
				"ctrl_drift_coeffs": "-0.48,-0.2,0.1",
				"coarse_equilibrium": 328,
				"calibration_date": 1668161543,
				"calibration_valid": true,
				"ctrl_nodes_length_factory": 3,
				"ctrl_load_nodes_factory": "0.25,0.5,0.75",
				"ctrl_drift_coeffs_factory": "-0.5,-0.2,0.2",
				"coarse_equilibrium_factory": 330,
				"estimated_equilibrium_ES": 4236
			},
			"temperature_table": {
				"20-25": "1.23",
				"25-30": "4.56"
			}
		},
		"Action requested": "calibration",
		"firmware_version": "2.3.1"
	}`)

	rep, err := Decode(reply)
	require.NoError(t, err)

	action := "calibration"
	want := &Report{
		Disciplining: &Disciplining{
			Status:                         StatusLockHighResolution,
			TrackingOnly:                   false,
			CurrentPhaseConvergenceCount:   180,
			ValidPhaseConvergenceThreshold: 240,
			ConvergenceProgress:            75,
			ReadyForHoldover:               true,
		},
		Oscillator: &Oscillator{
			Model:       "mRO50",
			FineCtrl:    4236,
			CoarseCtrl:  328,
			Lock:        true,
			Temperature: 47.25,
		},
		Clock: &Clock{Class: "Lock", Offset: -3},
		Gnss: &Gnss{
			Fix:                   3,
			FixOK:                 true,
			AntennaStatus:         2,
			AntennaPower:          1,
			SurveyInPositionError: 1.75,
			LeapSecondChange:      0,
			LeapSeconds:           18,
		},
		Parameters: &DiscipliningParameters{
			Calibration: &CalibrationParameters{
				CtrlNodesLength:          3,
				CtrlLoadNodes:            "0.25,0.5,0.75",
				CtrlDriftCoeffs:          "-0.48,-0.2,0.1",
				CoarseEquilibrium:        328,
				CalibrationDate:          1668161543,
				CalibrationValid:         true,
				CtrlNodesLengthFactory:   3,
				CtrlLoadNodesFactory:     "0.25,0.5,0.75",
				CtrlDriftCoeffsFactory:   "-0.5,-0.2,0.2",
				CoarseEquilibriumFactory: 330,
				EstimatedEquilibriumES:   4236,
			},
			TemperatureTable: map[string]string{
				"20-25": "1.23",
				"25-30": "4.56",
			},
		},
		Action: &action,
	}
	assert.Equal(t, want, rep)
}

func TestDecodeDisciplining(t *testing.T) {
	rep, err := Decode([]byte(`{"disciplining": {
		"status": "TRACKING",
		"tracking_only": false,
		"current_phase_convergence_count": 3,
		"valid_phase_convergence_threshold": 10,
		"convergence_progress": 42.5,
		"ready_for_holdover": false
	}}`))
	require.NoError(t, err)
	require.NotNil(t, rep.Disciplining)

	d := rep.Disciplining
	assert.Equal(t, StatusTracking, d.Status)
	assert.True(t, d.Status.Converging())
	assert.Equal(t, int32(3), d.CurrentPhaseConvergenceCount)
	assert.Equal(t, int32(10), d.ValidPhaseConvergenceThreshold)
	assert.Equal(t, 42.5, d.ConvergenceProgress)
	assert.Nil(t, rep.Oscillator)
}

func TestDecodeMissingField(t *testing.T) {
	_, err := Decode([]byte(`{"disciplining": {
		"status": "TRACKING",
		"tracking_only": false,
		"current_phase_convergence_count": 3,
		"valid_phase_convergence_threshold": 10,
		"convergence_progress": 42.5
	}}`))
	require.Error(t, err)

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "disciplining", missing.Section)
	assert.Equal(t, "ready_for_holdover", missing.Field)
}

func TestDecodeMalformed(t *testing.T) {
	inputs := map[string][]byte{
		"empty":     nil,
		"truncated": []byte(`{"gnss": {`),
		"number":    []byte(`42`),
		"string":    []byte(`"x"`),
		"array":     []byte(`[{}]`),
		"null":      []byte(`null`),
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(input)
			require.Error(t, err)

			var malformed *MalformedReplyError
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestDecodeSectionKind(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		section string
	}{
		{"null section", `{"oscillator": null}`, "oscillator"},
		{"number section", `{"clock": 3}`, "clock"},
		{"array section", `{"disciplining": []}`, "disciplining"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.reply))
			require.Error(t, err)

			var mismatch *TypeMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.section, mismatch.Section)
			assert.Empty(t, mismatch.Field)
			assert.Equal(t, "object", mismatch.Want)
		})
	}
}

func TestDecodeBooleanForms(t *testing.T) {
	accepted := map[string]bool{
		`true`:    true,
		`false`:   false,
		`"true"`:  true,
		`"True"`:  true,
		`"false"`: false,
		`"1"`:     true,
		`"0"`:     false,
	}
	for literal, want := range accepted {
		t.Run(literal, func(t *testing.T) {
			rep, err := Decode(discipliningWithTrackingOnly(literal))
			require.NoError(t, err)
			assert.Equal(t, want, rep.Disciplining.TrackingOnly)
		})
	}

	for _, literal := range []string{`1`, `"yes"`, `null`, `[]`} {
		t.Run(literal, func(t *testing.T) {
			_, err := Decode(discipliningWithTrackingOnly(literal))
			require.Error(t, err)

			var mismatch *TypeMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, "tracking_only", mismatch.Field)
			assert.Equal(t, "boolean", mismatch.Want)
		})
	}
}

func discipliningWithTrackingOnly(literal string) []byte {
	return []byte(fmt.Sprintf(`{"disciplining": {
		"status": "TRACKING",
		"tracking_only": %s,
		"current_phase_convergence_count": 1,
		"valid_phase_convergence_threshold": 2,
		"convergence_progress": 50.0,
		"ready_for_holdover": true
	}}`, literal))
}

func TestDecodeFieldKind(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		section string
		field   string
		want    string
	}{
		{
			name: "string where integer expected",
			reply: `{"gnss": {"fix": "3", "fixOk": true, "antenna_status": 2,
				"antenna_power": 1, "survey_in_position_error": 1.75,
				"lsChange": 0, "leap_seconds": 18}}`,
			section: "gnss", field: "fix", want: "integer",
		},
		{
			name: "fraction where integer expected",
			reply: `{"clock": {"class": "Lock",
				"offset": 1.5}}`,
			section: "clock", field: "offset", want: "integer",
		},
		{
			name: "negative where unsigned expected",
			reply: `{"oscillator": {"model": "mRO50", "fine_ctrl": -1,
				"coarse_ctrl": 328, "lock": true, "temperature": 47.25}}`,
			section: "oscillator", field: "fine_ctrl", want: "unsigned integer",
		},
		{
			name: "string where number expected",
			reply: `{"disciplining": {"status": "TRACKING", "tracking_only": false,
				"current_phase_convergence_count": 1, "valid_phase_convergence_threshold": 2,
				"convergence_progress": "42.5", "ready_for_holdover": true}}`,
			section: "disciplining", field: "convergence_progress", want: "number",
		},
		{
			name: "number where string expected",
			reply: `{"oscillator": {"model": 50, "fine_ctrl": 4236,
				"coarse_ctrl": 328, "lock": true, "temperature": 47.25}}`,
			section: "oscillator", field: "model", want: "string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.reply))
			require.Error(t, err)

			var mismatch *TypeMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.section, mismatch.Section)
			assert.Equal(t, tt.field, mismatch.Field)
			assert.Equal(t, tt.want, mismatch.Want)
		})
	}
}

func TestDecodeParameters(t *testing.T) {
	t.Run("table only", func(t *testing.T) {
		rep, err := Decode([]byte(`{"disciplining_parameters": {
			"temperature_table": {"0-10": "1.23", "10-20": "4.56"}
		}}`))
		require.NoError(t, err)
		require.NotNil(t, rep.Parameters)
		assert.Nil(t, rep.Parameters.Calibration)
		assert.Equal(t, map[string]string{"0-10": "1.23", "10-20": "4.56"}, rep.Parameters.TemperatureTable)
	})

	t.Run("empty table", func(t *testing.T) {
		rep, err := Decode([]byte(`{"disciplining_parameters": {"temperature_table": {}}}`))
		require.NoError(t, err)
		require.NotNil(t, rep.Parameters.TemperatureTable)
		assert.Empty(t, rep.Parameters.TemperatureTable)
	})

	t.Run("non-string table values kept as text", func(t *testing.T) {
		rep, err := Decode([]byte(`{"disciplining_parameters": {
			"temperature_table": {"20-25": 1.23, "25-30": true}
		}}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"20-25": "1.23", "25-30": "true"}, rep.Parameters.TemperatureTable)
	})

	t.Run("neither part present", func(t *testing.T) {
		rep, err := Decode([]byte(`{"disciplining_parameters": {}}`))
		require.NoError(t, err)
		require.NotNil(t, rep.Parameters)
		assert.Nil(t, rep.Parameters.Calibration)
		assert.Nil(t, rep.Parameters.TemperatureTable)
	})

	t.Run("table must be an object", func(t *testing.T) {
		_, err := Decode([]byte(`{"disciplining_parameters": {"temperature_table": [1, 2]}}`))
		require.Error(t, err)

		var mismatch *TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "disciplining_parameters", mismatch.Section)
		assert.Equal(t, "temperature_table", mismatch.Field)
		assert.Equal(t, "object", mismatch.Want)
	})

	t.Run("calibration missing field", func(t *testing.T) {
		_, err := Decode([]byte(`{"disciplining_parameters": {"calibration_parameters": {
			"ctrl_nodes_length": 3,
			"ctrl_load_nodes": "0.25,0.5,0.75",
			"ctrl_drift_coeffs": "-0.48,-0.2,0.1",
			"coarse_equilibrium": 328,
			"calibration_date": 1668161543,
			"calibration_valid": true,
			"ctrl_nodes_length_factory": 3,
			"ctrl_load_nodes_factory": "0.25,0.5,0.75",
			"ctrl_drift_coeffs_factory": "-0.5,-0.2,0.2",
			"coarse_equilibrium_factory": 330
		}}}`))
		require.Error(t, err)

		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "calibration_parameters", missing.Section)
		assert.Equal(t, "estimated_equilibrium_ES", missing.Field)
	})
}

func TestDecodeAction(t *testing.T) {
	t.Run("action only", func(t *testing.T) {
		rep, err := Decode([]byte(`{"Action requested": "gnss_start"}`))
		require.NoError(t, err)
		require.NotNil(t, rep.Action)
		assert.Equal(t, "gnss_start", *rep.Action)
		assert.Nil(t, rep.Disciplining)
	})

	t.Run("action must be a string", func(t *testing.T) {
		_, err := Decode([]byte(`{"Action requested": 3}`))
		require.Error(t, err)

		var mismatch *TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "Action requested", mismatch.Section)
		assert.Equal(t, "string", mismatch.Want)
	})
}
