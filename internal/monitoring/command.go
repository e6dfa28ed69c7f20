package monitoring

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Command identifies a single request understood by the daemon's monitoring
// socket.
type Command int

const (
	CommandNone Command = iota
	CommandCalibration
	CommandGnssStart
	CommandGnssStop
	CommandGnssSoft
	CommandGnssHard
	CommandGnssCold
	CommandReadEeprom
	CommandSaveEeprom
	CommandFakeHoldoverStart
	CommandFakeHoldoverStop
	CommandMroCoarseInc
	CommandMroCoarseDec
)

// requestCodes pins each command to the daemon's wire numbering. The codes
// are a contract with the daemon: they must match its numbering exactly, so
// they are spelled out here instead of being derived from declaration order.
var requestCodes = map[Command]int{
	CommandNone:              0,
	CommandCalibration:       1,
	CommandGnssStart:         2,
	CommandGnssStop:          3,
	CommandGnssSoft:          4,
	CommandGnssHard:          5,
	CommandGnssCold:          6,
	CommandReadEeprom:        7,
	CommandSaveEeprom:        8,
	CommandFakeHoldoverStart: 9,
	CommandFakeHoldoverStop:  10,
	CommandMroCoarseInc:      11,
	CommandMroCoarseDec:      12,
}

// commandTokens maps command-line request tokens to commands. CommandNone is
// the no-request default and has no token.
var commandTokens = map[string]Command{
	"calibration":         CommandCalibration,
	"gnss_start":          CommandGnssStart,
	"gnss_stop":           CommandGnssStop,
	"gnss_soft":           CommandGnssSoft,
	"gnss_hard":           CommandGnssHard,
	"gnss_cold":           CommandGnssCold,
	"read_eeprom":         CommandReadEeprom,
	"save_eeprom":         CommandSaveEeprom,
	"fake_holdover_start": CommandFakeHoldoverStart,
	"fake_holdover_stop":  CommandFakeHoldoverStop,
	"mro_coarse_inc":      CommandMroCoarseInc,
	"mro_coarse_dec":      CommandMroCoarseDec,
}

// UnknownCommandError reports a request token that is not in the catalog.
type UnknownCommandError struct {
	Token string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown request %q", e.Token)
}

// Resolve maps a request token to its Command. Matching is exact and
// case-sensitive.
func Resolve(token string) (Command, error) {
	cmd, ok := commandTokens[token]
	if !ok {
		return CommandNone, &UnknownCommandError{Token: token}
	}
	return cmd, nil
}

// Tokens returns every accepted request token in sorted order.
func Tokens() []string {
	tokens := make([]string, 0, len(commandTokens))
	for token := range commandTokens {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// String returns the request token for the command, or "none" for
// CommandNone.
func (c Command) String() string {
	if c == CommandNone {
		return "none"
	}
	for token, cmd := range commandTokens {
		if cmd == c {
			return token
		}
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// request is the wire form sent to the daemon.
type request struct {
	Request int `json:"request"`
}

// EncodeRequest serializes cmd into the daemon's wire request
// {"request": N}. A command without a wire code is a programming error and
// is reported instead of being encoded as something the daemon would
// misread.
func EncodeRequest(cmd Command) ([]byte, error) {
	code, ok := requestCodes[cmd]
	if !ok {
		return nil, fmt.Errorf("no wire code for command %s", cmd)
	}
	return json.Marshal(request{Request: code})
}
