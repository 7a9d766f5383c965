package models

import (
	"fmt"
	"strconv"
	"strings"
)

// HexNumber is the ledger's wire form for integers: a big-endian hex string
// wrapped in an object, e.g. {"_hex":"0x018a2b3c4d5e","_isBigNumber":true}.
type HexNumber struct {
	Hex         string `json:"_hex"`
	IsBigNumber bool   `json:"_isBigNumber,omitempty"`
}

// Uint64 decodes the hex string as an unsigned integer.
func (h HexNumber) Uint64() (uint64, error) {
	raw := strings.TrimSpace(h.Hex)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if raw == "" {
		return 0, fmt.Errorf("empty hex value")
	}
	value, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q: %w", h.Hex, err)
	}
	return value, nil
}

// TipRecord is a crime tip as stored by the ledger contract
type TipRecord struct {
	// Identifiers
	CrimeID   HexNumber `json:"crimeId"`   // Passed through to feedback writes, never displayed
	TimeStamp HexNumber `json:"timeStamp"` // Unix epoch milliseconds

	// Report
	CrimeType string   `json:"crimeType"`
	CrimeDesc string   `json:"crimeDesc"`
	Location  []string `json:"location"` // Index 0 is the city name

	// Optional witness data
	IsVehiclePresent   bool     `json:"isVehiclePresent"`
	IsSuspectKnown     bool     `json:"isSuspectKnown"`
	IsVictimKnown      bool     `json:"isVictimKnown"`
	VehicleInfoAnswers []string `json:"vehicleInfoAnswers"` // [0] is a JSON-encoded vehicle object
	SuspectInfoAnswers []string `json:"suspectInfoAnswers"` // [0] is a JSON-encoded suspect object
	VictimInfoAnswers  []string `json:"victimInfoAnswers"`  // [0] is a JSON-encoded victim object

	// Media
	FileNames []string `json:"fileNames"`
	IPFSHash  string   `json:"ipfsHash"`

	// Feedback history
	Feedbacks []string `json:"feedbacks"`
}

// City returns the first location entry or an empty string.
func (t *TipRecord) City() string {
	if len(t.Location) == 0 {
		return ""
	}
	return t.Location[0]
}

// Clone returns a deep copy so callers can treat the record as immutable.
func (t TipRecord) Clone() TipRecord {
	out := t
	out.Location = cloneStrings(t.Location)
	out.VehicleInfoAnswers = cloneStrings(t.VehicleInfoAnswers)
	out.SuspectInfoAnswers = cloneStrings(t.SuspectInfoAnswers)
	out.VictimInfoAnswers = cloneStrings(t.VictimInfoAnswers)
	out.FileNames = cloneStrings(t.FileNames)
	out.Feedbacks = cloneStrings(t.Feedbacks)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Coordinate is a map position in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate is inside WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// FeedbackEvent is published after a feedback write is confirmed
type FeedbackEvent struct {
	CrimeID string `json:"crime_id"` // Hex identifier as sent to the ledger
	Index   int    `json:"index"`    // Zero-based position in the feedback list
	Text    string `json:"text"`
}
