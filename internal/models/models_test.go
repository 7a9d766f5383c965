package models

import (
	"encoding/json"
	"testing"
)

func TestHexNumberUint64(t *testing.T) {
	cases := map[string]uint64{
		"0x18a2b3c4d5e":   1692942486878,
		"0x00000000002a":  42,
		"0X2A":            42,
		"ff":              255,
		" 0x018a2b3c4d5e": 1692942486878,
	}
	for raw, want := range cases {
		got, err := HexNumber{Hex: raw}.Uint64()
		if err != nil {
			t.Fatalf("Uint64(%q) failed: %v", raw, err)
		}
		if got != want {
			t.Errorf("Uint64(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestHexNumberUint64Invalid(t *testing.T) {
	for _, raw := range []string{"", "0x", "0xzz", "-0x1"} {
		if _, err := (HexNumber{Hex: raw}).Uint64(); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestTipRecordDecodesWireFormat(t *testing.T) {
	payload := `{
		"crimeId": {"_hex": "0x01", "_isBigNumber": true},
		"timeStamp": {"_hex": "0x018a2b3c4d5e", "_isBigNumber": true},
		"crimeType": "Theft",
		"crimeDesc": "Bike stolen",
		"location": ["Chennai", "Tamil Nadu"],
		"isVehiclePresent": true,
		"vehicleInfoAnswers": ["{\"vehicleState\":\"TN\",\"vehiclePlateNumber\":\"TN01AB1234\"}"],
		"fileNames": ["a.jpg"],
		"ipfsHash": "bafy123",
		"feedbacks": ["first"]
	}`

	var tip TipRecord
	if err := json.Unmarshal([]byte(payload), &tip); err != nil {
		t.Fatalf("Failed to unmarshal TipRecord: %v", err)
	}

	if tip.CrimeID.Hex != "0x01" {
		t.Errorf("Expected crimeId hex 0x01, got %s", tip.CrimeID.Hex)
	}
	if !tip.TimeStamp.IsBigNumber {
		t.Errorf("Expected timeStamp to be flagged as big number")
	}
	if tip.City() != "Chennai" {
		t.Errorf("Expected city Chennai, got %s", tip.City())
	}
	if !tip.IsVehiclePresent || len(tip.VehicleInfoAnswers) != 1 {
		t.Errorf("Expected vehicle answers to be present")
	}
	if len(tip.Feedbacks) != 1 || tip.Feedbacks[0] != "first" {
		t.Errorf("Expected feedbacks [first], got %v", tip.Feedbacks)
	}
}

func TestTipRecordClone(t *testing.T) {
	tip := TipRecord{Feedbacks: []string{"a"}, FileNames: []string{"x.png"}}
	clone := tip.Clone()
	clone.Feedbacks[0] = "changed"
	clone.FileNames = append(clone.FileNames, "y.png")

	if tip.Feedbacks[0] != "a" {
		t.Fatalf("clone shares feedback storage with original")
	}
	if len(tip.FileNames) != 1 {
		t.Fatalf("clone append leaked into original")
	}
}

func TestCityWithoutLocation(t *testing.T) {
	var tip TipRecord
	if tip.City() != "" {
		t.Fatalf("expected empty city, got %q", tip.City())
	}
}

func TestCoordinateValid(t *testing.T) {
	if !(Coordinate{Latitude: 12.9, Longitude: 80.2}).Valid() {
		t.Errorf("expected coordinate to be valid")
	}
	if (Coordinate{Latitude: 91, Longitude: 0}).Valid() {
		t.Errorf("expected latitude 91 to be invalid")
	}
	if (Coordinate{Latitude: 0, Longitude: -181}).Valid() {
		t.Errorf("expected longitude -181 to be invalid")
	}
}
