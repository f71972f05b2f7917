package x10

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// X10 address limits.
const (
	// MinHouse and MaxHouse bound the house code letters.
	MinHouse House = 'A'
	MaxHouse House = 'P'

	// MinUnit and MaxUnit bound the unit numbers within a house.
	MinUnit = 1
	MaxUnit = 16
)

// deviceIDPattern matches a house letter followed by unit digits, e.g. "c02".
var deviceIDPattern = regexp.MustCompile(`^([A-Za-z])(\d{1,2})$`)

// House is an X10 house code, 'A' through 'P'.
type House byte

// ParseHouse parses a single-letter house code, case-insensitively.
func ParseHouse(s string) (House, error) {
	s = strings.TrimSpace(s)
	if len(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHouse, s)
	}
	h := House(strings.ToUpper(s)[0])
	if !h.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHouse, s)
	}
	return h, nil
}

// Valid reports whether h is within A-P.
func (h House) Valid() bool {
	return h >= MinHouse && h <= MaxHouse
}

// String returns the house letter.
func (h House) String() string {
	return string(rune(h))
}

// DeviceID identifies one X10 device: a house code plus a unit number.
//
// The zero value is not a valid device. DeviceID is comparable and may be
// used as a map key.
type DeviceID struct {
	house House
	unit  int
}

// NewDeviceID builds a DeviceID from its parts.
//
// Returns:
//   - DeviceID: Canonical device identifier
//   - error: ErrInvalidHouse or ErrInvalidUnit if out of range
func NewDeviceID(house House, unit int) (DeviceID, error) {
	if !house.Valid() {
		return DeviceID{}, fmt.Errorf("%w: %q", ErrInvalidHouse, house.String())
	}
	if unit < MinUnit || unit > MaxUnit {
		return DeviceID{}, fmt.Errorf("%w: %d", ErrInvalidUnit, unit)
	}
	return DeviceID{house: house, unit: unit}, nil
}

// ParseDeviceID parses a device identifier such as "C2", "c2" or "C02".
//
// The result is canonical: uppercase house letter and an unpadded unit, so
// ParseDeviceID("c02").String() == "C2".
//
// Example:
//
//	id, err := x10.ParseDeviceID("a16")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(id) // "A16"
func ParseDeviceID(s string) (DeviceID, error) {
	m := deviceIDPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return DeviceID{}, fmt.Errorf("%w: %q", ErrInvalidDevice, s)
	}

	house, err := ParseHouse(m[1])
	if err != nil {
		return DeviceID{}, fmt.Errorf("%w: %q", ErrInvalidDevice, s)
	}

	unit, err := strconv.Atoi(m[2])
	if err != nil {
		return DeviceID{}, fmt.Errorf("%w: %q", ErrInvalidDevice, s)
	}

	id, err := NewDeviceID(house, unit)
	if err != nil {
		return DeviceID{}, fmt.Errorf("%w: %w", ErrInvalidDevice, err)
	}
	return id, nil
}

// House returns the device's house code.
func (d DeviceID) House() House {
	return d.house
}

// Unit returns the device's unit number.
func (d DeviceID) Unit() int {
	return d.unit
}

// IsZero reports whether d is the zero value.
func (d DeviceID) IsZero() bool {
	return d.house == 0
}

// String returns the canonical form, e.g. "C2".
func (d DeviceID) String() string {
	if d.IsZero() {
		return ""
	}
	return d.house.String() + strconv.Itoa(d.unit)
}

// less orders devices by house, then unit.
func (d DeviceID) less(o DeviceID) bool {
	if d.house != o.house {
		return d.house < o.house
	}
	return d.unit < o.unit
}
