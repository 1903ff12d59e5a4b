package pdo

// Flag identifies one drive status bit. The constant order is the wire
// layout: flag n lives at record byte 4+n/8, bit n%8. Keep the order in
// sync with the drive's input mapping.
type Flag uint8

// Status flag bits, in wire order.
const (
	// byte 4
	AmplifiersEnabled Flag = iota
	EndStop
	ThermalProtection1
	ThermalProtection2
	ForceZero
	MotorOn
	ClosedLoop
	EncoderIndex
	// byte 5
	EncoderValid
	SearchingIndex
	PositionReached
	ErrorCompensation
	EncoderError
	Scanning
	LeftEndStop
	RightEndStop
	// byte 6
	ErrorLimit
	SearchingOptimalFrequency
	SafetyTimeout
	ExecuteAck
	EmergencyStop
	PositionFail

	numFlags
)

var flagNames = [numFlags]string{
	AmplifiersEnabled:         "AmplifiersEnabled",
	EndStop:                   "EndStop",
	ThermalProtection1:        "ThermalProtection1",
	ThermalProtection2:        "ThermalProtection2",
	ForceZero:                 "ForceZero",
	MotorOn:                   "MotorOn",
	ClosedLoop:                "ClosedLoop",
	EncoderIndex:              "EncoderIndex",
	EncoderValid:              "EncoderValid",
	SearchingIndex:            "SearchingIndex",
	PositionReached:           "PositionReached",
	ErrorCompensation:         "ErrorCompensation",
	EncoderError:              "EncoderError",
	Scanning:                  "Scanning",
	LeftEndStop:               "LeftEndStop",
	RightEndStop:              "RightEndStop",
	ErrorLimit:                "ErrorLimit",
	SearchingOptimalFrequency: "SearchingOptimalFrequency",
	SafetyTimeout:             "SafetyTimeout",
	ExecuteAck:                "ExecuteAck",
	EmergencyStop:             "EmergencyStop",
	PositionFail:              "PositionFail",
}

// String returns the flag name.
func (f Flag) String() string {
	if f >= numFlags {
		return "unknown"
	}
	return flagNames[f]
}

// Flags holds the three status flag bytes of a status record, in wire
// layout (record bytes 4, 5 and 6).
type Flags [3]byte

// Has returns whether the flag bit is set.
func (f Flags) Has(flag Flag) bool {
	if flag >= numFlags {
		return false
	}
	return f[flag>>3]&(1<<(flag&7)) != 0
}

// Set sets or clears the flag bit.
func (f *Flags) Set(flag Flag, val bool) {
	if flag >= numFlags {
		return
	}
	if val {
		f[flag>>3] |= 1 << (flag & 7)
	} else {
		f[flag>>3] &^= 1 << (flag & 7)
	}
}

// Names returns the names of all set flags, in wire order.
func (f Flags) Names() []string {
	names := make([]string, 0, numFlags)
	for flag := Flag(0); flag < numFlags; flag++ {
		if f.Has(flag) {
			names = append(names, flagNames[flag])
		}
	}
	return names
}
