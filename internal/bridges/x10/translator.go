package x10

// Alternate-transmitter controller tokens.
const (
	CommandFOn  = "fon"
	CommandFOff = "foff"
)

// Translator maps an MQTT set payload to the controller command token.
//
// Only "on" and "off" (any case, surrounding whitespace ignored) are
// accepted. With AlternateTransmitter set they become "fon" and "foff",
// which some RF transmitter setups require.
type Translator struct {
	AlternateTransmitter bool
}

// Translate returns the controller token for payload, or false if the
// payload is not a recognised command.
func (t Translator) Translate(payload string) (string, bool) {
	switch normalizeCommand(payload) {
	case CommandOn:
		if t.AlternateTransmitter {
			return CommandFOn, true
		}
		return CommandOn, true
	case CommandOff:
		if t.AlternateTransmitter {
			return CommandFOff, true
		}
		return CommandOff, true
	default:
		return "", false
	}
}
