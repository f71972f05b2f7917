package x10

import (
	"regexp"
	"strconv"
	"strings"
)

// House-wide function names reported on "hc" lines.
const (
	CommandAllOn     = "allon"
	CommandAllOff    = "alloff"
	CommandLightsOn  = "lightson"
	CommandLightsOff = "lightsoff"
)

// Unit function names the router acts on.
const (
	CommandOn      = "on"
	CommandOff     = "off"
	CommandXPreset = "xpreset"
)

// houseWideCommands maps each house-wide function to the status it implies.
var houseWideCommands = map[string]bool{
	CommandAllOn:     true,
	CommandLightsOn:  true,
	CommandAllOff:    false,
	CommandLightsOff: false,
}

// lineRule is one entry of the parser's dispatch table.
type lineRule struct {
	name    string
	pattern *regexp.Regexp
	handle  func(p *Parser, m []string) []Event
}

// rules is evaluated in order; the first matching rule wins.
var rules = []lineRule{
	{
		name:    "monitor_started",
		pattern: regexp.MustCompile(`Monitor started`),
		handle: func(*Parser, []string) []Event {
			return []Event{MonitorStarted{}}
		},
	},
	{
		name:    "unit_address",
		pattern: regexp.MustCompile(`\S+\s+addr unit\s+\d+ : hu ([A-P])(\d+)`),
		handle:  (*Parser).handleAddress,
	},
	{
		name:    "house_function",
		pattern: regexp.MustCompile(`(\S+) : hc ([A-P])\b`),
		handle:  (*Parser).handleHouseFunction,
	},
	{
		name:    "unit_function_level",
		pattern: regexp.MustCompile(`(\S+) : hu ([A-P])(\d+)\s+level\s+(\d+)`),
		handle:  (*Parser).handleUnitLevel,
	},
}

// Parser decodes controller monitor output into Events.
//
// A Parser owns an AddressQueue; the only state it carries between lines is
// the set of units addressed but not yet acted on.
//
// Parser is not safe for concurrent use.
type Parser struct {
	queue *AddressQueue
}

// NewParser creates a Parser with an empty AddressQueue.
func NewParser() *Parser {
	return &Parser{queue: NewAddressQueue()}
}

// Queue exposes the parser's address queue.
func (p *Parser) Queue() *AddressQueue {
	return p.queue
}

// Parse decodes one monitor line.
//
// Lines that match no rule are monitor noise and yield nil. A house function
// line yields one UnitCommand per queued unit of that house, in ascending
// unit order.
func (p *Parser) Parse(line string) []Event {
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return r.handle(p, m)
	}
	return nil
}

func (p *Parser) handleAddress(m []string) []Event {
	house := House(m[1][0])
	unit, err := strconv.Atoi(m[2])
	if err != nil || unit < MinUnit || unit > MaxUnit {
		return nil
	}

	p.queue.Add(house, unit)
	return []Event{UnitAddressed{House: house, Unit: unit}}
}

func (p *Parser) handleHouseFunction(m []string) []Event {
	command := normalizeCommand(m[1])
	house := House(m[2][0])

	if _, ok := houseWideCommands[command]; ok {
		p.queue.Clear(house)
		return []Event{HouseWideCommand{House: house, Command: command}}
	}

	units := p.queue.Take(house)
	events := make([]Event, 0, len(units))
	for _, unit := range units {
		events = append(events, UnitCommand{
			Device:  DeviceID{house: house, unit: unit},
			Command: command,
			Level:   NoLevel,
		})
	}
	return events
}

func (p *Parser) handleUnitLevel(m []string) []Event {
	unit, err := strconv.Atoi(m[3])
	if err != nil {
		return nil
	}
	id, err := NewDeviceID(House(m[2][0]), unit)
	if err != nil {
		return nil
	}
	level, err := strconv.Atoi(m[4])
	if err != nil {
		return nil
	}

	return []Event{UnitCommand{
		Device:  id,
		Command: normalizeCommand(m[1]),
		Level:   level,
	}}
}

// normalizeCommand is the single place command tokens are canonicalised.
func normalizeCommand(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
