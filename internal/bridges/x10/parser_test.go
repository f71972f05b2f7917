package x10

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Representative monitor output.
const (
	lineStarted    = "05/28 20:35:10  Monitor started"
	lineAddrC1     = "05/28 20:35:12  rcvi addr unit       1 : hu C1  (Hall_lamp)"
	lineAddrC2     = "05/28 20:35:12  rcvi addr unit       2 : hu C2  (Kitchen)"
	lineOnC        = "05/28 20:35:13  rcvi func           On : hc C"
	lineAllOffB    = "05/28 20:36:01  rcvi func       AllOff : hc B"
	linePresetO3   = "05/28 20:37:44  sndc func      xPreset : hu O3  level 32"
	lineUnrelated  = "05/28 20:38:00  Powerfail signal received"
	lineDimTrailer = "05/28 20:39:00  sndc func          Dim : hc C  %18 [C1]"
)

func TestParser_Scenario_AddressThenFunction(t *testing.T) {
	p := NewParser()

	assert.Equal(t, []Event{UnitAddressed{House: 'C', Unit: 1}}, p.Parse("... addr unit  1 : hu C1"))
	assert.Equal(t, []Event{UnitAddressed{House: 'C', Unit: 2}}, p.Parse("... addr unit  2 : hu C2"))

	events := p.Parse("... func  on : hc C")
	assert.Equal(t, []Event{
		UnitCommand{Device: mustDevice(t, "C1"), Command: "on", Level: NoLevel},
		UnitCommand{Device: mustDevice(t, "C2"), Command: "on", Level: NoLevel},
	}, events)
	assert.Nil(t, p.Queue().Pending('C'), "queue cleared after function line")
}

func TestParser_RealMonitorLines(t *testing.T) {
	p := NewParser()

	require.Equal(t, []Event{MonitorStarted{}}, p.Parse(lineStarted))
	p.Parse(lineAddrC1)
	p.Parse(lineAddrC2)

	events := p.Parse(lineOnC)
	require.Len(t, events, 2)
	assert.Equal(t, "on", events[0].(UnitCommand).Command)
}

func TestParser_HouseWideClearsQueue(t *testing.T) {
	p := NewParser()
	p.Parse("... addr unit  3 : hu B3")
	p.Parse("... addr unit  1 : hu C1")

	events := p.Parse(lineAllOffB)
	assert.Equal(t, []Event{HouseWideCommand{House: 'B', Command: "alloff"}}, events)
	assert.Nil(t, p.Queue().Pending('B'))
	assert.Equal(t, []int{1}, p.Queue().Pending('C'), "other houses keep their queue")
}

func TestParser_HouseWideCommands(t *testing.T) {
	for _, fn := range []string{"AllOn", "allon", "ALLOFF", "LightsOn", "lightsoff"} {
		t.Run(fn, func(t *testing.T) {
			events := NewParser().Parse("... func  " + fn + " : hc D")
			require.Len(t, events, 1)
			hw, ok := events[0].(HouseWideCommand)
			require.True(t, ok)
			assert.Equal(t, House('D'), hw.House)
			assert.Equal(t, normalizeCommand(fn), hw.Command)
		})
	}
}

func TestParser_FunctionWithEmptyQueue(t *testing.T) {
	p := NewParser()
	assert.Empty(t, p.Parse(lineOnC))
}

func TestParser_FunctionOnlyConsumesItsHouse(t *testing.T) {
	p := NewParser()
	p.Parse("... addr unit  4 : hu A4")
	p.Parse("... addr unit  2 : hu C2")

	events := p.Parse("... func  Off : hc A")
	assert.Equal(t, []Event{
		UnitCommand{Device: mustDevice(t, "A4"), Command: "off", Level: NoLevel},
	}, events)
	assert.Equal(t, []int{2}, p.Queue().Pending('C'))
}

func TestParser_DuplicateAddressesEmitOnce(t *testing.T) {
	p := NewParser()
	p.Parse("... addr unit  2 : hu C2")
	p.Parse("... addr unit  2 : hu C2")

	assert.Len(t, p.Parse("... func  on : hc C"), 1)
}

func TestParser_UnitFunctionWithLevel(t *testing.T) {
	p := NewParser()
	p.Parse("... addr unit  3 : hu O3")

	events := p.Parse(linePresetO3)
	assert.Equal(t, []Event{
		UnitCommand{Device: mustDevice(t, "O3"), Command: "xpreset", Level: 32},
	}, events)
	assert.Equal(t, []int{3}, p.Queue().Pending('O'), "level lines leave the queue alone")
}

func TestParser_IgnoredLines(t *testing.T) {
	lines := []string{
		"",
		lineUnrelated,
		"... addr unit  0 : hu C0",
		"... addr unit  17 : hu C17",
		"... func  on : hc C1",
		"... func  on : hc Q",
		"... addr unit  1 : hu c1",
		"garbage",
	}

	p := NewParser()
	for _, line := range lines {
		assert.Empty(t, p.Parse(line), "line %q", line)
	}
	for h := MinHouse; h <= MaxHouse; h++ {
		assert.Nil(t, p.Queue().Pending(h))
	}
}

func TestParser_FunctionLineWithTrailer(t *testing.T) {
	p := NewParser()
	p.Parse(lineAddrC1)

	events := p.Parse(lineDimTrailer)
	assert.Equal(t, []Event{
		UnitCommand{Device: mustDevice(t, "C1"), Command: "dim", Level: NoLevel},
	}, events)
}

func TestParser_Idempotent(t *testing.T) {
	lines := []string{lineAddrC1, lineAddrC2, lineOnC, lineAllOffB, linePresetO3}

	run := func() []Event {
		p := NewParser()
		var out []Event
		for _, l := range lines {
			out = append(out, p.Parse(l)...)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestParser_MonitorStartedWins(t *testing.T) {
	events := NewParser().Parse("Monitor started ... addr unit  1 : hu C1")
	assert.Equal(t, []Event{MonitorStarted{}}, events)
}
