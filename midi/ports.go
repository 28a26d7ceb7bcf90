package midi

import (
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-rhythm/debug"
)

// scanTimeout bounds port enumeration; CoreMIDI can hang
const scanTimeout = 3 * time.Second

// ErrScanTimeout is returned when the driver does not answer in time
var ErrScanTimeout = fault.New("midi port scan timed out")

// OutPorts lists output ports, giving up after scanTimeout
func OutPorts() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(scanTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		debug.Log("midi", "port scan timed out after %v", scanTimeout)
		return nil, ErrScanTimeout
	}
}

// PortNames returns the names of the output ports
func PortNames() ([]string, error) {
	ports, err := OutPorts()
	if err != nil {
		return nil, err
	}
	return portStrings(ports), nil
}

// FindOutPort returns the first port whose name contains name
// (case-insensitive). An empty name matches the first port.
func FindOutPort(name string) (drivers.Out, error) {
	ports, err := OutPorts()
	if err != nil {
		return nil, err
	}
	idx := MatchPort(portStrings(ports), name)
	if idx < 0 {
		if name == "" {
			return nil, fault.New("no midi output ports", fmsg.With("no MIDI output available"))
		}
		return nil, fault.New("midi output not found: "+name, fmsg.With("MIDI output "+name+" not found"))
	}
	return ports[idx], nil
}

// MatchPort picks the index of the port matching name, or -1
func MatchPort(names []string, name string) int {
	if len(names) == 0 {
		return -1
	}
	if name == "" {
		return 0
	}
	want := strings.ToLower(name)
	for i, n := range names {
		if strings.ToLower(n) == want {
			return i
		}
	}
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i
		}
	}
	return -1
}

func portStrings(ports []drivers.Out) []string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.String()
	}
	return out
}
