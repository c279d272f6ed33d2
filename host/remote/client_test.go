package remote

import (
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"freqgen/core"
	"freqgen/host/serial"
)

// startDevice runs a RemoteLink on one end of a pipe. The device goroutine
// owns the link; the returned stop func waits for it to exit.
func startDevice(t *testing.T, setup func(l *core.RemoteLink, events *core.EventRing)) (*Client, func()) {
	t.Helper()
	hostEnd, devEnd := net.Pipe()
	port := serial.NewStreamPort(devEnd)

	start := time.Now()
	clock := core.ClockFunc(func() uint64 { return uint64(time.Since(start).Microseconds()) })
	events := &core.EventRing{}
	link := core.NewRemoteLink(port, clock, core.LinkConfig{StartPosition: -77}, events)
	if setup != nil {
		setup(link, events)
	}

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-quit:
				return
			default:
			}
			link.Sync()
			time.Sleep(200 * time.Microsecond)
		}
	}()

	client := NewClient(hostEnd, nil)
	return client, func() {
		close(quit)
		<-done
		client.Close()
		port.Close()
	}
}

func TestIdentify(t *testing.T) {
	client, stop := startDevice(t, nil)
	defer stop()

	desc, err := client.Identify()
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if desc.Name != core.DeviceName {
		t.Errorf("name = %q, want %q", desc.Name, core.DeviceName)
	}
	want := Control{Type: "slider", Min: -100, Max: 100, Default: -77}
	if diff := cmp.Diff(want, desc.Controls["position"]); diff != "" {
		t.Errorf("position control (-want +got):\n%s", diff)
	}
	if desc.Fields["output"] != core.TextSize {
		t.Errorf("output field = %d, want %d", desc.Fields["output"], core.TextSize)
	}
	for _, name := range []string{"set_position", "get_state", "ui_state", "get_events", "event"} {
		if _, ok := desc.messageID(name); !ok {
			t.Errorf("descriptor has no %s", name)
		}
	}
	if len(client.DescriptorJSON()) == 0 {
		t.Error("raw descriptor not kept")
	}
}

func TestCommandsNeedDescriptor(t *testing.T) {
	client, stop := startDevice(t, nil)
	defer stop()

	if err := client.SetPosition(3); err != ErrNoDescriptor {
		t.Errorf("SetPosition before Identify = %v, want ErrNoDescriptor", err)
	}
}

func TestSetPositionAndState(t *testing.T) {
	client, stop := startDevice(t, func(l *core.RemoteLink, _ *core.EventRing) {
		l.SetOutputText([]byte("out"))
		l.SetInputText([]byte("in"))
	})
	defer stop()

	if _, err := client.Identify(); err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if err := client.SetPosition(42); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	got, err := client.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	want := State{Position: 42, Output: "out", Input: "in"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state (-want +got):\n%s", diff)
	}

	// out of int8 range saturates on the device
	if err := client.SetPosition(1000); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	got, err = client.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if got.Position != 127 {
		t.Errorf("position = %d, want 127", got.Position)
	}
}

func TestEvents(t *testing.T) {
	client, stop := startDevice(t, func(_ *core.RemoteLink, events *core.EventRing) {
		events.Record(core.EvtRegime, 1000, 2)
	})
	defer stop()

	if _, err := client.Identify(); err != nil {
		t.Fatalf("Identify: %v", err)
	}
	events, err := client.Events()
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) < 2 {
		t.Fatalf("got %d events, want at least 2: %+v", len(events), events)
	}
	if diff := cmp.Diff(Event{Type: core.EvtRegime, Clock: 1000, Value: 2}, events[0]); diff != "" {
		t.Errorf("first event (-want +got):\n%s", diff)
	}
	if events[1].Type != core.EvtLinkUp {
		t.Errorf("second event = %s, want link up", core.EventName(events[1].Type))
	}
}
