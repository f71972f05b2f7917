package influxdb

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/x10-bridge/internal/infrastructure/config"
)

// fakeWriter captures points instead of sending them.
type fakeWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (w *fakeWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
}

func (w *fakeWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushes++
}

func (w *fakeWriter) lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.points))
	for i, p := range w.points {
		out[i] = strings.TrimSpace(write.PointToLineProtocol(p, time.Second))
	}
	return out
}

var fixedTime = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newTestClient() (*Client, *fakeWriter) {
	w := &fakeWriter{}
	c := newClient(w)
	c.now = func() time.Time { return fixedTime }
	return c, w
}

func TestWriteDeviceState(t *testing.T) {
	c, w := newTestClient()

	c.WriteDeviceState("C2", true)
	c.WriteDeviceState("A16", false)

	want := []string{
		"x10_device_state,device=C2,house=C on=true 1792314000",
		"x10_device_state,device=A16,house=A on=false 1792314000",
	}
	got := w.lines()
	if len(got) != len(want) {
		t.Fatalf("points = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteHouseEvent(t *testing.T) {
	c, w := newTestClient()

	c.WriteHouseEvent("B", "alloff")

	got := w.lines()
	want := "x10_house_event,command=alloff,house=B count=1i 1792314000"
	if len(got) != 1 || got[0] != want {
		t.Errorf("points = %v, want [%q]", got, want)
	}
}

func TestWrites_AfterClose(t *testing.T) {
	c, w := newTestClient()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if w.flushes != 1 {
		t.Errorf("flushes = %d, want 1", w.flushes)
	}

	c.WriteDeviceState("C2", true)
	c.WriteHouseEvent("C", "allon")

	if n := len(w.lines()); n != 0 {
		t.Errorf("points written after Close = %d, want 0", n)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}

	// Second Close is a no-op.
	c.Close() //nolint:errcheck // testing idempotence
	if w.flushes != 1 {
		t.Errorf("flushes after second Close = %d, want 1", w.flushes)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	c, _ := newTestClient()
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHandleWriteErrors(t *testing.T) {
	c, _ := newTestClient()

	var mu sync.Mutex
	var got []error
	c.SetOnError(func(err error) {
		mu.Lock()
		got = append(got, err)
		mu.Unlock()
	})

	ch := make(chan error, 2)
	ch <- errors.New("write timeout")
	ch <- errors.New("bucket not found")
	close(ch)
	c.handleWriteErrors(ch)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Errorf("errors delivered = %d, want 2", len(got))
	}
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(context.Background(), config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Bucket:  "x10",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_Live(t *testing.T) {
	url := os.Getenv("X10BRIDGE_TEST_INFLUXDB_URL")
	if url == "" {
		t.Skip("X10BRIDGE_TEST_INFLUXDB_URL not set")
	}

	c, err := Connect(context.Background(), config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         os.Getenv("X10BRIDGE_TEST_INFLUXDB_TOKEN"),
		Org:           "x10",
		Bucket:        "x10",
		FlushInterval: 1,
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	c.WriteDeviceState("C2", true)
}
