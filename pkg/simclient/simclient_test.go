package simclient

import (
	"testing"
	"time"

	"devicesim/internal/registry"
	"devicesim/internal/simserver"
)

type fixedRng struct{}

func (fixedRng) Float64() float64 { return 0.5 }

func startTestServer(t *testing.T) *simserver.Server {
	t.Helper()
	reg := registry.New(nil)
	reg.DefaultCatalog()
	srv, err := simserver.New("127.0.0.1:0", reg, fixedRng{}, nil, nil, simserver.Limits{})
	if err != nil {
		t.Fatalf("simserver.New: %v", err)
	}
	stop := make(chan struct{})
	t.Cleanup(func() {
		close(stop)
		srv.Close()
	})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			srv.RunOnce()
			time.Sleep(time.Millisecond)
		}
	}()
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	srv := startTestServer(t)
	c, err := Dial(srv.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if err := c.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := c.Put("BL02:MONO:ENERGY", 7112); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, err := c.Get("BL02:MONO:ENERGY")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != 7112 {
		t.Fatalf("expected 7112, got %v", v)
	}

	names, err := c.List("BL02:SAMPLE:*")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}

	if err := c.Move("BL02:SAMPLE:X", 10); err != nil {
		t.Fatalf("Move: %v", err)
	}
	status, err := c.Status("BL02:SAMPLE:X")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status != "MOVING" {
		t.Fatalf("expected MOVING, got %q", status)
	}
}

func TestClientMonitorPush(t *testing.T) {
	srv := startTestServer(t)
	c, err := Dial(srv.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if err := c.Monitor("BL02:DET:I0", 50); err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	c.SetDeadline(time.Now().Add(500 * time.Millisecond))
	if _, err := c.NextPush(); err != nil {
		t.Fatalf("NextPush: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestClientQuit(t *testing.T) {
	srv := startTestServer(t)
	c, err := Dial(srv.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := c.Quit(); err != nil {
		t.Fatalf("Quit: %v", err)
	}
}

func TestGetUnknownPVErrors(t *testing.T) {
	srv := startTestServer(t)
	c, err := Dial(srv.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if _, err := c.Get("NOPE"); err == nil {
		t.Fatalf("expected error for unknown PV")
	}
}
