package daemon

import (
	"context"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestStatusStructRoundTrip(t *testing.T) {
	started := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)
	in := Status{
		SessionID:      "a0b1",
		PID:            321,
		DBPath:         "/var/lib/procmon/history.db",
		Name:           "nginx",
		MinMemoryBytes: 50 << 20,
		Interval:       2 * time.Second,
		StartedAt:      started,
		LastTick:       started.Add(4 * time.Second),
		Ticks:          3,
		Records:        12,
	}
	encoded, err := in.toStruct()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := statusFromStruct(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.StartedAt.Equal(in.StartedAt) || !out.LastTick.Equal(in.LastTick) {
		t.Fatalf("timestamps differ: %+v", out)
	}
	out.StartedAt, out.LastTick = in.StartedAt, in.LastTick
	if out != in {
		t.Fatalf("got %+v want %+v", out, in)
	}
}

func TestStatusBeforeFirstTickHasNoLastTick(t *testing.T) {
	encoded, err := Status{SessionID: "x"}.toStruct()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := statusFromStruct(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.LastTick.IsZero() {
		t.Fatalf("expected zero last tick, got %s", out.LastTick)
	}
}

func TestStatusHandlerDecodesAndServes(t *testing.T) {
	srv := &Server{}
	srv.status.Store(&Status{SessionID: "abc", Ticks: 7})

	var decoded bool
	dec := func(v any) error {
		if _, ok := v.(*emptypb.Empty); !ok {
			t.Fatalf("unexpected request type %T", v)
		}
		decoded = true
		return nil
	}
	resp, err := statusHandler(&service{srv: srv}, context.Background(), dec, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !decoded {
		t.Fatalf("request was not decoded")
	}
	out, err := statusFromStruct(resp.(*structpb.Struct))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.SessionID != "abc" || out.Ticks != 7 {
		t.Fatalf("unexpected status %+v", out)
	}
}

func TestStatusUnavailableBeforePublish(t *testing.T) {
	svc := &service{srv: &Server{}}
	if _, err := svc.Status(context.Background(), &emptypb.Empty{}); err == nil {
		t.Fatalf("expected an error before the first status is published")
	}
}
