package daemon

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is both the control service name and the health-check key.
const ServiceName = "procmon.recorder.v1.Recorder"

const statusMethod = "/" + ServiceName + "/Status"

// Status is what a running recorder reports about itself.
type Status struct {
	SessionID      string
	PID            int
	DBPath         string
	Name           string
	MinMemoryBytes uint64
	Interval       time.Duration
	StartedAt      time.Time
	LastTick       time.Time
	Ticks          uint64
	Records        uint64
	Warning        string
}

type recorderServer interface {
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

var recorderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*recorderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Status", Handler: statusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "procmon/recorder/v1/recorder.proto",
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(recorderServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(recorderServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// service answers control RPCs from the atomically published status.
type service struct {
	srv *Server
}

func (s *service) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.srv.status.Load()
	if st == nil {
		return nil, status.Error(codes.Unavailable, "recorder is starting")
	}
	out, err := st.toStruct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return out, nil
}

func (s Status) toStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		"session_id":       s.SessionID,
		"pid":              s.PID,
		"db_path":          s.DBPath,
		"name":             s.Name,
		"min_memory_bytes": s.MinMemoryBytes,
		"interval":         s.Interval.String(),
		"started_at":       formatTime(s.StartedAt),
		"last_tick":        formatTime(s.LastTick),
		"ticks":            s.Ticks,
		"records":          s.Records,
		"warning":          s.Warning,
	}
	return structpb.NewStruct(fields)
}

func statusFromStruct(in *structpb.Struct) (Status, error) {
	f := in.GetFields()
	str := func(key string) string { return f[key].GetStringValue() }
	num := func(key string) float64 { return f[key].GetNumberValue() }

	out := Status{
		SessionID:      str("session_id"),
		PID:            int(num("pid")),
		DBPath:         str("db_path"),
		Name:           str("name"),
		MinMemoryBytes: uint64(num("min_memory_bytes")),
		Ticks:          uint64(num("ticks")),
		Records:        uint64(num("records")),
		Warning:        str("warning"),
	}
	var err error
	if v := str("interval"); v != "" {
		if out.Interval, err = time.ParseDuration(v); err != nil {
			return Status{}, fmt.Errorf("decode interval: %w", err)
		}
	}
	if out.StartedAt, err = parseTime(str("started_at")); err != nil {
		return Status{}, fmt.Errorf("decode started_at: %w", err)
	}
	if out.LastTick, err = parseTime(str("last_tick")); err != nil {
		return Status{}, fmt.Errorf("decode last_tick: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}
