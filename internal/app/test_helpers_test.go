package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shirou/gopsutil/v3/mem"
	"google.golang.org/grpc"

	"procmon/internal/inspect"
)

type fakeConn struct {
	invoke func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error
}

func (f *fakeConn) Invoke(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
	if f.invoke != nil {
		return f.invoke(ctx, method, args, reply, opts...)
	}
	return nil
}

func (f *fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeConn) Close() error { return nil }

func stubDaemon(t *testing.T, running bool, dial func(context.Context) (recorderClient, io.Closer, error)) {
	t.Helper()
	resetDaemonDeps()
	daemonIsRunning = func() bool { return running }
	if dial == nil {
		dial = func(context.Context) (recorderClient, io.Closer, error) {
			return nil, nil, errors.New("dial not stubbed")
		}
	}
	dialDaemonClient = dial
	t.Cleanup(resetDaemonDeps)
}

type fakeInspector struct {
	records []inspect.ThreadRecord
	counts  map[int32]int
	calls   int
}

func (f *fakeInspector) Threads(context.Context) ([]inspect.ThreadRecord, error) {
	f.calls++
	return f.records, nil
}

func (f *fakeInspector) ThreadCount(tgid int32) int { return f.counts[tgid] }

// stubSampling routes every inspector and system-memory read to fakes.
func stubSampling(t *testing.T, insp *fakeInspector) {
	t.Helper()
	resetSamplingDeps()
	newInspector = func() inspect.Inspector { return insp }
	virtualMemory = func(context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 8 << 30, Used: 2 << 30, Available: 6 << 30, UsedPercent: 25}, nil
	}
	swapMemory = func(context.Context) (*mem.SwapMemoryStat, error) {
		return &mem.SwapMemoryStat{}, nil
	}
	t.Cleanup(resetSamplingDeps)
}
