package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"procmon/internal/history"
	"procmon/internal/inspect"
	"procmon/internal/sampler"
)

// RecorderOptions configures a headless recording session.
type RecorderOptions struct {
	DBPath    string
	Interval  time.Duration
	Filter    sampler.Filter
	Inspector inspect.Inspector
}

// Server is a running recorder: a sampling loop writing to the history
// store plus a gRPC control endpoint on the UNIX socket.
type Server struct {
	ln     net.Listener
	path   string
	grpc   *grpc.Server
	health *health.Server
	store  *history.Store
	log    *logger.Logger

	status atomic.Pointer[Status]
	warned bool

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

var openStore = history.Open

// StartDaemon opens the store, binds the socket and starts recording. A
// store that cannot be opened is fatal.
func StartDaemon(opts RecorderOptions) (*Server, error) {
	if opts.DBPath == "" {
		return nil, errors.New("recorder needs a database path")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("interval must be greater than 0")
	}
	if opts.Inspector == nil {
		opts.Inspector = inspect.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	store, err := openStore(ctx, opts.DBPath)
	if err != nil {
		cancel()
		return nil, err
	}

	if err := EnsureRuntimeDir(); err != nil {
		cancel()
		_ = store.Close()
		return nil, fmt.Errorf("create runtime dir: %w", err)
	}
	path := SocketPath()

	// A stale socket left by a crashed recorder blocks Listen.
	if _, err := os.Stat(path); err == nil && !IsRunning() {
		if err := os.Remove(path); err != nil {
			cancel()
			_ = store.Close()
			return nil, err
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		cancel()
		_ = store.Close()
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		cancel()
		_ = ln.Close()
		_ = store.Close()
		return nil, err
	}

	id := uuid.New().String()
	s := &Server{
		ln:     ln,
		path:   path,
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		store:  store,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "recorder-"+id[:8])),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.status.Store(&Status{
		SessionID:      id,
		PID:            os.Getpid(),
		DBPath:         opts.DBPath,
		Name:           opts.Filter.Name,
		MinMemoryBytes: opts.Filter.MinMemoryBytes,
		Interval:       opts.Interval,
		StartedAt:      time.Now(),
	})

	if err := WritePID(os.Getpid()); err != nil {
		cancel()
		_ = ln.Close()
		_ = store.Close()
		return nil, err
	}

	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.grpc.RegisterService(&recorderServiceDesc, &service{srv: s})
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		if err := s.grpc.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.log.Infoln("control server stopped:", err)
		}
	}()

	smp := sampler.New(sampler.Options{
		Inspector: opts.Inspector,
		Interval:  opts.Interval,
		Filter:    opts.Filter,
		Store:     store,
	})
	go s.record(ctx, smp, opts.Interval)

	s.log.Infoln("recording to", opts.DBPath, "every", opts.Interval, "socket", path)
	return s, nil
}

// Status returns the latest published status.
func (s *Server) Status() Status {
	return *s.status.Load()
}

func (s *Server) record(ctx context.Context, smp *sampler.Sampler, interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.tick(ctx, smp, time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, smp, now)
		}
	}
}

func (s *Server) tick(ctx context.Context, smp *sampler.Sampler, now time.Time) {
	procs, err := smp.Tick(ctx, now)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Infoln("sample failed:", err)
		}
		return
	}
	s.log.Debugln("sampled", len(procs), "processes")

	if w := smp.Warning(); w != "" && !s.warned {
		s.warned = true
		s.log.Infoln("warning:", w)
	}

	next := *s.status.Load()
	next.LastTick = now
	next.Ticks = smp.Ticks()
	next.Records = smp.Records()
	next.Warning = smp.Warning()
	s.status.Store(&next)
}

// Close stops sampling, drains the control server, unlinks the socket and
// closes the store.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done

		s.health.Shutdown()
		s.grpc.GracefulStop()

		var errs []error
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		if err := RemovePID(); err != nil {
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)
		s.log.Infoln("recorder stopped")
	})
	return s.closeErr
}

// StopRunningDaemon sends a termination signal to the currently running daemon if any.
func StopRunningDaemon(force bool) error {
	pid, err := RunningPID()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if IsRunning() {
				return fmt.Errorf("daemon is running but PID file %q is missing; stop it manually", PIDPath())
			}
			return nil
		}
		return fmt.Errorf("unable to read daemon PID: %w", err)
	}
	if pid == os.Getpid() {
		return errors.New("refusing to stop current process")
	}
	if err := sendSignal(pid, unix.SIGTERM); err != nil {
		return err
	}
	if waitForShutdown(pid, 3*time.Second) {
		return nil
	}
	if !force {
		return fmt.Errorf("daemon process %d did not exit after SIGTERM", pid)
	}
	if err := sendSignal(pid, unix.SIGKILL); err != nil {
		return err
	}
	if waitForShutdown(pid, 2*time.Second) {
		return nil
	}
	return fmt.Errorf("daemon process %d did not exit after SIGKILL", pid)
}

func sendSignal(pid int, sig unix.Signal) error {
	if err := unix.Kill(pid, sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			_ = RemovePID()
			return nil
		}
		return fmt.Errorf("signal %d: %w", pid, err)
	}
	return nil
}

// alive probes pid with signal 0.
func alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func waitForShutdown(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !alive(pid) {
			_ = RemovePID()
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}
