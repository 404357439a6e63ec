package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"dropsort/internal/daemon"
	"dropsort/internal/errs"
	"dropsort/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Dropsort", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun dropsort watch stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

// wireError flattens an engine error into the string JSON-RPC carries,
// keeping the machine-readable kind in front.
func wireError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %s", errs.Kind(err), err.Error())
}

func (s *service) GetRules(_ GetRulesRequest, resp *GetRulesResponse) error {
	resp.Rules = s.daemon.Engine().Rules()
	resp.LoadIssue = s.daemon.Engine().RulesLoadIssue()
	return nil
}

func (s *service) SetRules(req SetRulesRequest, resp *SetRulesResponse) error {
	validation, err := s.daemon.Engine().SetRules(req.Rules)
	resp.Validation = validation
	if err != nil && !errors.Is(err, errs.ErrValidation) {
		return wireError(err)
	}
	if err == nil {
		s.log().Info("rules replaced",
			logging.String(logging.FieldEventType, "rules_set"))
	}
	return nil
}

func (s *service) ValidateRules(req ValidateRulesRequest, resp *ValidateRulesResponse) error {
	resp.Validation = s.daemon.Engine().ValidateRules(req.Rules)
	return nil
}

func (s *service) SetSortRoot(req SetSortRootRequest, resp *SetSortRootResponse) error {
	if err := s.daemon.Engine().SetSortRoot(req.Path); err != nil {
		return wireError(err)
	}
	resp.SortRoot = s.daemon.Engine().Rules().Global.SortRoot
	s.log().Info("sort root changed",
		logging.String(logging.FieldEventType, "sort_root_set"),
		logging.String(logging.FieldSortRoot, resp.SortRoot))
	return nil
}

func (s *service) DryRun(_ DryRunRequest, resp *DryRunResponse) error {
	plan, err := s.daemon.Engine().DryRun()
	if err != nil {
		return wireError(err)
	}
	resp.Plan = *plan
	return nil
}

func (s *service) RunNow(_ RunNowRequest, resp *RunNowResponse) error {
	s.log().Debug("manual run requested")
	result, err := s.daemon.Engine().RunNow()
	if err != nil {
		return wireError(err)
	}
	resp.Result = *result
	return nil
}

func (s *service) UndoLastRun(_ UndoRequest, resp *UndoResponse) error {
	s.log().Debug("undo requested")
	result, err := s.daemon.Engine().UndoLastRun()
	if err != nil {
		return wireError(err)
	}
	resp.Result = *result
	return nil
}

func (s *service) StartWatcher(_ StartWatcherRequest, resp *WatcherStatusResponse) error {
	if err := s.daemon.Engine().StartWatcher(); err != nil {
		return wireError(err)
	}
	s.fillWatcherStatus(resp)
	return nil
}

func (s *service) StopWatcher(_ StopWatcherRequest, resp *WatcherStatusResponse) error {
	s.daemon.Engine().StopWatcher()
	s.fillWatcherStatus(resp)
	return nil
}

func (s *service) WatcherStatus(_ WatcherStatusRequest, resp *WatcherStatusResponse) error {
	s.fillWatcherStatus(resp)
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.SortRoot = status.SortRoot
	resp.WatcherRunning = status.WatcherRunning
	resp.RulesPath = status.RulesPath
	resp.JournalPath = status.JournalPath
	resp.LockPath = status.LockPath
	resp.RulesLoadIssue = status.RulesLoadIssue
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	hub := s.daemon.Engine().Events()
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if req.Follow && wait <= 0 {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait)
		defer cancel()
	}
	fetched, next, err := hub.Fetch(ctx, req.Since, req.Limit, req.Follow)
	if err != nil {
		// A follow that timed out waiting is an empty page, not a failure.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			resp.NextSince = req.Since
			return nil
		}
		return err
	}
	resp.Events = fetched
	resp.NextSince = next
	return nil
}

func (s *service) fillWatcherStatus(resp *WatcherStatusResponse) {
	status := s.daemon.Engine().WatcherStatus()
	resp.Running = status.Running
	resp.SortRoot = status.SortRoot
}
