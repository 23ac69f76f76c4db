package shim

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	taskAPI "github.com/containerd/containerd/api/runtime/task/v2"
	apitypes "github.com/containerd/containerd/api/types"
	tasktypes "github.com/containerd/containerd/api/types/task"
	"github.com/containerd/containerd/protobuf"
	ptypes "github.com/containerd/containerd/v2/pkg/protobuf/types"
	"github.com/containerd/containerd/v2/pkg/shim"
	"github.com/containerd/containerd/v2/pkg/shutdown"
	"github.com/containerd/containerd/v2/plugins"
	"github.com/containerd/errdefs"
	"github.com/containerd/fifo"
	"github.com/containerd/log"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/containerd/plugin"
	"github.com/containerd/plugin/registry"
	"github.com/containerd/ttrpc"
)

// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html#tag_18_21_18
const exitCodeSignal = 128
const initPidFile = "bfrun.pid"

// comptime override for debug flag
// set with `-ldflags="-X 'github.com/mwieczorek/bfrun/shim.debug=true'"`
var debug string

func init() {
	registry.Register(&plugin.Registration{
		Type: plugins.TTRPCPlugin,
		ID:   "task",
		Requires: []plugin.Type{
			plugins.InternalPlugin,
		},
		InitFn: func(ic *plugin.InitContext) (interface{}, error) {
			ss, err := ic.GetByID(plugins.InternalPlugin, "shutdown")
			if err != nil {
				return nil, err
			}
			return newTaskService(ic.Context, ss.(shutdown.Service))
		},
	})
}

type bfrunManager struct {
	name string
}

func NewManager(name string) shim.Manager {
	return bfrunManager{name: name}
}

func (m bfrunManager) Name() string {
	return m.name
}

func (m bfrunManager) Start(ctx context.Context, id string, opts shim.StartOpts) (retShim shim.BootstrapParams, retErr error) {
	log.G(ctx).Debug("Start (manager)")

	self, err := os.Executable()
	if err != nil {
		return retShim, fmt.Errorf("getting executable of current process: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return retShim, fmt.Errorf("getting current working directory: %w", err)
	}

	var args []string
	if opts.Debug || debug != "" {
		args = append(args, "-debug")
	}

	cmdCfg := &shim.CommandConfig{
		Runtime:      self,
		Address:      opts.Address,
		TTRPCAddress: opts.TTRPCAddress,
		Path:         cwd,
		Args:         args,
	}

	cmd, err := shim.Command(ctx, cmdCfg)
	if err != nil {
		return retShim, fmt.Errorf("creating shim command: %w", err)
	}

	sockAddr, err := shim.SocketAddress(ctx, opts.Address, id, opts.Debug)
	if err != nil {
		return retShim, fmt.Errorf("getting a socket address: %w", err)
	}

	socket, err := shim.NewSocket(sockAddr)
	if err != nil {
		return retShim, fmt.Errorf("creating socket: %w", err)
	}

	sockF, err := socket.File()
	if err != nil {
		return retShim, fmt.Errorf("getting shim socket file descriptor: %w", err)
	}

	cmd.ExtraFiles = append(cmd.ExtraFiles, sockF)

	// Start the shim command
	retErr = func() error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if err := cmd.Start(); err != nil {
			sockF.Close()
			return fmt.Errorf("starting shim command: %w", err)
		}
		return nil
	}()

	if retErr != nil {
		return retShim, retErr
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			if _, ok := err.(*exec.ExitError); !ok {
				log.G(ctx).WithError(err).Errorf("failed to wait for shim process %d", cmd.Process.Pid)
			}
		}
	}()

	if err := shim.AdjustOOMScore(cmd.Process.Pid); err != nil {
		return retShim, fmt.Errorf("adjusting shim process OOM score: %w", err)
	}

	retShim = shim.BootstrapParams{
		Version:  2,
		Address:  sockAddr,
		Protocol: "ttrpc",
	}

	return retShim, nil
}

func (m bfrunManager) Stop(ctx context.Context, id string) (shim.StopStatus, error) {
	log.G(ctx).Debug("Stop (manager)")

	pid, err := readPidFile(id)
	if err != nil {
		return shim.StopStatus{}, fmt.Errorf("reading pid file: %w", err)
	}

	if pid > 0 {
		p, _ := os.FindProcess(pid)
		// The POSIX standard specifies that a null-signal can be sent to check
		// whether a PID is valid.
		if err := p.Signal(syscall.Signal(0)); err == nil {
			if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
				log.G(ctx).WithError(err).Warnf("failed to send kill syscall to init process %d", pid)
			}
		}
	}

	return shim.StopStatus{
		Pid:        pid,
		ExitedAt:   time.Now(),
		ExitStatus: int(exitCodeSignal + syscall.SIGKILL),
	}, nil
}

func readPidFile(id string) (int, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return -1, fmt.Errorf("getting current working directory: %w", err)
	}
	path := filepath.Join(filepath.Join(filepath.Dir(cwd), id), initPidFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return -1, err
	}
	return strconv.Atoi(string(data))
}

// If containerd needs to resort to calling the shim's "stop" command to
// clean things up, having the process' pid readable from a file is the
// only way for it to know what init process is associated with the task.
func writePidFile(id string, pid int) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current working directory: %w", err)
	}

	path := filepath.Join(filepath.Join(filepath.Dir(cwd), id), initPidFile)
	if err := shim.WritePidFile(path, pid); err != nil {
		return fmt.Errorf("writing pid file of init process: %w", err)
	}

	// 644 == rw-r--r--
	if err := os.Chmod(path, 0644); err != nil {
		return fmt.Errorf("changing pid file permissions: %w", err)
	}
	if err := os.Chown(path, 0, 0); err != nil {
		return fmt.Errorf("changing pid file ownership: %w", err)
	}

	return nil
}

func (m bfrunManager) Info(ctx context.Context, optionsR io.Reader) (*apitypes.RuntimeInfo, error) {
	log.G(ctx).Debug("Info (manager)")
	info := &apitypes.RuntimeInfo{
		Name: m.name,
		Version: &apitypes.RuntimeVersion{
			Version: "v1.0.0",
		},
	}
	return info, nil
}

var (
	_ = shim.Manager(&bfrunManager{})
)

type proc struct {
	pid int

	done       context.Context
	exitTime   time.Time
	exitStatus int

	stdout string
	stdin  string
}

func (p *proc) String() string {
	if p.done.Err() != nil {
		return fmt.Sprintf("pid:%d, exitTime:%s, exitStatus:%d", p.pid, p.exitTime.Format(time.RFC3339), p.exitStatus)
	} else {
		return fmt.Sprintf("pid:%d running", p.pid)
	}
}

type bfrunTaskService struct {
	mu       sync.RWMutex
	procs    map[string]*proc
	shutdown shutdown.Service
}

func newTaskService(ctx context.Context, sd shutdown.Service) (taskAPI.TaskService, error) {
	return &bfrunTaskService{
		procs:    make(map[string]*proc, 1),
		shutdown: sd,
	}, nil
}

// RegisterTTRPC allows TTRPC services to be registered with the underlying server
func (s *bfrunTaskService) RegisterTTRPC(server *ttrpc.Server) error {
	taskAPI.RegisterTaskService(server, s)
	return nil
}

var (
	_ = shim.TTRPCService(&bfrunTaskService{})
)

func (s *bfrunTaskService) grab_context(id string) (context.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proc, ok := s.procs[id]
	if !ok {
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}
	return proc.done, nil
}

type finalizer struct {
	done func()
	cmd  *exec.Cmd
	pid  int
	s    *bfrunTaskService
	id   string
}

func (fc *finalizer) schedule(ctx context.Context) {
	ready_ch := make(chan struct{})
	go finalize(ctx, ready_ch, fc.done, fc.cmd, fc.pid, fc.s, fc.id)
	<-ready_ch
}

func finalize(
	ctx context.Context,
	ready_ch chan struct{},
	done func(),
	cmd *exec.Cmd,
	pid int,
	s *bfrunTaskService,
	id string,
) {
	ready_ch <- struct{}{}

	log.G(ctx).Debug("finalizer (service)")
	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			log.G(ctx).WithError(err).Errorf("failed to wait for init process %d", pid)
		}
	}
	log.G(ctx).Debugf("init process %d exited", pid)

	exitStatus := 255

	if cmd.ProcessState != nil {
		switch unixWaitStatus := cmd.ProcessState.Sys().(syscall.WaitStatus); {
		case cmd.ProcessState.Exited():
			exitStatus = cmd.ProcessState.ExitCode()
		case unixWaitStatus.Signaled():
			exitStatus = exitCodeSignal + int(unixWaitStatus.Signal())
		}
	} else {
		log.G(ctx).Warn("init process wait returned without setting process state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	proc, ok := s.procs[id]
	if !ok {
		log.G(ctx).Errorf("failed to write final status of done init process: task was removed")
		return
	}

	proc.exitStatus = exitStatus
	proc.exitTime = time.Now()
	done()

	// Check if all the procs have exited
	all_exited := func() bool {
		for _, proc := range s.procs {
			if proc.done.Err() == nil {
				return false
			}
		}
		return true
	}()

	if all_exited {
		log.G(ctx).Debug("all procs exited. shutting down the shim")
		s.shutdown.Shutdown()
	}
}

const start_stopped_script = `
#!/bin/sh
kill -STOP $$
exec $@
`

const command_wait_delay = 100 * time.Millisecond

// Create a new container
func (s *bfrunTaskService) Create(ctx context.Context, r *taskAPI.CreateTaskRequest) (_ *taskAPI.CreateTaskResponse, retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.procs[r.ID]; ok {
		return nil, errdefs.ErrAlreadyExists
	}

	config, err := ReadConfig(r.Bundle)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	start_stopped_script_path := filepath.Join(r.Bundle, "start-stopped.sh")
	if err := os.WriteFile(start_stopped_script_path, []byte(start_stopped_script), 0755); err != nil {
		return nil, fmt.Errorf("writing start-stopped.sh: %w", err)
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("getting executable of current process: %w", err)
	}

	// The init process is this same binary, re-entered through the
	// "brainfuck" argv hijack, suspended until Start sends SIGCONT.
	args := []string{start_stopped_script_path, self, "brainfuck", "-file", config.FullPath()}
	if config.Memory > 0 {
		args = append(args, "-mem", strconv.Itoa(config.Memory))
	}
	cmd := exec.CommandContext(ctx, "/bin/sh", args...)

	// STDOUT
	ok, err := fifo.IsFifo(r.Stdout)
	if err != nil {
		return nil, fmt.Errorf("checking whether file %s is a fifo: %w", r.Stdout, err)
	}
	if !ok {
		return nil, fmt.Errorf("file %s is not a fifo", r.Stdout)
	}

	var fw io.WriteCloser
	if fw, err = fifo.OpenFifo(ctx, r.Stdout, syscall.O_WRONLY, 0); err != nil {
		return nil, fmt.Errorf("opening write only fifo %s: %w", r.Stdout, err)
	}

	stdout_pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("getting stdout pipe: %w", err)
	}

	// Connect the stdout pipe to the fifo
	go func() {
		if _, err := io.Copy(fw, stdout_pipe); err != nil {
			log.G(ctx).WithError(err).Errorf("failed to copy stdout pipe to fifo %s", r.Stdout)
		}
	}()

	// STDIN
	ok, err = fifo.IsFifo(r.Stdin)
	if err != nil {
		return nil, fmt.Errorf("checking whether file %s is a fifo: %w", r.Stdin, err)
	}
	if !ok {
		return nil, fmt.Errorf("file %s is not a fifo", r.Stdin)
	}
	var fr io.ReadCloser
	if fr, err = fifo.OpenFifo(ctx, r.Stdin, syscall.O_RDONLY, 0); err != nil {
		return nil, fmt.Errorf("opening read only fifo %s: %w", r.Stdin, err)
	}

	stdin_pipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("getting stdin pipe: %w", err)
	}

	// Connect the stdin pipe to the fifo
	go func() {
		if _, err := io.Copy(stdin_pipe, fr); err != nil {
			log.G(ctx).WithError(err).Errorf("failed to copy fifo %s to stdin pipe", r.Stdin)
		}
	}()

	// STDERR
	stderr := r.Stderr
	if stderr == "" {
		stderr = r.Stdout
	}

	ok, err = fifo.IsFifo(stderr)
	if err != nil {
		return nil, fmt.Errorf("checking whether file %s is a fifo: %w", stderr, err)
	}
	if !ok {
		return nil, fmt.Errorf("file %s is not a fifo", stderr)
	}

	stderr_pipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("getting stderr pipe: %w", err)
	}

	var fe io.WriteCloser
	if fe, err = fifo.OpenFifo(ctx, stderr, syscall.O_WRONLY, 0); err != nil {
		return nil, fmt.Errorf("opening write only fifo %s: %w", stderr, err)
	}

	// Connect the stderr pipe to the fifo
	go func() {
		if _, err := io.Copy(fe, stderr_pipe); err != nil {
			log.G(ctx).WithError(err).Errorf("failed to copy stderr pipe to fifo %s", stderr)
		}
	}()

	cmd.WaitDelay = command_wait_delay

	// Start the process (in a suspended state)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("running init command: %w", err)
	}

	pid := cmd.Process.Pid

	doneCtx, mark_done := context.WithCancel(context.Background())

	finalizer := &finalizer{
		done: mark_done,
		cmd:  cmd,
		pid:  pid,
		s:    s,
		id:   r.ID,
	}

	finalizer.schedule(ctx)

	if err := writePidFile(r.ID, pid); err != nil {
		log.G(ctx).WithError(err).Warnf("failed to write pid file for task %s", r.ID)
	}

	s.procs[r.ID] = &proc{
		pid:    pid,
		done:   doneCtx,
		stdout: r.Stdout,
		stdin:  r.Stdin,
	}

	return &taskAPI.CreateTaskResponse{
		Pid: uint32(pid),
	}, nil
}

// Start the primary user process inside the container
func (s *bfrunTaskService) Start(ctx context.Context, r *taskAPI.StartRequest) (*taskAPI.StartResponse, error) {
	log.G(ctx).Debug("start (service)")

	s.mu.RLock()
	defer s.mu.RUnlock()
	proc, ok := s.procs[r.ID]
	if !ok {
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}

	cmd := exec.CommandContext(ctx, "kill", "-CONT", strconv.Itoa(proc.pid))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting init command: %w", err)
	}

	return &taskAPI.StartResponse{
		Pid: uint32(proc.pid),
	}, nil
}

// Delete a process or container
func (s *bfrunTaskService) Delete(ctx context.Context, r *taskAPI.DeleteRequest) (*taskAPI.DeleteResponse, error) {
	log.G(ctx).Debug("delete (service)")

	s.mu.Lock()
	defer s.mu.Unlock()

	proc, ok := s.procs[r.ID]
	if !ok {
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}

	if proc.done.Err() != nil {
		delete(s.procs, r.ID)
	} else {
		return nil, errdefs.ErrFailedPrecondition.WithMessage(fmt.Sprintf("init process %d is not done yet", proc.pid))
	}

	return &taskAPI.DeleteResponse{
		Pid:        uint32(proc.pid),
		ExitStatus: uint32(proc.exitStatus),
		ExitedAt:   protobuf.ToTimestamp(proc.exitTime),
	}, nil
}

// Exec an additional process inside the container
func (s *bfrunTaskService) Exec(ctx context.Context, r *taskAPI.ExecProcessRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("exec (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Exec (task)")
}

// ResizePty of a process
func (s *bfrunTaskService) ResizePty(ctx context.Context, r *taskAPI.ResizePtyRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("resizepty (service)")
	return &ptypes.Empty{}, nil
}

// State returns runtime state of a process
func (s *bfrunTaskService) State(ctx context.Context, r *taskAPI.StateRequest) (*taskAPI.StateResponse, error) {
	log.G(ctx).Debug("state (service)")

	s.mu.RLock()
	defer s.mu.RUnlock()
	proc, ok := s.procs[r.ID]
	if !ok {
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}

	status := tasktypes.Status_RUNNING
	if proc.done.Err() != nil {
		status = tasktypes.Status_STOPPED
	}

	return &taskAPI.StateResponse{
		ID:         r.ID,
		Pid:        uint32(proc.pid),
		Status:     status,
		Stdout:     proc.stdout,
		Stdin:      proc.stdin,
		ExitStatus: uint32(proc.exitStatus),
		ExitedAt:   protobuf.ToTimestamp(proc.exitTime),
	}, nil
}

// Pause the container
func (s *bfrunTaskService) Pause(ctx context.Context, r *taskAPI.PauseRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("pause (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Pause (task)")
}

// Resume the container
func (s *bfrunTaskService) Resume(ctx context.Context, r *taskAPI.ResumeRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("resume (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Resume (task)")
}

// Kill a process
func (s *bfrunTaskService) Kill(ctx context.Context, r *taskAPI.KillRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("kill (service)")

	already_exited, err := func() (bool, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		proc, ok := s.procs[r.ID]
		if !ok {
			return false, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
		}

		// Check if the process is already done
		if proc.done.Err() != nil {
			return true, nil
		}

		if proc.pid > 0 {
			p, err := os.FindProcess(proc.pid)
			log.G(ctx).Debugf("kill id:%s execid:%s pid:%d sig:%d err:%v", r.ID, r.ExecID, proc.pid, r.Signal, err)
			// The POSIX standard specifies that a null-signal can be sent to check
			// whether a PID is valid.
			if err := p.Signal(syscall.Signal(0)); err == nil {
				sig := syscall.Signal(r.Signal)
				if sig == 0 {
					sig = syscall.SIGKILL
				}
				if err := p.Signal(sig); err != nil {
					return false, fmt.Errorf("sending %s to init process: %w", sig, err)
				}
			}
		}
		return false, nil
	}()

	if err != nil {
		log.G(ctx).WithError(err).Errorf("failed to send kill syscall to init process %s", r.ID)
		return nil, err
	}

	if already_exited {
		log.G(ctx).Warnf("task already exited: %s", r.ID)
	} else {
		done, err := s.grab_context(r.ID)
		if err != nil {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done.Done():
		}
	}

	return &ptypes.Empty{}, nil
}

// Pids returns all pids inside the container
func (s *bfrunTaskService) Pids(ctx context.Context, r *taskAPI.PidsRequest) (*taskAPI.PidsResponse, error) {
	log.G(ctx).Debug("pids (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Pids (task)")
}

// CloseIO of a process
func (s *bfrunTaskService) CloseIO(ctx context.Context, r *taskAPI.CloseIORequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("closeio (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("CloseIO (task)")
}

// Checkpoint the container
func (s *bfrunTaskService) Checkpoint(ctx context.Context, r *taskAPI.CheckpointTaskRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("checkpoint (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Checkpoint (task)")
}

// Connect returns shim information of the underlying service
func (s *bfrunTaskService) Connect(ctx context.Context, r *taskAPI.ConnectRequest) (*taskAPI.ConnectResponse, error) {
	log.G(ctx).Debug("connect (service)")
	s.mu.RLock()
	defer s.mu.RUnlock()

	proc, ok := s.procs[r.ID]
	if !ok {
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}

	return &taskAPI.ConnectResponse{
		ShimPid: uint32(os.Getpid()),
		TaskPid: uint32(proc.pid),
	}, nil
}

// Shutdown is called after the underlying resources of the shim are cleaned up and the service can be stopped
func (s *bfrunTaskService) Shutdown(ctx context.Context, r *taskAPI.ShutdownRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("shutdown (service)")

	s.shutdown.Shutdown()
	return &ptypes.Empty{}, nil
}

// Stats returns container level system stats for a container and its processes
func (s *bfrunTaskService) Stats(ctx context.Context, r *taskAPI.StatsRequest) (*taskAPI.StatsResponse, error) {
	log.G(ctx).Debug("stats (service)")
	// return empty stats
	stats := &taskAPI.StatsResponse{
		Stats: &anypb.Any{},
	}
	return stats, nil
}

// Update the live container
func (s *bfrunTaskService) Update(ctx context.Context, r *taskAPI.UpdateTaskRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("update (service)")
	return nil, errdefs.ErrAborted.WithMessage("Update (task)")
}

// Wait for a process to exit
func (s *bfrunTaskService) Wait(ctx context.Context, r *taskAPI.WaitRequest) (*taskAPI.WaitResponse, error) {
	log.G(ctx).Debug("wait (service)")

	done, err := s.grab_context(r.ID)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done.Done():
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	proc, ok := s.procs[r.ID]
	if !ok {
		return nil, fmt.Errorf("task was removed: %w", errdefs.ErrNotFound)
	}

	return &taskAPI.WaitResponse{
		ExitStatus: uint32(proc.exitStatus),
		ExitedAt:   protobuf.ToTimestamp(proc.exitTime),
	}, nil
}
