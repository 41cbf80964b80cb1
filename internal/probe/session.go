package probe

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Runner executes external commands on behalf of probes. It exists as an
// interface so tests can substitute canned output for commands like lsblk
// without touching the host.
type Runner interface {
	// Run executes the named command with args and returns its trimmed
	// stdout. The context controls teardown: when it is cancelled, the
	// command is killed rather than left running.
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner is the production Runner backed by os/exec.
type execRunner struct{}

// Run implements Runner using exec.CommandContext, so a probe timeout
// actively kills the in-flight command.
func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Session is the per-generate() context object shared by all probes of one
// run. It replaces implicit global caches with explicit, run-scoped state:
// created before the executor starts, passed into every probe, and closed
// when generate() returns.
type Session struct {
	logger *slog.Logger
	runner Runner

	// Overridable filesystem roots. Production sessions use the real
	// paths; tests point them at temp-dir fixtures.
	procRoot string
	sysRoot  string
	etcRoot  string
	fontDirs []string

	// memo caches expensive reads (cpuinfo, os-release) so concurrent
	// probes share one read per run. Guarded by mu.
	mu   sync.Mutex
	memo map[string]string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRunner sets the command runner. Defaults to the os/exec runner.
func WithRunner(r Runner) SessionOption {
	return func(s *Session) {
		s.runner = r
	}
}

// WithProcRoot overrides the /proc root. Used by tests.
func WithProcRoot(root string) SessionOption {
	return func(s *Session) {
		s.procRoot = root
	}
}

// WithSysRoot overrides the /sys root. Used by tests.
func WithSysRoot(root string) SessionOption {
	return func(s *Session) {
		s.sysRoot = root
	}
}

// WithEtcRoot overrides the /etc root. Used by tests.
func WithEtcRoot(root string) SessionOption {
	return func(s *Session) {
		s.etcRoot = root
	}
}

// WithFontDirs overrides the system font directories.
func WithFontDirs(dirs []string) SessionOption {
	return func(s *Session) {
		s.fontDirs = dirs
	}
}

// NewSession creates a Session with production defaults.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		runner:   execRunner{},
		procRoot: "/proc",
		sysRoot:  "/sys",
		etcRoot:  "/etc",
		fontDirs: []string{"/usr/share/fonts", "/usr/local/share/fonts"},
		memo:     make(map[string]string),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Runner returns the command runner.
func (s *Session) Runner() Runner {
	return s.runner
}

// ProcPath joins elements under the session's /proc root.
func (s *Session) ProcPath(elem ...string) string {
	return filepath.Join(append([]string{s.procRoot}, elem...)...)
}

// SysPath joins elements under the session's /sys root.
func (s *Session) SysPath(elem ...string) string {
	return filepath.Join(append([]string{s.sysRoot}, elem...)...)
}

// EtcPath joins elements under the session's /etc root.
func (s *Session) EtcPath(elem ...string) string {
	return filepath.Join(append([]string{s.etcRoot}, elem...)...)
}

// FontDirs returns the configured font directories.
func (s *Session) FontDirs() []string {
	dirs := make([]string, len(s.fontDirs))
	copy(dirs, s.fontDirs)
	return dirs
}

// ReadFile reads path once per session, caching the trimmed content under
// the path as memo key. Concurrent probes that need the same source
// (cpuinfo is read by several) share a single read.
//
// The lock is held across the read: a second probe asking for the same path
// waits for the first read instead of issuing its own. Probe reads are small
// files under /proc and /sys, so the serialization window is negligible.
func (s *Session) ReadFile(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.memo[path]; ok {
		return cached, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // session roots are configuration, not user input
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(string(data))
	if s.memo != nil {
		s.memo[path] = content
	}
	return content, nil
}

// Close drops the memo. The session must not be used after Close; a fresh
// generate() call builds a fresh session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memo = nil
}
