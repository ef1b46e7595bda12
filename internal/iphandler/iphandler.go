// Package iphandler runs user hooks after a server starts and its public
// address is known, for example to update DNS or a game client's server list.
package iphandler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/rs/zerolog/log"
)

// Target is the started server handed to a handler.
type Target struct {
	Region string
	Name   string
	ID     string
	IP     string
}

// Handler reacts to a server's new address.
type Handler interface {
	Handle(ctx context.Context, t Target) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, t Target) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, t Target) error { return f(ctx, t) }

// ErrUnknownHandler is returned when no handler has the requested name.
var ErrUnknownHandler = errors.New("unknown ip handler")

var validName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Registry resolves handlers by name: registered builtins first, then
// <dir>/<name>.js run in an embedded JavaScript runtime, then an executable
// <dir>/<name>.
type Registry struct {
	dir string

	mu       sync.RWMutex
	builtins map[string]Handler
}

// NewRegistry returns a registry searching dir. The "log" builtin is always
// present.
func NewRegistry(dir string) *Registry {
	r := &Registry{dir: dir, builtins: make(map[string]Handler)}
	r.Register("log", HandlerFunc(func(ctx context.Context, t Target) error {
		log.Info().Ctx(ctx).Str("region", t.Region).Str("name", t.Name).Str("ip", t.IP).Msg("server address")
		return nil
	}))
	return r
}

// Register adds or replaces a builtin handler.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[name] = h
}

// Lookup resolves name.
func (r *Registry) Lookup(name string) (Handler, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, name)
	}

	r.mu.RLock()
	h, ok := r.builtins[name]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	if r.dir == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandler, name)
	}

	script := filepath.Join(r.dir, name+".js")
	if src, err := os.ReadFile(script); err == nil {
		return &Script{Path: script, Source: string(src)}, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", script, err)
	}

	bin := filepath.Join(r.dir, name)
	info, err := os.Stat(bin)
	if err == nil && !info.IsDir() && info.Mode().Perm()&0o111 != 0 {
		return &Command{Path: bin}, nil
	}
	return nil, fmt.Errorf("%w: %s (searched builtins and %s)", ErrUnknownHandler, name, r.dir)
}

// Command runs an executable with the target in its environment:
// EC2MC_REGION, EC2MC_NAME, EC2MC_ID and EC2MC_IP.
type Command struct {
	Path string
}

// Handle runs the command and logs its combined output.
func (c *Command) Handle(ctx context.Context, t Target) error {
	cmd := exec.CommandContext(ctx, c.Path, t.IP)
	cmd.Env = append(os.Environ(),
		"EC2MC_REGION="+t.Region,
		"EC2MC_NAME="+t.Name,
		"EC2MC_ID="+t.ID,
		"EC2MC_IP="+t.IP,
	)
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		log.Debug().Ctx(ctx).Str("handler", c.Path).Bytes("output", out).Msg("ip handler output")
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", c.Path, err)
	}
	return nil
}
