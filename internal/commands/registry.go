package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownCommand is returned by Invoke for a name with no registered
	// handler.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidArgs is returned when the arguments are not a JSON object.
	ErrInvalidArgs = errors.New("invalid command arguments")
)

// Handler runs one command with its raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// PathArgs is the argument object of the path-taking commands.
type PathArgs struct {
	Path string `json:"path"`
}

// Registry dispatches invocations by command name.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry registers the commands backed by svc.
func NewRegistry(svc *Service) *Registry {
	r := &Registry{handlers: make(map[string]Handler)}

	r.Register(AnalyzeDirectory, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args PathArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return svc.AnalyzeDirectory(ctx, args.Path)
	})
	r.Register(GetSystemInfo, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return svc.GetSystemInfo(ctx)
	})
	r.Register(WatchDirectory, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args PathArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return svc.WatchDirectory(ctx, args.Path)
	})

	return r
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the command called name.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return h(ctx, args)
}

// decodeArgs treats an empty body or JSON null as an empty object. Unknown
// fields are ignored.
func decodeArgs(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("%w: expected a JSON object", ErrInvalidArgs)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}
