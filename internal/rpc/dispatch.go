package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fthsdk/skagent/internal/registry"
)

// handlerFunc handles one decoded command, returning the value to place
// in Response.Result.
type handlerFunc func(d *Dispatcher, params json.RawMessage) (any, error)

// Dispatcher owns the registry for the process's lifetime and routes
// decoded requests to their handler (spec.md §9: "dispatch is the only
// place that holds the outer reference").
type Dispatcher struct {
	Registry *registry.Registry
	Version  string

	commands map[string]handlerFunc
}

// New builds a dispatcher with the full command table wired in.
func New(reg *registry.Registry, version string) *Dispatcher {
	d := &Dispatcher{Registry: reg, Version: version}
	d.commands = buildCommandTable()
	return d
}

// Dispatch looks up req.Command and invokes its handler with the raw
// params, translating any error into the wire error taxonomy (spec.md
// §7). An unknown command is answered with UNKNOWN_COMMAND and never
// reaches a handler; each handler decodes and checks its own params.
func (d *Dispatcher) Dispatch(req Request) Response {
	handler, known := d.commands[req.Command]
	if !known {
		return errorResponse(req.ID, string(agenterr.CodeUnknownCommand), fmt.Sprintf("unknown command %q", req.Command))
	}
	result, err := handler(d, req.Params)
	if err != nil {
		code, message := agenterr.Resolve(err)
		return errorResponse(req.ID, string(code), message)
	}
	return ok(req.ID, result)
}

// decodeParams unmarshals raw into v, treating an empty/nil raw as an
// empty JSON object so commands with no parameters (ping, listDevices,
// ...) don't need special-casing at the call site.
func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return agenterr.Wrap(agenterr.CodeInvalidParams, err, "could not decode parameters")
	}
	return nil
}
