package rpc

import (
	"encoding/json"
	"testing"

	"github.com/fthsdk/skagent/internal/agenterr"
	"github.com/fthsdk/skagent/internal/apdu"
	"github.com/fthsdk/skagent/internal/registry"
)

func newTestDispatcher() *Dispatcher {
	reg := registry.New(&apdu.Context{})
	return New(reg, "test-version")
}

func TestDispatchUnknownCommandReturnsError(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Dispatch(Request{ID: json.RawMessage(`1`), Command: "bogusCommand"})
	if resp.Status != "error" {
		t.Fatalf("status = %q, want error", resp.Status)
	}
	if resp.Error == nil || resp.Error.Code != string(agenterr.CodeUnknownCommand) {
		t.Fatalf("error = %+v, want code %s", resp.Error, agenterr.CodeUnknownCommand)
	}
}

func TestDispatchPingReturnsOk(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Dispatch(Request{ID: json.RawMessage(`2`), Command: "ping"})
	if resp.Status != "ok" {
		t.Fatalf("status = %q, want ok", resp.Status)
	}
}

func TestDispatchGetVersionReturnsConfiguredVersion(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Dispatch(Request{ID: json.RawMessage(`3`), Command: "getVersion"})
	result, ok := resp.Result.(map[string]string)
	if !ok {
		t.Fatalf("result type = %T, want map[string]string", resp.Result)
	}
	if result["version"] != "test-version" {
		t.Fatalf("version = %q, want test-version", result["version"])
	}
}

func TestDispatchCloseDeviceWithoutOpenReturnsNotOpen(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Dispatch(Request{ID: json.RawMessage(`4`), Command: "closeDevice", Params: json.RawMessage(`{"deviceId":"hid_1"}`)})
	if resp.Status != "error" {
		t.Fatalf("status = %q, want error", resp.Status)
	}
	if resp.Error.Code != string(agenterr.CodeNotOpen) {
		t.Fatalf("code = %q, want %s", resp.Error.Code, agenterr.CodeNotOpen)
	}
}

func TestDecodeParamsTreatsEmptyRawAsEmptyObject(t *testing.T) {
	var p deviceIDParams
	if err := decodeParams(nil, &p); err != nil {
		t.Fatalf("decodeParams(nil): %v", err)
	}
	if p.DeviceID != "" {
		t.Fatalf("DeviceID = %q, want empty", p.DeviceID)
	}
}

func TestDecodeParamsWrapsMalformedJSON(t *testing.T) {
	var p deviceIDParams
	err := decodeParams(json.RawMessage(`{"deviceId":`), &p)
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
	coder, ok := err.(*agenterr.Error)
	if !ok || coder.Code != agenterr.CodeInvalidParams {
		t.Fatalf("error = %+v, want *agenterr.Error{Code: INVALID_PARAMS}", err)
	}
}
