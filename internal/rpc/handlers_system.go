package rpc

import "encoding/json"

func handlePing(d *Dispatcher, params json.RawMessage) (any, error) {
	return map[string]string{"message": "pong"}, nil
}

func handleGetVersion(d *Dispatcher, params json.RawMessage) (any, error) {
	return map[string]string{"version": d.Version}, nil
}
