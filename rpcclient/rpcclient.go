// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

// Package rpcclient is the request/response surface the harness drives node
// processes through. One Client wraps one node's JSON-RPC endpoint; typed
// facades expose the storage and chain methods the scenarios consume.
package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

type ClientConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type ClientConfigFetcher func() *ClientConfig

var DefaultClientConfig = ClientConfig{
	Timeout: 10 * time.Second,
}

func ClientConfigAddOptions(prefix string, f *flag.FlagSet, defaultConfig *ClientConfig) {
	f.String(prefix+".url", defaultConfig.URL, "url of the node's JSON-RPC server")
	f.Duration(prefix+".timeout", defaultConfig.Timeout, "per-call timeout (0-disabled)")
}

// RpcError reports a single failed call: transport failure, malformed
// response, or a remote-reported error. The client never retries; callers
// that need convergence wrap calls in waitfor.Until.
type RpcError struct {
	Method string
	Err    error
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Method, e.Err)
}

func (e *RpcError) Unwrap() error {
	return e.Err
}

type Client struct {
	config ClientConfigFetcher
	client *rpc.Client
}

func NewClient(config ClientConfigFetcher) *Client {
	return &Client{config: config}
}

// Start dials the configured endpoint. HTTP transports connect lazily, so a
// node that is still starting up does not fail here but on the first call.
func (c *Client) Start(ctx context.Context) error {
	url := c.config().URL
	if url == "" {
		return errors.New("no url provided for this connection")
	}
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", url, err)
	}
	c.client = client
	return nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Client) CallContext(ctx_in context.Context, result interface{}, method string, args ...interface{}) error {
	if c.client == nil {
		return &RpcError{Method: method, Err: errors.New("not connected")}
	}
	var ctx context.Context
	var cancelCtx context.CancelFunc
	timeout := c.config().Timeout
	if timeout > 0 {
		ctx, cancelCtx = context.WithTimeout(ctx_in, timeout)
	} else {
		ctx, cancelCtx = context.WithCancel(ctx_in)
	}
	defer cancelCtx()

	err := c.client.CallContext(ctx, result, method, args...)
	log.Trace("rpc call", "method", method, "err", err)
	if err != nil {
		return &RpcError{Method: method, Err: err}
	}
	return nil
}
