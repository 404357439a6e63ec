package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"dropsort/internal/rules"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// GetRules retrieves the active rule document.
func (c *Client) GetRules() (*GetRulesResponse, error) {
	var resp GetRulesResponse
	if err := c.client.Call("Dropsort.GetRules", GetRulesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetRules installs a new rule document.
func (c *Client) SetRules(doc rules.Rules) (*SetRulesResponse, error) {
	var resp SetRulesResponse
	if err := c.client.Call("Dropsort.SetRules", SetRulesRequest{Rules: doc}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateRules checks a document without installing it.
func (c *Client) ValidateRules(doc rules.Rules) (*ValidateRulesResponse, error) {
	var resp ValidateRulesResponse
	if err := c.client.Call("Dropsort.ValidateRules", ValidateRulesRequest{Rules: doc}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetSortRoot points the rules at a new sort root.
func (c *Client) SetSortRoot(path string) (*SetSortRootResponse, error) {
	var resp SetSortRootResponse
	if err := c.client.Call("Dropsort.SetSortRoot", SetSortRootRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DryRun computes the plan the next run would execute.
func (c *Client) DryRun() (*DryRunResponse, error) {
	var resp DryRunResponse
	if err := c.client.Call("Dropsort.DryRun", DryRunRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunNow triggers one synchronous pipeline pass.
func (c *Client) RunNow() (*RunNowResponse, error) {
	var resp RunNowResponse
	if err := c.client.Call("Dropsort.RunNow", RunNowRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UndoLastRun reverts the most recent journaled run.
func (c *Client) UndoLastRun() (*UndoResponse, error) {
	var resp UndoResponse
	if err := c.client.Call("Dropsort.UndoLastRun", UndoRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartWatcher starts watching the sort root.
func (c *Client) StartWatcher() (*WatcherStatusResponse, error) {
	var resp WatcherStatusResponse
	if err := c.client.Call("Dropsort.StartWatcher", StartWatcherRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopWatcher stops the watcher.
func (c *Client) StopWatcher() (*WatcherStatusResponse, error) {
	var resp WatcherStatusResponse
	if err := c.client.Call("Dropsort.StopWatcher", StopWatcherRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatcherStatus retrieves the watcher state.
func (c *Client) WatcherStatus() (*WatcherStatusResponse, error) {
	var resp WatcherStatusResponse
	if err := c.client.Call("Dropsort.WatcherStatus", WatcherStatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves daemon diagnostics.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Dropsort.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events fetches buffered events past a sequence number.
func (c *Client) Events(req EventsRequest) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.client.Call("Dropsort.Events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
