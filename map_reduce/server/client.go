package server

import "net/rpc"

// Client calls a ViewServer.
type Client struct {
	c *rpc.Client
}

func Dial(network, address string) (*Client, error) {
	c, err := rpc.DialHTTP(network, address)
	if err != nil {
		return nil, err
	}
	return &Client{c: c}, nil
}

// Rebuild recomputes view on the server and returns its row count.
func (c *Client) Rebuild(view string) (int, error) {
	response := &RebuildResponse{}
	if err := c.c.Call("ViewServer.Rebuild", &RebuildRequest{View: view}, response); err != nil {
		return 0, err
	}
	return response.Rows, nil
}

func (c *Client) Query(view, key string, limit int) (*QueryResponse, error) {
	response := &QueryResponse{}
	err := c.c.Call("ViewServer.Query", &QueryRequest{View: view, Key: key, Limit: limit}, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) Close() error {
	return c.c.Close()
}
