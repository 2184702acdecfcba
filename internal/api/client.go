// Package api provides a GraphQL client for the work-item service.
// It implements a deep module interface - simple methods hiding the GraphQL
// queries and the error classification behind them.
package api

import (
	"context"

	"github.com/machinebox/graphql"
)

// Client is a work-item service API client.
// It provides high-level methods for fetching board data and issuing
// status-transition mutations.
type Client struct {
	gql   *graphql.Client
	token string
}

// New creates a client for the service at the given GraphQL endpoint.
// The token is sent as a bearer credential on every request.
func New(endpoint, token string) *Client {
	return &Client{
		gql:   graphql.NewClient(endpoint),
		token: token,
	}
}

// makeRequest executes a GraphQL request with authentication.
// This is a helper method to avoid repeating the authorization header setup.
func (c *Client) makeRequest(ctx context.Context, req *graphql.Request, resp interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.gql.Run(ctx, req, resp)
}
