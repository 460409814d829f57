package apiclient

import (
	"context"
	"net/http"
)

func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, path, withOptions(opts, WithMethod(http.MethodGet))...)
}

func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, path, withOptions(opts, WithMethod(http.MethodPost), WithJSONBody(body))...)
}

func Put[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, path, withOptions(opts, WithMethod(http.MethodPut), WithJSONBody(body))...)
}

func Patch[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, path, withOptions(opts, WithMethod(http.MethodPatch), WithJSONBody(body))...)
}

func Delete[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, path, withOptions(opts, WithMethod(http.MethodDelete))...)
}

func withOptions(opts []RequestOption, extra ...RequestOption) []RequestOption {
	all := make([]RequestOption, 0, len(opts)+len(extra))
	all = append(all, opts...)

	return append(all, extra...)
}
