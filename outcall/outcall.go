// Package outcall issues outbound HTTP requests on behalf of
// replicated execution. Every replica issues the same request,
// each response passes through a deterministic transform, and
// the call succeeds only when every transformed response is
// identical.
package outcall

import (
	"context"
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNoTransform indicates that a request names no registered transform
	ErrNoTransform = errors.New("no such transform")
	// ErrResponseTooLarge indicates that a response body exceeded MaxResponseBytes
	ErrResponseTooLarge = errors.New("response exceeds max response bytes")
	// ErrBudgetExhausted indicates that the cycle budget cannot cover a call
	ErrBudgetExhausted = errors.New("cycle budget exhausted")
	// ErrDisagreement indicates that replicas observed different responses
	ErrDisagreement = errors.New("replicas disagree on the response")
)

// Header is one HTTP header line
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TransformRef names a registered transform and the
// opaque context passed to it
type TransformRef struct {
	Function string `json:"function"`
	Context  []byte `json:"context,omitempty"`
}

// Request describes an outbound HTTP request
type Request struct {
	URL              string        `json:"url"`
	Method           string        `json:"method"`
	Headers          []Header      `json:"headers"`
	Body             []byte        `json:"body,omitempty"`
	MaxResponseBytes uint64        `json:"max_response_bytes"`
	Transform        *TransformRef `json:"transform,omitempty"`
	Cycles           uint64        `json:"cycles"`
}

// Response is an HTTP response as seen by replicated code
type Response struct {
	Status  int      `json:"status"`
	Headers []Header `json:"headers"`
	Body    []byte   `json:"body"`
}

// Equal returns true if both responses have the same status,
// headers in the same order, and body
func (response Response) Equal(other Response) bool {
	if response.Status != other.Status || len(response.Headers) != len(other.Headers) {
		return false
	}

	for i := range response.Headers {
		if response.Headers[i] != other.Headers[i] {
			return false
		}
	}

	return string(response.Body) == string(other.Body)
}

// TransformArgs is the input to a transform
type TransformArgs struct {
	Response Response
	Context  []byte
}

// Transform canonicalizes a raw response. It must be
// deterministic and free of side effects.
type Transform func(args TransformArgs) Response

// Issuer performs a single outbound request
type Issuer interface {
	Issue(ctx context.Context, request Request) (Response, error)
}

// IssuerFunc adapts a function to the Issuer interface
type IssuerFunc func(ctx context.Context, request Request) (Response, error)

// Issue implements Issuer.Issue
func (fn IssuerFunc) Issue(ctx context.Context, request Request) (Response, error) {
	return fn(ctx, request)
}

// SortHeaders orders headers by lower-cased name then value
func SortHeaders(headers []Header) []Header {
	sorted := append([]Header{}, headers...)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := strings.ToLower(sorted[i].Name), strings.ToLower(sorted[j].Name)

		if a != b {
			return a < b
		}

		return sorted[i].Value < sorted[j].Value
	})

	return sorted
}
