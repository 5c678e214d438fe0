package outcall

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrife/tokenbook/utils/log"
	"go.uber.org/zap"
)

// HTTPIssuerConfig configures an HTTPIssuer
type HTTPIssuerConfig struct {
	Logger *zap.Logger
	// Client defaults to a client with Timeout
	Client *http.Client
	// Timeout bounds each request when Client is nil. Defaults to 10 seconds.
	Timeout time.Duration
}

var _ Issuer = (*HTTPIssuer)(nil)

// HTTPIssuer issues requests over the network
type HTTPIssuer struct {
	logger *zap.Logger
	client *http.Client
}

// NewHTTPIssuer creates an HTTPIssuer
func NewHTTPIssuer(config HTTPIssuerConfig) *HTTPIssuer {
	issuer := &HTTPIssuer{logger: config.Logger, client: config.Client}

	if issuer.logger == nil {
		issuer.logger = zap.L()
	}

	if issuer.client == nil {
		timeout := config.Timeout

		if timeout <= 0 {
			timeout = 10 * time.Second
		}

		issuer.client = &http.Client{Timeout: timeout}
	}

	return issuer
}

// Issue implements Issuer.Issue. A body larger than
// request.MaxResponseBytes fails with ErrResponseTooLarge.
func (issuer *HTTPIssuer) Issue(ctx context.Context, request Request) (Response, error) {
	logger := log.WithContext(ctx, issuer.logger).With(zap.String("operation", "Issue"), zap.String("url", request.URL))
	logger.Debug("start Issue()")

	method := request.Method

	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader

	if len(request.Body) > 0 {
		body = bytes.NewReader(request.Body)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, request.URL, body)

	if err != nil {
		return Response{}, fmt.Errorf("could not build request: %w", err)
	}

	for _, header := range request.Headers {
		httpRequest.Header.Add(header.Name, header.Value)
	}

	httpResponse, err := issuer.client.Do(httpRequest)

	if err != nil {
		logger.Debug("error", zap.Error(err))

		return Response{}, fmt.Errorf("request failed: %w", err)
	}

	defer httpResponse.Body.Close()

	reader := io.Reader(httpResponse.Body)

	if request.MaxResponseBytes > 0 {
		reader = io.LimitReader(httpResponse.Body, int64(request.MaxResponseBytes)+1)
	}

	responseBody, err := io.ReadAll(reader)

	if err != nil {
		return Response{}, fmt.Errorf("could not read response body: %w", err)
	}

	if request.MaxResponseBytes > 0 && uint64(len(responseBody)) > request.MaxResponseBytes {
		return Response{}, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, request.MaxResponseBytes)
	}

	var headers []Header

	for name, values := range httpResponse.Header {
		for _, value := range values {
			headers = append(headers, Header{Name: name, Value: value})
		}
	}

	response := Response{
		Status:  httpResponse.StatusCode,
		Headers: SortHeaders(headers),
		Body:    responseBody,
	}

	logger.Debug("return from Issue()", zap.Int("status", response.Status), zap.Int("bytes", len(responseBody)))

	return response, nil
}
