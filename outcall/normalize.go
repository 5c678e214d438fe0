package outcall

// TransformHTTPResponse is the name Normalize is registered under
const TransformHTTPResponse = "transform_http_response"

// Normalize discards every response header and keeps
// the status and body as they are. Headers such as Date
// or request ids differ between replicas even when the
// content is the same.
func Normalize(args TransformArgs) Response {
	return Response{
		Status:  args.Response.Status,
		Headers: []Header{},
		Body:    args.Response.Body,
	}
}

// WithStaticHeaders returns a transform that normalizes the
// response and then attaches a fixed set of headers. The
// headers are sorted once so every replica produces the same
// order.
func WithStaticHeaders(headers ...Header) Transform {
	static := SortHeaders(headers)

	return func(args TransformArgs) Response {
		response := Normalize(args)
		response.Headers = append([]Header{}, static...)

		return response
	}
}
