package outcall_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/tokenbook/outcall"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genHeader() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("Date", "X-Request-Id", "Content-Type", "Age"),
		gen.AlphaString(),
	).Map(func(values []interface{}) outcall.Header {
		return outcall.Header{Name: values[0].(string), Value: values[1].(string)}
	})
}

func genResponse() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(200, 404, 429, 500),
		gen.SliceOf(genHeader()),
		gen.AlphaString(),
	).Map(func(values []interface{}) outcall.Response {
		return outcall.Response{
			Status:  values[0].(int),
			Headers: values[1].([]outcall.Header),
			Body:    []byte(values[2].(string)),
		}
	})
}

func TestNormalizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParametersWithSeed(1234)
	properties := gopter.NewProperties(parameters)

	properties.Property("normalize strips headers and keeps status and body", prop.ForAll(
		func(response outcall.Response) bool {
			normalized := outcall.Normalize(outcall.TransformArgs{Response: response})

			return len(normalized.Headers) == 0 &&
				normalized.Status == response.Status &&
				string(normalized.Body) == string(response.Body)
		},
		genResponse(),
	))

	properties.Property("normalize is idempotent", prop.ForAll(
		func(response outcall.Response) bool {
			once := outcall.Normalize(outcall.TransformArgs{Response: response})
			twice := outcall.Normalize(outcall.TransformArgs{Response: once})

			return once.Equal(twice)
		},
		genResponse(),
	))

	properties.Property("responses differing only in headers normalize equally", prop.ForAll(
		func(a outcall.Response, headers []outcall.Header) bool {
			b := a
			b.Headers = headers

			return outcall.Normalize(outcall.TransformArgs{Response: a}).Equal(outcall.Normalize(outcall.TransformArgs{Response: b}))
		},
		genResponse(),
		gen.SliceOf(genHeader()),
	))

	properties.TestingRun(t)
}

func TestWithStaticHeaders(t *testing.T) {
	transform := outcall.WithStaticHeaders(
		outcall.Header{Name: "X-Source", Value: "coingecko"},
		outcall.Header{Name: "Content-Type", Value: "application/json"},
	)

	response := transform(outcall.TransformArgs{Response: outcall.Response{
		Status:  200,
		Headers: []outcall.Header{{Name: "Date", Value: "Mon, 01 Jan 2024 00:00:00 GMT"}},
		Body:    []byte(`{}`),
	}})

	expected := outcall.Response{
		Status: 200,
		Headers: []outcall.Header{
			{Name: "Content-Type", Value: "application/json"},
			{Name: "X-Source", Value: "coingecko"},
		},
		Body: []byte(`{}`),
	}

	if diff := cmp.Diff(expected, response); diff != "" {
		t.Fatal(diff)
	}

	again := transform(outcall.TransformArgs{Response: response})

	if !again.Equal(response) {
		t.Fatalf("expected static header transform to be idempotent")
	}
}

func TestRegistry(t *testing.T) {
	registry := outcall.NewRegistry()

	if _, err := registry.Lookup(&outcall.TransformRef{Function: outcall.TransformHTTPResponse}); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if _, err := registry.Lookup(nil); err == nil {
		t.Fatalf("expected requests without a transform to be rejected")
	}

	if _, err := registry.Lookup(&outcall.TransformRef{Function: "missing"}); err == nil {
		t.Fatalf("expected unknown transforms to be rejected")
	}

	if err := registry.Register(outcall.TransformHTTPResponse, outcall.Normalize); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	if err := registry.Register("static", outcall.WithStaticHeaders()); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}
}
