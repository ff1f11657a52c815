package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"kz-tracker/internal/constants"
	"kz-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

func newHTTPClient() *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:     100,
		ReadTimeout:         constants.ExternalAPITimeout,
		WriteTimeout:        constants.ExternalAPITimeout,
		MaxIdleConnDuration: 1 * time.Minute,
	}
}

// get issues a GET with a bounded deadline and returns the status code and a
// copy of the body. Only network-level failures produce an error; status
// interpretation is up to the caller.
func get(ctx context.Context, client *fasthttp.Client, service, url string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.ExternalAPITimeout)
	}
	if err := client.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, &domain.UpstreamUnavailableError{Service: service, Err: err}
	}

	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}

// decode unmarshals a JSON body, translating type mismatches into the
// malformed-response error kind with the offending field attached.
func decode[T any](service string, body []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, &domain.MalformedResponseError{Service: service, Field: typeErr.Field}
		}
		return nil, &domain.MalformedResponseError{Service: service, Field: "body"}
	}
	return &v, nil
}

// isNull reports whether a 200 body is the JSON null literal; the legacy
// catalog answers that way for unknown map names.
func isNull(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
