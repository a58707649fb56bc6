// Copyright 2026 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package request

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"
)

const defaultTimeout = 30 * time.Second

// Request is a single JSON request built fluently and sent with Do.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	BodyObj any
	Proxy   string
	Timeout time.Duration
	Result  any
}

// Response is a copy of the reply; it stays valid after Do returns.
type Response struct {
	StatusCode int
	Body       []byte
}

func NewRequest(url, method string) *Request {
	return &Request{Method: method, URL: url, Headers: map[string]string{}}
}

func (r *Request) WithHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// WithQueryParams merges params into the URL query. Empty values are dropped.
func (r *Request) WithQueryParams(params map[string]string) *Request {
	if r.Query == nil {
		r.Query = map[string]string{}
	}
	for k, v := range params {
		if v != "" {
			r.Query[k] = v
		}
	}
	return r
}

// WithBodyJSON encodes body with sonic and sets the JSON content type.
func (r *Request) WithBodyJSON(body any) *Request {
	r.BodyObj = body
	if _, ok := r.Headers["Content-Type"]; !ok {
		r.Headers["Content-Type"] = "application/json"
	}
	return r
}

func (r *Request) WithProxy(proxy string) *Request {
	r.Proxy = proxy
	return r
}

func (r *Request) WithTimeout(timeout time.Duration) *Request {
	r.Timeout = timeout
	return r
}

// WithResult decodes a non-empty response body into result.
func (r *Request) WithResult(result any) *Request {
	r.Result = result
	return r
}

// Do sends the request. A decoded Result is filled whatever the status code;
// callers inspect StatusCode.
func (r *Request) Do() (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		return nil, errors.New("request method is required")
	}
	if !isValidMethod(method) {
		return nil, fmt.Errorf("invalid request method: %s", method)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(r.withQuery())
	req.Header.Set("Accept", "application/json")
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}
	if r.BodyObj != nil {
		body, err := sonic.Marshal(r.BodyObj)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		req.SetBody(body)
	}

	c, err := client(r.Proxy)
	if err != nil {
		return nil, err
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if err := c.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, r.URL, err)
	}

	out := &Response{StatusCode: resp.StatusCode(), Body: append([]byte(nil), resp.Body()...)}
	if r.Result != nil && len(out.Body) > 0 {
		if err := sonic.Unmarshal(out.Body, r.Result); err != nil {
			return out, fmt.Errorf("decode response (status %d): %w", out.StatusCode, err)
		}
	}
	return out, nil
}

func (r *Request) withQuery() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	parsed, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	values := parsed.Query()
	for key, value := range r.Query {
		values.Set(key, value)
	}
	parsed.RawQuery = values.Encode()
	return parsed.String()
}

func client(proxy string) (*fasthttp.Client, error) {
	if proxy == "" {
		return &fasthttp.Client{}, nil
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, err
	}
	if proxyURL.Scheme == "" {
		return nil, fmt.Errorf("proxy url missing scheme")
	}
	return &fasthttp.Client{Dial: fasthttpproxy.FasthttpHTTPDialer(proxyURL.Host)}, nil
}

func isValidMethod(method string) bool {
	switch method {
	case fasthttp.MethodGet,
		fasthttp.MethodPost,
		fasthttp.MethodPut,
		fasthttp.MethodDelete,
		fasthttp.MethodPatch:
		return true
	default:
		return false
	}
}
