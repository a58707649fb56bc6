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

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesRegistry(t *testing.T) {
	s := NewServer(MetricsConfig{})
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "retry_test_total", Help: "test"})
	require.NoError(t, s.GetRegistry().Register(c))
	c.Add(3)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), "retry_test_total 3")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestDisabledServerIsNoop(t *testing.T) {
	s := NewServer(MetricsConfig{Enabled: false})
	require.NoError(t, s.Start())
	assert.NoError(t, s.Stop(t.Context()))
}

func TestProviderRegistersHttpMetrics(t *testing.T) {
	s := NewMetricsServer(&MetricsConfig{})
	families, err := s.GetRegistry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	// vectors without observations are not gathered, the go collector is
	assert.True(t, names["go_goroutines"])
}
