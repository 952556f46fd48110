package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

// mockServer creates an httptest.Server with common test patterns.
type mockServer struct {
	t           *testing.T
	handler     http.HandlerFunc
	expectPath  string
	expectMeth  string
	expectQuery map[string]string
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	return &mockServer{t: t}
}

// ExpectPath sets the expected request path.
func (m *mockServer) ExpectPath(path string) *mockServer {
	m.expectPath = path
	return m
}

// ExpectGET expects a GET request.
func (m *mockServer) ExpectGET() *mockServer {
	m.expectMeth = http.MethodGet
	return m
}

// ExpectPOST expects a POST request.
func (m *mockServer) ExpectPOST() *mockServer {
	m.expectMeth = http.MethodPost
	return m
}

// ExpectQuery expects a query parameter with the given value.
func (m *mockServer) ExpectQuery(key, value string) *mockServer {
	if m.expectQuery == nil {
		m.expectQuery = make(map[string]string)
	}
	m.expectQuery[key] = value
	return m
}

// RespondJSON responds with JSON-encoded data and status 200.
func (m *mockServer) RespondJSON(v any) *mockServer {
	return m.RespondJSONStatus(http.StatusOK, v)
}

// RespondJSONStatus responds with JSON-encoded data and the given status.
func (m *mockServer) RespondJSONStatus(code int, v any) *mockServer {
	m.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(v); err != nil {
			m.t.Errorf("failed to encode JSON response: %v", err)
		}
	}
	return m
}

// RespondError responds with an API error body.
func (m *mockServer) RespondError(code int, errCode, message string) *mockServer {
	return m.RespondJSONStatus(code, map[string]string{"error": message, "code": errCode})
}

// Handler sets a custom handler function.
func (m *mockServer) Handler(h http.HandlerFunc) *mockServer {
	m.handler = h
	return m
}

// Build creates the server and closes it when the test ends.
func (m *mockServer) Build() *httptest.Server {
	m.t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.expectPath != "" {
			assert.Equal(m.t, m.expectPath, r.URL.Path, "unexpected request path")
		}
		if m.expectMeth != "" {
			assert.Equal(m.t, m.expectMeth, r.Method, "unexpected request method")
		}
		for k, v := range m.expectQuery {
			assert.Equal(m.t, v, r.URL.Query().Get(k), "unexpected query %s", k)
		}
		if m.handler != nil {
			m.handler(w, r)
		}
	}))
	m.t.Cleanup(srv.Close)
	return srv
}

// runCommand executes the CLI against server and returns its output.
func runCommand(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--server", server}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
