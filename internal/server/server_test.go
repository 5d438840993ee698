package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/steveyegge/triage/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	result    types.Result
	err       error
	ticket    string
	requester string
}

func (f *fakeProcessor) Process(ctx context.Context, ticket, requester string) (types.Result, error) {
	f.ticket, f.requester = ticket, requester
	return f.result, f.err
}

func (f *fakeProcessor) Departments() *types.DepartmentTable {
	return types.DefaultDepartmentTable()
}

func newTestServer(t *testing.T, p *fakeProcessor) *httptest.Server {
	t.Helper()
	s, err := New("127.0.0.1:0", p)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestNewRequiresProcessor(t *testing.T) {
	_, err := New(":0", nil)
	assert.Error(t, err)
}

func TestIndexRendersForm(t *testing.T) {
	ts := newTestServer(t, &fakeProcessor{})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `action="/enviar"`)
	assert.Contains(t, string(body), `name="mensaje"`)
	assert.Contains(t, string(body), `name="empleado"`)
}

func TestUnknownPathIsNotFound(t *testing.T) {
	ts := newTestServer(t, &fakeProcessor{})

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFormSubmitShowsResult(t *testing.T) {
	p := &fakeProcessor{result: types.DuplicateResult(types.DepartmentSupport, "My laptop won't turn on")}
	ts := newTestServer(t, p)

	resp, err := http.PostForm(ts.URL+"/enviar", url.Values{
		"mensaje":  {"My laptop won't turn on"},
		"empleado": {"Luis"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "My laptop won't turn on", p.ticket)
	assert.Equal(t, "Luis", p.requester)

	body, _ := io.ReadAll(resp.Body)
	// html/template escapes the apostrophe
	assert.Contains(t, string(body), "duplicate found: My laptop won&#39;t turn on")
	assert.Contains(t, string(body), types.DepartmentSupport)
}

func TestFormSubmitEscapesInput(t *testing.T) {
	ts := newTestServer(t, &fakeProcessor{result: types.SavedResult(types.DepartmentSupport)})

	resp, err := http.PostForm(ts.URL+"/enviar", url.Values{
		"mensaje":  {"<script>alert(1)</script>"},
		"empleado": {"Ana"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "<script>alert(1)</script>")
	assert.Contains(t, string(body), "&lt;script&gt;")
}

func TestFormSubmitError(t *testing.T) {
	p := &fakeProcessor{err: &types.UnknownDepartmentError{Label: "facturación"}}
	ts := newTestServer(t, p)

	resp, err := http.PostForm(ts.URL+"/enviar", url.Values{"mensaje": {"x"}, "empleado": {"Ana"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "facturación")
}

func TestAPISubmit(t *testing.T) {
	p := &fakeProcessor{result: types.SavedResult(types.DepartmentHR)}
	ts := newTestServer(t, p)

	resp, err := http.Post(ts.URL+"/api/tickets", "application/json",
		strings.NewReader(`{"ticket":"Necesito vacaciones","requester":"Ana"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, SubmitResponse{Message: "ticket saved", Department: types.DepartmentHR}, got)
	assert.Equal(t, "Necesito vacaciones", p.ticket)
	assert.Equal(t, "Ana", p.requester)
}

func TestAPISubmitErrorStatus(t *testing.T) {
	invalid := fmt.Errorf("%w: ticket text is required", types.ErrInvalidTicket)
	unknown := &types.UnknownDepartmentError{Label: "ventas"}

	tests := []struct {
		name    string
		err     error
		want    int
		wantMsg string
	}{
		{"invalid", invalid, http.StatusBadRequest, invalid.Error()},
		{"unknown department", unknown, http.StatusUnprocessableEntity, unknown.Error()},
		{"classifier", types.WrapExternal("classifier", "classify", errors.New("503 from https://api.internal")), http.StatusBadGateway,
			"classification or embedding service unavailable (request req-123)"},
		{"store", fmt.Errorf("saving: %w", &types.StoreIOError{Op: "save", Path: "/srv/triage/data/soporte_tecnico.txt", Err: errors.New("disk full")}),
			http.StatusInternalServerError, "internal error (request req-123)"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "request timed out (request req-123)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeProcessor{err: tt.err})

			req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/tickets",
				strings.NewReader(`{"ticket":"x","requester":"Ana"}`))
			require.NoError(t, err)
			req.Header.Set("X-Request-ID", "req-123")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.StatusCode)
			var got ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.wantMsg, got.Error)
			assert.Equal(t, "req-123", got.RequestID)
		})
	}
}

func TestFormSubmitHidesStorePaths(t *testing.T) {
	p := &fakeProcessor{err: &types.StoreIOError{Op: "save", Path: "/srv/triage/data/operaciones.txt", Err: errors.New("permission denied")}}
	ts := newTestServer(t, p)

	resp, err := http.PostForm(ts.URL+"/enviar", url.Values{"mensaje": {"x"}, "empleado": {"Ana"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "/srv/triage")
	assert.NotContains(t, string(body), "permission denied")
	assert.Contains(t, string(body), "internal error (request "+resp.Header.Get("X-Request-ID")+")")
}

func TestAPISubmitRejectsBadBody(t *testing.T) {
	p := &fakeProcessor{}
	ts := newTestServer(t, p)

	resp, err := http.Post(ts.URL+"/api/tickets", "application/json", strings.NewReader(`{not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	big := `{"ticket":"` + strings.Repeat("a", maxBodyBytes) + `","requester":"Ana"}`
	resp, err = http.Post(ts.URL+"/api/tickets", "application/json", strings.NewReader(big))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	assert.Empty(t, p.ticket, "processor must not be called")
}

func TestAPISubmitWrongMethod(t *testing.T) {
	ts := newTestServer(t, &fakeProcessor{})

	resp, err := http.Get(ts.URL + "/api/tickets")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestDepartments(t *testing.T) {
	ts := newTestServer(t, &fakeProcessor{})

	resp, err := http.Get(ts.URL + "/api/departments")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []types.Department
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, types.DefaultDepartments(), got)
}

func TestStartAndStop(t *testing.T) {
	s, err := New("127.0.0.1:0", &fakeProcessor{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := s.Start(ctx)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/api/departments")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.Stop()
}
