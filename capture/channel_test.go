package capture

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func postEvents(t *testing.T, addr, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(addr+"/events", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChannelForwardsInArrivalOrder(t *testing.T) {
	acc := NewAccumulator()
	ch, err := NewChannel(zerolog.Nop(), acc)
	require.NoError(t, err)
	defer ch.Close()

	require.True(t, strings.HasPrefix(ch.Addr(), "http://127.0.0.1:"))

	resp := postEvents(t, ch.Addr(), `{"events":[
		{"type":"session:start","sessionId":"s1"},
		{"type":"test:start","file":"a.spec.ts","title":"logs in"},
		{"type":"action:start","label":"goto(/)"},
		{"type":"action:capture","action":{"type":"goto","title":"goto(/)"}},
		{"type":"action:start","label":"click(Login)"},
		{"type":"action:capture","action":{"type":"click","title":"click(Login)"}},
		{"type":"test:end"},
		{"type":"session:end"}
	]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ok struct {
		OK bool `json:"ok"`
	}
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &ok))
	require.True(t, ok.OK)

	actions := acc.Actions()
	require.Len(t, actions, 2)
	require.Equal(t, "goto", actions[0].Type)
	require.Equal(t, "click", actions[1].Type)

	file, title := acc.TestInfo()
	require.Equal(t, "a.spec.ts", file)
	require.Equal(t, "logs in", title)
}

func TestChannelRejectsMalformedBatchAtomically(t *testing.T) {
	acc := NewAccumulator()
	ch, err := NewChannel(zerolog.Nop(), acc)
	require.NoError(t, err)
	defer ch.Close()

	// The first event is valid, but the batch as a whole is malformed,
	// so nothing may be applied.
	resp := postEvents(t, ch.Addr(), `{"events":[
		{"type":"action:capture","action":{"type":"click"}},
		{"type":"definitely:not:an:event"}
	]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, acc.Actions())
}

func TestChannelRejectsNonPost(t *testing.T) {
	ch, err := NewChannel(zerolog.Nop(), NewAccumulator())
	require.NoError(t, err)
	defer ch.Close()

	resp, err := http.Get(ch.Addr() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestChannelErrorEventDoesNotAbort(t *testing.T) {
	acc := NewAccumulator()
	ch, err := NewChannel(zerolog.Nop(), acc)
	require.NoError(t, err)
	defer ch.Close()

	resp := postEvents(t, ch.Addr(), `{"events":[
		{"type":"error","message":"snapshot serialization failed"},
		{"type":"action:capture","action":{"type":"fill"}}
	]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, acc.Actions(), 1)
}

func TestChannelStepObserver(t *testing.T) {
	var steps []string
	ft := &FuncTarget{
		Step: func(s string) { steps = append(steps, s) },
	}
	ch, err := NewChannel(zerolog.Nop(), ft)
	require.NoError(t, err)
	defer ch.Close()

	resp := postEvents(t, ch.Addr(), `{"type":"action:waiting","label":"selector .login"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"waiting for selector .login"}, steps)
}

func TestChannelCloseIsIdempotent(t *testing.T) {
	ch, err := NewChannel(zerolog.Nop(), NewAccumulator())
	require.NoError(t, err)
	ch.Close()
	ch.Close()

	// The endpoint must be gone after close.
	_, err = http.Post(ch.Addr()+"/events", "application/json", bytes.NewReader(nil))
	if err == nil {
		t.Error("expected connection error after close")
	}
}
