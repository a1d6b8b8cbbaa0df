package ipc

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, h Handler) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ctl.sock")
	srv, err := StartServer(path, h)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return path
}

func TestSendRoundTrip(t *testing.T) {
	path := startTestServer(t, func(msg ControlMessage) ControlReply {
		if msg.Cmd != "say" {
			return Fail(errors.New("unexpected command"))
		}
		return Reply(map[string]string{"echo": msg.Text})
	})

	reply, err := Send(path, ControlMessage{Cmd: "say", Text: "show contacts"})
	require.NoError(t, err)
	assert.True(t, reply.OK)

	var data map[string]string
	require.NoError(t, json.Unmarshal(reply.Data, &data))
	assert.Equal(t, "show contacts", data["echo"])
}

func TestSendFailure(t *testing.T) {
	path := startTestServer(t, func(ControlMessage) ControlReply {
		return Fail(errors.New(`unknown command "dance"`))
	})

	reply, err := Send(path, ControlMessage{Cmd: "dance"})
	assert.EqualError(t, err, `unknown command "dance"`)
	assert.False(t, reply.OK)
}

func TestStartServerReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctl.sock")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	srv, err := StartServer(path, func(ControlMessage) ControlReply { return Reply("ok") })
	require.NoError(t, err)

	_, err = Send(path, ControlMessage{Cmd: "status"})
	assert.NoError(t, err)

	require.NoError(t, srv.Close())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSendNoDaemon(t *testing.T) {
	_, err := Send(filepath.Join(t.TempDir(), "none.sock"), ControlMessage{Cmd: "status"})
	assert.Error(t, err)
}

func TestReplyUnmarshalable(t *testing.T) {
	reply := Reply(make(chan int))
	assert.False(t, reply.OK)
	assert.NotEmpty(t, reply.Error)
}
