package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"handsfree/internal/assistant"
	"handsfree/internal/ipc"
	"handsfree/internal/nlu"
	"handsfree/internal/recognition"
	"handsfree/internal/store"
)

// controlHandler serves handsfree-ctl over the control socket.
func controlHandler(ctx context.Context, asst *assistant.Assistant, st store.Store, session *recognition.Session) ipc.Handler {
	return func(msg ipc.ControlMessage) ipc.ControlReply {
		reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		switch msg.Cmd {
		case "say":
			if msg.Text == "" {
				return ipc.Fail(errors.New("say needs text"))
			}
			if err := asst.Submit(reqCtx, msg.Text); err != nil {
				return ipc.Fail(err)
			}
			return ipc.Reply("queued")
		case "listen":
			if session == nil {
				return ipc.Fail(errors.New("no recognition source configured"))
			}
			if err := session.Start(ctx); err != nil && !errors.Is(err, recognition.ErrListening) {
				return ipc.Fail(err)
			}
			return ipc.Reply("listening")
		case "mute":
			if session != nil {
				session.Stop()
			}
			return ipc.Reply("muted")
		case "status":
			snap, err := asst.Snapshot(reqCtx)
			if err != nil {
				return ipc.Fail(err)
			}
			return ipc.Reply(snap)
		case "commands":
			return ipc.Reply(nlu.Reference())
		case "transcript":
			entries, err := st.Transcript(reqCtx)
			if err != nil {
				return ipc.Fail(err)
			}
			return ipc.Reply(entries)
		case "export":
			contacts, err := st.Contacts(reqCtx)
			if err != nil {
				return ipc.Fail(err)
			}
			var buf bytes.Buffer
			if err := store.ExportVCard(&buf, contacts); err != nil {
				return ipc.Fail(err)
			}
			return ipc.Reply(buf.String())
		}
		return ipc.Fail(fmt.Errorf("unknown command %q", msg.Cmd))
	}
}
