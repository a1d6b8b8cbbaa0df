package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"handsfree/internal/ipc"
)

const usage = `usage: handsfree-ctl [--socket path] <command> [text]

commands:
  say <text>    interpret text as a spoken command
  listen        start listening
  mute          stop listening
  status        print the current state
  commands      print the voice command reference
  transcript    print the conversation log
  export        print contacts as vCard
`

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	cli.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		cli.Usage()
		os.Exit(2)
	}

	msg := ipc.ControlMessage{Cmd: args[0], Text: strings.Join(args[1:], " ")}
	reply, err := ipc.Send(*socket, msg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "handsfree:", err)
		os.Exit(1)
	}

	if err := printData(reply.Data); err != nil {
		fmt.Fprintln(os.Stderr, "handsfree:", err)
		os.Exit(1)
	}
}

// printData writes strings raw and everything else as indented JSON.
func printData(data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		fmt.Println(s)
		return nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	fmt.Println(out.String())
	return nil
}
