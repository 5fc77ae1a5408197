package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shopmindai/voicematch/internal/clock"
	"github.com/shopmindai/voicematch/internal/matcher"
	"github.com/shopmindai/voicematch/internal/matchstate"
	"github.com/shopmindai/voicematch/internal/matchtxn"
)

// memStore is an in-memory matchtxn.Store that persists nothing, for
// simulate's manual protocol-testing REPL. Grounded on the original
// project's dev.py/dev2.py development loop (mem_db.DbBase): no real
// database, just an in-process command loop driving the matcher.
type memStore struct{}

func (memStore) LoadAll(ctx context.Context) (map[matchstate.Uid]matchstate.UserState, error) {
	return map[matchstate.Uid]matchstate.UserState{}, nil
}

func (memStore) CommitBatch(ctx context.Context, batch []matchstate.UserState, logs []matchtxn.LogEntry) error {
	return nil
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive the matcher directly from a stdin REPL, for manual protocol testing",
	Long: `simulate is a development helper (not part of the served core): it
replays a line-oriented command language against an in-memory
matchtxn.Engine so a developer can exercise the matcher's state machine
without a chat platform, a database, or a clock.

Commands:
  start <uid> <name>              StartCommand
  opinion <uid> <pro|con>         Callback OPINION_{MALE,FEMALE}_{PRO,CON} (sex inferred male)
  text <uid> <name>               TextInput (only meaningful while WaitingForName)
  cb <uid> <CMD>                  raw Callback, e.g. cb 1 IM_AVAILABLE_NOW
  tick <uid>                      synthetic Tick
  advance <seconds>               move the virtual clock forward
  now                             print the virtual clock
  quit                            exit
`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	eng, err := matchtxn.NewEngine(ctx, memStore{})
	if err != nil {
		return err
	}

	now := clock.Timestamp(0)
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("voicematchd simulate — type 'help' for commands, 'quit' to exit")

	for {
		fmt.Printf("[t=%d]> ", now)
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "quit", "exit":
			return nil
		case "help":
			fmt.Println(simulateCmd.Long)
		case "now":
			fmt.Println(now)
		case "advance":
			if len(fields) != 2 {
				fmt.Println("usage: advance <seconds>")
				continue
			}
			n, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				fmt.Println("bad seconds:", err)
				continue
			}
			now = now.Add(clock.Seconds(n))
		case "start":
			if len(fields) != 3 {
				fmt.Println("usage: start <uid> <name>")
				continue
			}
			uid := parseUid(fields[1])
			dispatch(ctx, eng, now, matcher.StartCommand{Uid: uid, DisplayName: fields[2]})
		case "text":
			if len(fields) != 3 {
				fmt.Println("usage: text <uid> <text>")
				continue
			}
			uid := parseUid(fields[1])
			dispatch(ctx, eng, now, matcher.TextInput{Uid: uid, Text: fields[2]})
		case "opinion":
			if len(fields) != 3 {
				fmt.Println("usage: opinion <uid> <pro|con>")
				continue
			}
			uid := parseUid(fields[1])
			cmdName := matcher.CmdOpinionMalePro
			if fields[2] == "con" {
				cmdName = matcher.CmdOpinionMaleCon
			}
			dispatch(ctx, eng, now, matcher.Callback{Uid: uid, Cmd: cmdName})
		case "cb":
			if len(fields) != 3 {
				fmt.Println("usage: cb <uid> <CMD>")
				continue
			}
			uid := parseUid(fields[1])
			dispatch(ctx, eng, now, matcher.Callback{Uid: uid, Cmd: matcher.Cmd(fields[2])})
		case "tick":
			if len(fields) != 2 {
				fmt.Println("usage: tick <uid>")
				continue
			}
			uid := parseUid(fields[1])
			dispatch(ctx, eng, now, matcher.Tick{Uid: uid})
		default:
			fmt.Println("unknown command, type 'help'")
		}
	}
}

func parseUid(s string) matchstate.Uid {
	n, _ := strconv.ParseInt(s, 10, 64)
	return matchstate.Uid(n)
}

func dispatch(ctx context.Context, eng *matchtxn.Engine, ts clock.Timestamp, in matcher.Input) {
	var msgs []matcher.OutboundMessage
	err := eng.Run(ctx, func(tx *matchtxn.Transaction) error {
		msgs = matcher.Handle(tx, ts, in)
		return nil
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, m := range msgs {
		fmt.Printf("  -> uid=%d kind=%s other=%d reply=%s seconds_left=%d\n",
			m.Uid, m.Kind, m.OtherUid, m.Reply, m.SecondsLeft)
	}
}
