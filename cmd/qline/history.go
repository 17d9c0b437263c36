package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/atinylittleshell/qline/internal/config"
	"github.com/atinylittleshell/qline/internal/history"
)

func newHistoryCommand(cfg *config.Config) *ffcli.Command {
	fs := flag.NewFlagSet("qline history", flag.ContinueOnError)
	clearAll := fs.Bool("c", false, "clear the history list")
	remove := fs.Uint("d", 0, "delete the history entry with this id")
	all := fs.Bool("all", false, "list queries sent to every server, not just -server")
	prefix := fs.String("prefix", "", "list only queries starting with this text")

	return &ffcli.Command{
		Name:       "history",
		ShortUsage: "qline [flags] history [-c] [-d id] [-prefix text] [n]",
		ShortHelp:  "Display or manipulate the query history.",
		LongHelp:   "If n is given, display only the last n entries.",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			cmd := history.Command{
				Clear:  *clearAll,
				Delete: *remove,
				Server: cfg.Server,
				Prefix: *prefix,
			}
			if *all {
				cmd.Server = ""
			}
			if len(args) > 1 {
				return fmt.Errorf("history takes at most one count, got %d arguments", len(args))
			}
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid history count %q", args[0])
				}
				cmd.Limit = n
			}

			env, err := setup(cfg)
			if err != nil {
				return err
			}
			defer env.Close()

			if env.historyManager == nil {
				return fmt.Errorf("history database %s is unavailable", env.paths.HistoryFile)
			}
			return cmd.Run(os.Stdout, env.historyManager)
		},
	}
}
