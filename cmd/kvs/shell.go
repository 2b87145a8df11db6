package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xRadioAc7iv/go-kvs/core"
	"github.com/0xRadioAc7iv/go-kvs/internal/utils"
)

const shellHelp = `Commands:
  set KEY VALUE   set the value of a key
  get KEY         print the value of a key
  rm KEY          remove a key
  exists KEY      print whether a key has a value
  keys            list every key
  count           print the number of keys
  stats           print log statistics
  sync            flush the log to disk
  help            show this help
  exit            leave the shell
Quote keys and values that contain spaces: set city "New York"`

// errExit ends the shell loop.
var errExit = errors.New("exit")

func (a *app) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell on the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(s *core.Store) error {
				fmt.Fprintf(a.stdout, "Opened %s\n", s.Path())
				fmt.Fprintln(a.stdout, "Type commands. 'help' for information or 'exit' to quit.")
				return runShell(s, a.stdin, a.stdout)
			})
		},
	}
}

// runShell reads commands from in until exit or end of input. Errors from
// a single command are printed and the loop goes on.
func runShell(s *core.Store, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	for {
		fmt.Fprint(out, "> ")

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("input error: %w", err)
		}
		eof := err == io.EOF

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(out)
				return nil
			}
			continue
		}

		cmd, args, err := utils.SplitStringIntoCommandAndArguments(line)
		if err != nil {
			fmt.Fprintln(out, "parse error:", err)
			continue
		}

		resp, err := execute(s, cmd, args)
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		} else if resp != "" {
			fmt.Fprintln(out, resp)
		}

		if eof {
			return nil
		}
	}
}

// execute runs one shell command against s and returns what to print.
func execute(s *core.Store, cmd string, args []string) (string, error) {
	switch cmd {
	case "set":
		if len(args) != 2 {
			return "", usageError("set KEY VALUE")
		}
		if err := s.Set(args[0], args[1]); err != nil {
			return "", err
		}
		return "OK", nil

	case "get":
		if len(args) != 1 {
			return "", usageError("get KEY")
		}
		value, ok, err := s.Get(args[0])
		if err != nil {
			return "", err
		}
		if !ok {
			return keyNotFound, nil
		}
		return value, nil

	case "rm", "remove", "delete":
		if len(args) != 1 {
			return "", usageError("rm KEY")
		}
		err := s.Remove(args[0])
		if errors.Is(err, core.ErrKeyNotFound) {
			return keyNotFound, nil
		}
		if err != nil {
			return "", err
		}
		return "OK", nil

	case "exists":
		if len(args) != 1 {
			return "", usageError("exists KEY")
		}
		return strconv.FormatBool(s.Has(args[0])), nil

	case "keys", "list":
		keys := s.Keys()
		if len(keys) == 0 {
			return "(empty)", nil
		}
		return strings.Join(keys, "\n"), nil

	case "count":
		return strconv.Itoa(s.Len()), nil

	case "stats":
		st := s.Stats()
		return fmt.Sprintf("keys: %d\nrecords: %d\nlog size: %d bytes\nlive: %d bytes\nstale: %d bytes",
			st.Keys, st.Records, st.LogSize, st.LiveBytes, st.StaleBytes), nil

	case "sync":
		if err := s.Sync(); err != nil {
			return "", err
		}
		return "OK", nil

	case "help":
		return shellHelp, nil

	case "exit", "quit":
		return "", errExit

	default:
		return "", fmt.Errorf("unknown command %q, type 'help' for a list", cmd)
	}
}

func usageError(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}
