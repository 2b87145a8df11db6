package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xRadioAc7iv/go-kvs/core"
)

const keyNotFound = "Key not found"

func (a *app) newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set KEY VALUE",
		Short:   "Set the value of a key",
		Example: "kvs set city 'New York'",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *core.Store) error {
				return s.Set(args[0], args[1])
			})
		},
	}
}

func (a *app) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *core.Store) error {
				value, ok, err := s.Get(args[0])
				if err != nil {
					return err
				}
				if !ok {
					value = keyNotFound
				}
				fmt.Fprintln(a.stdout, value)
				return nil
			})
		},
	}
}

func (a *app) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm KEY",
		Short:   "Remove a key",
		Aliases: []string{"remove", "delete"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(s *core.Store) error {
				err := s.Remove(args[0])
				if errors.Is(err, core.ErrKeyNotFound) {
					fmt.Fprintln(a.stdout, keyNotFound)
					return exitCodeError{code: exitNotFound}
				}
				return err
			})
		},
	}
}
