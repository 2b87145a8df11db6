package utils

import (
	"errors"
	"strings"

	"github.com/kballard/go-shellquote"
)

var ErrEmptyCommand = errors.New("empty command")

// SplitStringIntoCommandAndArguments splits a shell line into a command and
// its arguments, following shell quoting rules, so that
//
//	set "first name" 'Ada Lovelace'
//
// yields "set" and ["first name", "Ada Lovelace"]. The command is
// lowercased; arguments are kept as written.
func SplitStringIntoCommandAndArguments(line string) (cmd string, args []string, err error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", nil, err
	}
	if len(words) == 0 {
		return "", nil, ErrEmptyCommand
	}
	return strings.ToLower(words[0]), words[1:], nil
}
