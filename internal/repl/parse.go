package repl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/giantswarm/knav/internal/dispatch"
)

// parseVerbArgs interprets the words after an action verb.
//
// Grammar per verb:
//
//	list [kind] [-r|--refresh]
//	describe [[kind] selector]
//	delete [[kind] selector]
//	logs [selector] [-c container] [-f] [-p] [--timestamps] [--tail N]
//	exec [selector] [-c container] [-i] [-t] -- command [arg...]
//	port-forward port[:remotePort]...
//
// Verbs that accept a selector fall back to the standing selection when
// none is given.
func parseVerbArgs(verb dispatch.Verb, words []string, stdin io.Reader) (dispatch.Args, error) {
	switch verb {
	case dispatch.VerbList:
		return parseListArgs(words)
	case dispatch.VerbDescribe, dispatch.VerbDelete:
		return parseTargetArgs(words)
	case dispatch.VerbLogs:
		return parseLogsArgs(words)
	case dispatch.VerbExec:
		return parseExecArgs(words, stdin)
	case dispatch.VerbPortForward:
		return dispatch.Args{Ports: words}, nil
	default:
		return dispatch.Args{}, fmt.Errorf("%w: %q", dispatch.ErrUnknownVerb, verb)
	}
}

func parseListArgs(words []string) (dispatch.Args, error) {
	var args dispatch.Args
	for _, w := range words {
		switch w {
		case "-r", "--refresh":
			args.Refresh = true
		default:
			if isFlag(w) {
				return args, fmt.Errorf("unknown flag %q", w)
			}
			if args.Kind != "" {
				return args, fmt.Errorf("unexpected argument %q", w)
			}
			args.Kind = w
		}
	}
	return args, nil
}

func parseTargetArgs(words []string) (dispatch.Args, error) {
	var positional []string
	for _, w := range words {
		if isFlag(w) {
			return dispatch.Args{}, fmt.Errorf("unknown flag %q", w)
		}
		positional = append(positional, w)
	}
	switch len(positional) {
	case 0:
		return dispatch.Args{}, nil
	case 1:
		return dispatch.Args{Selector: positional[0]}, nil
	case 2:
		return dispatch.Args{Kind: positional[0], Selector: positional[1]}, nil
	default:
		return dispatch.Args{}, fmt.Errorf("too many arguments")
	}
}

func parseLogsArgs(words []string) (dispatch.Args, error) {
	var args dispatch.Args
	for i := 0; i < len(words); i++ {
		w := words[i]
		switch w {
		case "-c", "--container":
			v, ni, err := flagValue(words, i)
			if err != nil {
				return args, err
			}
			args.Container, i = v, ni
		case "-f", "--follow":
			args.Follow = true
		case "-p", "--previous":
			args.Previous = true
		case "--timestamps":
			args.Timestamps = true
		case "--tail":
			v, ni, err := flagValue(words, i)
			if err != nil {
				return args, err
			}
			n, convErr := strconv.ParseInt(v, 10, 64)
			if convErr != nil || n < 0 {
				return args, fmt.Errorf("--tail needs a non-negative number, got %q", v)
			}
			args.TailLines, i = &n, ni
		default:
			if isFlag(w) {
				return args, fmt.Errorf("unknown flag %q", w)
			}
			if args.Selector != "" {
				return args, fmt.Errorf("unexpected argument %q", w)
			}
			args.Selector = w
		}
	}
	return args, nil
}

func parseExecArgs(words []string, stdin io.Reader) (dispatch.Args, error) {
	var args dispatch.Args
	for i := 0; i < len(words); i++ {
		w := words[i]
		switch w {
		case "--":
			if i+1 >= len(words) {
				return args, fmt.Errorf("exec needs a command after --")
			}
			args.Command = words[i+1:]
			return args, nil
		case "-c", "--container":
			v, ni, err := flagValue(words, i)
			if err != nil {
				return args, err
			}
			args.Container, i = v, ni
		case "-i", "--stdin":
			args.Stdin = stdin
		case "-t", "--tty":
			args.TTY = true
		default:
			if isFlag(w) {
				return args, fmt.Errorf("unknown flag %q", w)
			}
			if args.Selector != "" {
				return args, fmt.Errorf("unexpected argument %q", w)
			}
			args.Selector = w
		}
	}
	return args, fmt.Errorf("exec needs a command after --")
}

func flagValue(words []string, i int) (string, int, error) {
	if i+1 >= len(words) {
		return "", i, fmt.Errorf("flag %s needs a value", words[i])
	}
	return words[i+1], i + 1, nil
}

func isFlag(w string) bool {
	return len(w) > 1 && w[0] == '-' && w != "--"
}
