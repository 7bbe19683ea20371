// Package repl implements the interactive command loop: a prompt showing
// the current cluster and namespace, navigation commands that mutate the
// cursor, and action verbs handed to the dispatcher.
//
// Commands run one at a time. An interrupt while a command is in flight
// cancels that command only; the loop itself keeps running until exit or
// end of input.
package repl
