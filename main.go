package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/camundactl/camundactl/cmd"
)

func main() {
	root, err := cmd.NewRootCmd()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if err := root.Execute(); err != nil {
		// Cobra is configured to not print errors. Ensure users still get a message.
		if traceback, _ := root.PersistentFlags().GetBool("traceback"); traceback {
			printTraceback(err)
		} else if msg := err.Error(); msg != "" {
			_, _ = fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}

// printTraceback prints the error chain outermost first, one layer per line.
func printTraceback(err error) {
	for depth := 0; err != nil; depth++ {
		_, _ = fmt.Fprintf(os.Stderr, "%*s%T: %v\n", depth*2, "", err, err)
		err = errors.Unwrap(err)
	}
}
