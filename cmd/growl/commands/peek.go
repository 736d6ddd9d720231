package commands

import "strings"

// Invocation is what can be read from the arguments before hooks are loaded.
type Invocation struct {
	Source  string
	Deploy  string
	Verbose bool
}

// valueFlags are the built-in flags that consume the following argument.
// Hook flags taking a value must be written as --name=value.
var valueFlags = map[string]bool{
	"--port":          true,
	"--rebuild-every": true,
}

// Peek finds the positional source and deploy directories and the verbose flag.
func Peek(args []string) Invocation {
	var inv Invocation
	var positionals []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			positionals = append(positionals, args[i+1:]...)
			i = len(args)
		case a == "-v" || a == "--verbose":
			inv.Verbose = true
		case strings.HasPrefix(a, "-"):
			if valueFlags[a] {
				i++
			}
		default:
			positionals = append(positionals, a)
		}
	}
	if len(positionals) > 0 {
		inv.Source = positionals[0]
	}
	if len(positionals) > 1 {
		inv.Deploy = positionals[1]
	}
	return inv
}
