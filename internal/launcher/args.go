package launcher

// Invocation is the launcher's view of its command line. Only the help,
// version and setup flags are intercepted; everything else, including flags
// the launcher does not know, is forwarded to the server untouched.
type Invocation struct {
	Help    bool
	Version bool
	Setup   bool
	// Forward holds the arguments for the server, verbatim and in order.
	Forward []string
}

// ParseArgs splits the launcher's arguments. A standalone "--" ends
// interception; it and everything after it are forwarded as-is.
func ParseArgs(args []string) Invocation {
	inv := Invocation{Forward: make([]string, 0, len(args))}
	for i, arg := range args {
		if arg == "--" {
			inv.Forward = append(inv.Forward, args[i:]...)
			break
		}
		switch arg {
		case "--help", "-h":
			inv.Help = true
		case "--version", "-v":
			inv.Version = true
		case "--setup":
			inv.Setup = true
		default:
			inv.Forward = append(inv.Forward, arg)
		}
	}
	return inv
}
