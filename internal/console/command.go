package console

import "strings"

// CommandKind describes what the operator wants to do.
type CommandKind int

const (
	// CommandUnknown is any line that is not a recognised command.
	CommandUnknown CommandKind = iota
	// CommandList prints the active display names.
	CommandList
	// CommandStop stops the server and ends the process.
	CommandStop
	// CommandHelp prints the available commands.
	CommandHelp
	// CommandEmpty is a blank line.
	CommandEmpty
)

// Command represents one parsed console line.
type Command struct {
	Kind CommandKind
	Raw  string
}

// Parse maps a console line to a command. Matching is case-insensitive.
func Parse(line string) Command {
	raw := strings.TrimSpace(line)
	cmd := Command{Raw: raw}

	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		cmd.Kind = CommandEmpty
		return cmd
	}

	switch fields[0] {
	case "/list":
		cmd.Kind = CommandList
	case "/stop":
		cmd.Kind = CommandStop
	case "/help":
		cmd.Kind = CommandHelp
	default:
		cmd.Kind = CommandUnknown
	}
	return cmd
}
