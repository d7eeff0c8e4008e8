package watch

import "strings"

// Command is an instruction typed at the interactive prompt.
type Command int

// Interactive commands.
const (
	CommandUnknown Command = iota
	CommandHelp
	CommandRebuild
	CommandFiles
	CommandExit
)

// Prompt is printed when makewatch is ready for another command.
const Prompt = "  ❯ "

// CommandNames lists the commands a user can enter, in help order.
func CommandNames() []string {
	return []string{"help", "rebuild", "files", "exit"}
}

// ParseCommand maps an input line to a Command.
func ParseCommand(line string) Command {
	switch strings.TrimSpace(line) {
	case "help":
		return CommandHelp
	case "rebuild":
		return CommandRebuild
	case "files":
		return CommandFiles
	case "exit":
		return CommandExit
	default:
		return CommandUnknown
	}
}

// String returns the command as typed.
func (c Command) String() string {
	switch c {
	case CommandHelp:
		return "help"
	case CommandRebuild:
		return "rebuild"
	case CommandFiles:
		return "files"
	case CommandExit:
		return "exit"
	default:
		return "unknown"
	}
}
