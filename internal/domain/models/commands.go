package models

import "strings"

// CommandType enumerates the supervisor commands accepted over WhatsApp.
type CommandType string

const (
	CommandDeclare CommandType = "declare"
	CommandLoss    CommandType = "nc"
	CommandStats   CommandType = "stats"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command is a parsed supervisor instruction extracted from a message.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// IsSlashCommand reports whether message starts like an explicit command.
func IsSlashCommand(message string) bool {
	return strings.HasPrefix(strings.TrimSpace(message), "/")
}

// ParseCommand derives a Command from free-form text. Arguments keep their
// case since line and reference codes are case sensitive.
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.TrimSpace(message))
	if len(tokens) == 0 {
		return Command{Type: CommandUnknown, Raw: message}
	}

	cmd := Command{Raw: message}
	switch CommandType(strings.ToLower(strings.TrimPrefix(tokens[0], "/"))) {
	case CommandDeclare, "declaration", "decl":
		cmd.Type = CommandDeclare
	case CommandLoss, "loss", "5m":
		cmd.Type = CommandLoss
	case CommandStats:
		cmd.Type = CommandStats
	case CommandHelp, "aide":
		cmd.Type = CommandHelp
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
