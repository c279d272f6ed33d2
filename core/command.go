package core

import "errors"

var ErrUnknownCommand = errors.New("unknown command")

type unknownCommandError uint16

func (e unknownCommandError) Error() string {
	return "unknown command ID: " + itoa(int(e))
}

func (e unknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// CommandHandler decodes its own arguments from data and runs the command
type CommandHandler func(data *[]byte) error

// Command is one entry of the link's message table. Responses
// (instrument to UI) have no handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // e.g. "offset=%u count=%c"
	Handler CommandHandler
}

// Signature returns "name format", the key used in the UI descriptor
func (c *Command) Signature() string {
	if c.Format == "" {
		return c.Name
	}
	return c.Name + " " + c.Format
}

// CommandRegistry assigns message IDs in registration order. All
// registration happens before the link starts, so there is no locking.
type CommandRegistry struct {
	commands []Command
}

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{}
}

// Register adds a command and returns its ID. Registering a name twice
// returns the existing ID.
func (r *CommandRegistry) Register(name, format string, handler CommandHandler) uint16 {
	if id, ok := r.Lookup(name); ok {
		return id
	}
	id := uint16(len(r.commands))
	r.commands = append(r.commands, Command{ID: id, Name: name, Format: format, Handler: handler})
	return id
}

// RegisterResponse adds a message sent by the instrument
func (r *CommandRegistry) RegisterResponse(name, format string) uint16 {
	return r.Register(name, format, nil)
}

// Lookup finds an ID by name
func (r *CommandRegistry) Lookup(name string) (uint16, bool) {
	for i := range r.commands {
		if r.commands[i].Name == name {
			return r.commands[i].ID, true
		}
	}
	return 0, false
}

// GetCommand returns the command with the given ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return &r.commands[id], true
}

// Count returns the number of registered messages
func (r *CommandRegistry) Count() int {
	return len(r.commands)
}

// Dispatch runs the handler for id
func (r *CommandRegistry) Dispatch(id uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(id)
	if !ok || cmd.Handler == nil {
		return unknownCommandError(id)
	}
	return cmd.Handler(data)
}

// Commands calls fn for every message in ID order
func (r *CommandRegistry) Commands(fn func(c *Command)) {
	for i := range r.commands {
		fn(&r.commands[i])
	}
}
