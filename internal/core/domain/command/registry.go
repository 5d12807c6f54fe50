package command

import (
	"errors"
	"maps"
	"membercard/internal/core/port"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type Registry struct {
	commands map[string]port.Command
}

func (r *Registry) Register(handler port.Command) {
	if r.commands == nil {
		r.commands = make(map[string]port.Command)
	}

	log.Info().Str("handler", handler.GetCommand()).Msg("adding command handler to registry")
	r.commands[handler.GetCommand()] = handler
}

func (r *Registry) Get(command string) (port.Command, error) {
	log.Debug().Interface("command", command).Msg("fetching command handler from registry")

	if r.commands == nil {
		err := errors.New("can't fetch command, registry not initialized")
		return nil, err
	}

	handler, ok := r.commands[command]
	if !ok {
		return nil, errors.New("command not found")
	}

	return handler, nil
}

func (r *Registry) ListCommands() []string {
	return slices.Sorted(maps.Keys(r.commands))
}

func ParseCommandArgs(args string) string {
	command := strings.Split(strings.TrimSpace(args), " ")
	return strings.TrimSpace(strings.Join(command[1:], " "))
}

// ParseCommand returns the lowercased first word, without the "@botname" suffix group chats add.
func ParseCommand(args string) string {
	command := strings.Split(strings.TrimSpace(args), " ")
	name, _, _ := strings.Cut(command[0], "@")
	return strings.ToLower(name)
}

// chatKey is the registration key for a chat.
func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
