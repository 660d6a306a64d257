package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/remindd/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeEdit   Type = "edit"
	TypeDone   Type = "done"
	TypeUndo   Type = "undo"
	TypeSnooze Type = "snooze"
	TypeDelete Type = "delete"
	TypeTest   Type = "test"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// TaskArgs carries the fields of add and edit. When is resolved by the
// handler with ParseWhen so relative times use the clock at execution.
type TaskArgs struct {
	ID     int64
	Name   string
	When   string
	Repeat model.Repeat
}

type TargetArgs struct {
	ID int64
}

type SnoozeArgs struct {
	ID      int64
	Minutes int
}

type Command struct {
	Type   Type
	Raw    string
	Task   *TaskArgs
	Target *TargetArgs
	Snooze *SnoozeArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	rest := strings.TrimSpace(strings.TrimPrefix(raw, parts[0]))
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, rest)
	case TypeEdit:
		return parseEdit(input, args, rest)
	case TypeDone, TypeUndo, TypeDelete:
		return parseTarget(input, Type(head), args)
	case TypeSnooze:
		return parseSnooze(input, args)
	case TypeTest:
		return Command{Type: TypeTest, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw, rest string) (Command, error) {
	task, err := parseTaskArgs("add", rest)
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeAdd, Raw: raw, Task: &task}, nil
}

func parseEdit(raw string, args []string, rest string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("edit requires an id")
	}
	id, err := parseID(args[0])
	if err != nil {
		return Command{}, err
	}
	task, err := parseTaskArgs("edit", strings.TrimSpace(strings.TrimPrefix(rest, args[0])))
	if err != nil {
		return Command{}, err
	}
	task.ID = id
	return Command{Type: TypeEdit, Raw: raw, Task: &task}, nil
}

// parseTaskArgs reads "<name> @ <when> [repeat]". The last @ separates the
// name from the time so names may contain one.
func parseTaskArgs(verb, s string) (TaskArgs, error) {
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return TaskArgs{}, invalid("%s requires <name> @ <when>", verb)
	}
	name := strings.TrimSpace(s[:at])
	if name == "" {
		return TaskArgs{}, invalid("%s requires a name", verb)
	}
	fields := strings.Fields(s[at+1:])
	if len(fields) == 0 {
		return TaskArgs{}, invalid("%s requires a time after @", verb)
	}

	repeat := model.RepeatNever
	if len(fields) > 1 {
		if r, err := model.ParseRepeat(fields[len(fields)-1]); err == nil {
			repeat = r
			fields = fields[:len(fields)-1]
		}
	}
	return TaskArgs{Name: name, When: strings.Join(fields, " "), Repeat: repeat}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires exactly one id", typ)
	}
	id, err := parseID(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: typ, Raw: raw, Target: &TargetArgs{ID: id}}, nil
}

func parseSnooze(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, invalid("snooze requires an id and optional minutes")
	}
	id, err := parseID(args[0])
	if err != nil {
		return Command{}, err
	}
	minutes := model.DefaultSnoozeMinutes
	if len(args) == 2 {
		minutes, err = strconv.Atoi(strings.TrimSuffix(args[1], "m"))
		if err != nil || minutes <= 0 {
			return Command{}, invalid("snooze minutes must be a positive number, got %q", args[1])
		}
	}
	return Command{Type: TypeSnooze, Raw: raw, Snooze: &SnoozeArgs{ID: id, Minutes: minutes}}, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("invalid task id %q", s)
	}
	return id, nil
}
