package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add    func(TaskArgs) (Result, error)
	Edit   func(TaskArgs) (Result, error)
	Done   func(TargetArgs) (Result, error)
	Undo   func(TargetArgs) (Result, error)
	Snooze func(SnoozeArgs) (Result, error)
	Delete func(TargetArgs) (Result, error)
	Test   func() (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing("add")
		}
		return handlers.Add(*cmd.Task)
	case TypeEdit:
		if handlers.Edit == nil {
			return Result{}, missing("edit")
		}
		return handlers.Edit(*cmd.Task)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing("done")
		}
		return handlers.Done(*cmd.Target)
	case TypeUndo:
		if handlers.Undo == nil {
			return Result{}, missing("undo")
		}
		return handlers.Undo(*cmd.Target)
	case TypeSnooze:
		if handlers.Snooze == nil {
			return Result{}, missing("snooze")
		}
		return handlers.Snooze(*cmd.Snooze)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, missing("delete")
		}
		return handlers.Delete(*cmd.Target)
	case TypeTest:
		if handlers.Test == nil {
			return Result{}, missing("test")
		}
		return handlers.Test()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
