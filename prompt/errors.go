package prompt

// UserInputError reports a request the user has to correct before anything is
// sent upstream. Its message is shown to the user as is.
type UserInputError struct {
	Message string
}

func (e *UserInputError) Error() string { return e.Message }

// ErrNoSelection is returned when a command is used without selected code.
var ErrNoSelection = &UserInputError{Message: "Please select some code first."}
