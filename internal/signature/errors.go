package signature

import "fmt"

// ArgError reports a command-line value that could not be bound. Param is nil for errors about
// the positional layout as a whole, such as missing or surplus arguments. Errors for options carry
// no prefix since the flag packages name the flag themselves.
type ArgError struct {
	Param *Param
	Err   error
}

func (e *ArgError) Error() string {
	if e.Param == nil || e.Param.Kind != Positional {
		return e.Err.Error()
	}
	return fmt.Sprintf("argument %s: %v", e.Param.Name, e.Err)
}

func (e *ArgError) Unwrap() error {
	return e.Err
}
