package kernel

import "github.com/pkg/errors"

var registered Kernel

// Register installs the process-wide vision kernel. Backend packages call
// this from their init so linking a backend is enough to wire the commands;
// the last registration wins.
func Register(k Kernel) {
	registered = k
}

// Registered returns the installed vision kernel.
func Registered() (Kernel, error) {
	if registered == nil {
		return nil, errors.New("no vision kernel registered; import a kernel backend")
	}
	return registered, nil
}
