package backend

import (
	"fmt"
	"strings"

	"github.com/tast-lang/tast/pkg/errors"
)

func newNotFoundError(name string, available []string) error {
	msg := "no backend detected project directory"
	if name != "" {
		msg = fmt.Sprintf("no backend registered with name %q", name)
	}
	if len(available) > 0 {
		msg = fmt.Sprintf("%s (available: %s)", msg, strings.Join(available, ", "))
	}
	return errors.NewBackendError(name, errors.BackendProjectNotDetected, msg, nil)
}
