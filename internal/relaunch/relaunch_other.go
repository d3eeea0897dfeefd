//go:build !unix && !windows

package relaunch

import "errors"

func start(string, []string) error {
	return errors.ErrUnsupported
}
