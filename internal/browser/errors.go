// File: internal/browser/errors.go
package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
)

// ErrStaleElement marks a DevTools failure caused by the target node being
// detached from the document between location and interaction. Callers decide
// whether a stale reference is fatal; the select-last lookup path tolerates
// it, everything else surfaces it.
var ErrStaleElement = schemas.ErrStaleElement

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("browser session is closed")

// staleHints are the DevTools error message fragments that indicate a node
// reference went stale. The protocol has no dedicated error code for this.
var staleHints = []string{
	"could not find node",
	"no node with given id",
	"not belong to the document",
	"could not compute content quads",
	"node is detached",
}

// classify wraps DevTools errors whose message marks a stale node reference
// so callers can test with errors.Is(err, ErrStaleElement).
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range staleHints {
		if strings.Contains(msg, hint) {
			return fmt.Errorf("%w: %v", ErrStaleElement, err)
		}
	}
	return err
}

// IsStale reports whether err denotes a stale element reference.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleElement)
}
