/**
 * Geolocation and clipboard capabilities
 *
 * Thin system-service wrappers, injected so the workflow can run against
 * platform services, CLI substitutes, or test doubles.
 */

package workflow

import (
	"context"
	"fmt"
	"io"
)

// Position is a best-effort device location
type Position struct {
	Latitude  float64
	Longitude float64
}

// Locator resolves the current device position
type Locator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Clipboard writes text to the system clipboard
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// FixedLocator always reports one position. Used by the CLI when a location
// is supplied on the command line.
type FixedLocator struct {
	Pos Position
}

func (l FixedLocator) CurrentPosition(ctx context.Context) (Position, error) {
	return l.Pos, nil
}

// WriterClipboard writes clipboard text to an io.Writer. The CLI uses it to
// surface copy actions on stdout.
type WriterClipboard struct {
	Out io.Writer
}

func (c WriterClipboard) WriteText(ctx context.Context, text string) error {
	if c.Out == nil {
		return fmt.Errorf("clipboard writer is not configured")
	}
	_, err := fmt.Fprintln(c.Out, text)
	return err
}
