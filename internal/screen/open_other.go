//go:build !windows

package screen

import (
	"fmt"

	"github.com/bryanchriswhite/surfacecap/internal/native"
)

func openBackend(opts Options) (native.Backend, []func() error, error) {
	switch opts.Backend {
	case "", "auto", "x11":
		return openX11(opts)
	default:
		return nil, nil, fmt.Errorf("backend %q is not available on this platform", opts.Backend)
	}
}
