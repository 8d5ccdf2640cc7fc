//go:build windows

package screen

import (
	"fmt"

	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/native/win32"
)

func openBackend(opts Options) (native.Backend, []func() error, error) {
	switch opts.Backend {
	case "", "auto", "win32":
		b, err := win32.New()
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil
	case "x11":
		return openX11(opts)
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}
