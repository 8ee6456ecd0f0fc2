package model

import (
	"fmt"

	"github.com/caddyglow/glovebox/internal/xerrors"
)

func errLayoutf(format string, args ...interface{}) error {
	return xerrors.ErrLayoutInvalid.WithMessage(fmt.Sprintf(format, args...))
}
