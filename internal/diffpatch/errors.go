package diffpatch

import "fmt"

func errPathNotFound(seg string) error      { return fmt.Errorf("path segment not found: %q", seg) }
func errBadIndex(seg string) error          { return fmt.Errorf("invalid array index: %q", seg) }
func errCannotNavigate(seg string) error    { return fmt.Errorf("cannot navigate into scalar at %q", seg) }
func errUnsupportedOp(op string) error      { return fmt.Errorf("unsupported patch op: %q", op) }
func errUnsupportedRootOp(op string) error  { return fmt.Errorf("unsupported root patch op: %q", op) }
