package dtsi

import (
	"fmt"
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
)

// InputListenersNode renders a nested node per input listener and its
// processors (spec §4.3 item 6).
func InputListenersNode(listeners []model.InputListener) string {
	if len(listeners) == 0 {
		return ""
	}
	var b strings.Builder
	for _, l := range listeners {
		fmt.Fprintf(&b, "&%s {\n", identifier(l.Name))
		for _, n := range l.Nodes {
			code := n.Code
			if code == "" {
				code = "input_listener"
			}
			fmt.Fprintf(&b, "\t%s {\n", identifier(code))
			if len(n.Processors) > 0 {
				fmt.Fprintf(&b, "\t\tinput-processors = <%s>;\n", strings.Join(n.Processors, " "))
			}
			b.WriteString("\t};\n")
		}
		b.WriteString("};\n")
	}
	return b.String()
}
