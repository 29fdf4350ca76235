package scriptlang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mogaika/surgical_strike/strike"
)

// formatFloat never uses exponent notation.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderCommand returns the statement that compiles back to c.
func RenderCommand(c *strike.Command) string {
	switch c.Kind {
	case strike.Incoming:
		return kwIncoming + "!"
	case strike.Manouver, strike.Roll, strike.Scale:
		return fmt.Sprintf("%s %s %s %s", c.Kind, formatFloat(c.X), formatFloat(c.Y), formatFloat(c.Z))
	case strike.Camouflage, strike.Payload:
		return fmt.Sprintf("%s %q", c.Kind, c.File)
	case strike.CodewordExecution:
		if c.Times == 1 {
			return c.Codeword
		}
		return fmt.Sprintf("%s %d", c.Codeword, c.Times)
	default:
		return c.Kind.String()
	}
}

// RenderScriptLines renders named codewords first, then the top-level body.
func RenderScriptLines(cw *strike.Codewords) []string {
	result := make([]string, 0, 32)
	for _, name := range cw.Names() {
		if name == strike.MainCodeword {
			continue
		}
		commands, _ := cw.Lookup(name)
		result = append(result, kwCodeword+" "+name+":")
		for i := range commands {
			result = append(result, "\t"+RenderCommand(&commands[i]))
		}
		result = append(result, kwSet, "")
	}

	main, _ := cw.Lookup(strike.MainCodeword)
	for i := range main {
		result = append(result, RenderCommand(&main[i]))
	}
	return result
}

func RenderScript(cw *strike.Codewords) string {
	return strings.Join(RenderScriptLines(cw), "\n")
}
