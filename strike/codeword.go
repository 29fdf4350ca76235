package strike

import (
	"github.com/pkg/errors"
)

// MainCodeword holds the top-level statements of a script.
const MainCodeword = "@main"

// Codewords maps codeword names to their commands. While a script is parsed
// exactly one codeword is open for appending; named codewords cannot nest.
type Codewords struct {
	bodies   map[string][]Command
	order    []string
	open     string
	openLine int
}

func NewCodewords() *Codewords {
	return &Codewords{
		bodies: map[string][]Command{MainCodeword: nil},
		order:  []string{MainCodeword},
		open:   MainCodeword,
	}
}

// Begin opens a named codeword. Opening an existing codeword appends to it.
func (cw *Codewords) Begin(name string, line int) error {
	if cw.open != MainCodeword {
		return errorf(Structural, line, "codeword", "codeword %q inside codeword %q opened at line %d", name, cw.open, cw.openLine)
	}
	if name == "" || name == MainCodeword {
		return errorf(Structural, line, "codeword", "invalid codeword name %q", name)
	}
	if _, ok := cw.bodies[name]; !ok {
		cw.bodies[name] = nil
		cw.order = append(cw.order, name)
	}
	cw.open = name
	cw.openLine = line
	return nil
}

// End closes the open named codeword and returns to MainCodeword.
func (cw *Codewords) End(line int) error {
	if cw.open == MainCodeword {
		return errorf(Structural, line, "set", "set without codeword")
	}
	cw.open = MainCodeword
	cw.openLine = 0
	return nil
}

func (cw *Codewords) Append(c Command) {
	cw.bodies[cw.open] = append(cw.bodies[cw.open], c)
}

// Finish checks that no named codeword is left open at the end of a script.
func (cw *Codewords) Finish() error {
	if cw.open != MainCodeword {
		return NewError(Structural, cw.openLine, "codeword", errors.Errorf("codeword %q is never set", cw.open))
	}
	return nil
}

func (cw *Codewords) Open() string {
	return cw.open
}

func (cw *Codewords) Lookup(name string) ([]Command, bool) {
	commands, ok := cw.bodies[name]
	return commands, ok
}

// Names returns codewords in the order they were first defined, MainCodeword first.
func (cw *Codewords) Names() []string {
	return append([]string(nil), cw.order...)
}
