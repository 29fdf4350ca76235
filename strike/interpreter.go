package strike

import (
	"log"

	"github.com/mogaika/surgical_strike/arsenal"
	"github.com/mogaika/surgical_strike/engine"
	"github.com/mogaika/surgical_strike/transform"
)

const DefaultMaxDepth = 256

// Interpreter is the state every command executes against. One interpreter
// runs one script once.
type Interpreter struct {
	engine    engine.Engine
	arsenal   *arsenal.Arsenal
	codewords *Codewords
	stack     transform.Stack

	theater    engine.Node
	payload    engine.Model
	camouflage engine.Texture

	delivered int
	depth     int

	// MaxDepth bounds nested codeword executions, 0 means unbounded.
	MaxDepth int
	Debug    bool
	// Trace is called before each command runs.
	Trace func(c *Command, depth int)
}

func NewInterpreter(e engine.Engine, a *arsenal.Arsenal, cw *Codewords) *Interpreter {
	return &Interpreter{
		engine:    e,
		arsenal:   a,
		codewords: cw,
		MaxDepth:  DefaultMaxDepth,
	}
}

func (in *Interpreter) SetRotationUnit(unit transform.AngleUnit) {
	in.stack.RotationUnit = unit
}

// Run executes MainCodeword once. The script must have called incoming!.
func (in *Interpreter) Run() error {
	main := NewCodewordExecution(MainCodeword, 1)
	if err := main.Execute(in); err != nil {
		return err
	}
	if in.theater == nil {
		return errorf(Structural, 0, "", "script never calls incoming!")
	}
	return nil
}

// Theater is the scene root, nil before incoming!.
func (in *Interpreter) Theater() engine.Node {
	return in.theater
}

func (in *Interpreter) Payload() engine.Model {
	return in.payload
}

func (in *Interpreter) Camouflage() engine.Texture {
	return in.camouflage
}

// Frame returns a copy of the current transform frame.
func (in *Interpreter) Frame() (transform.Frame, bool) {
	if f := in.stack.Current(); f != nil {
		return *f, true
	}
	return transform.Frame{}, false
}

func (in *Interpreter) StackDepth() int {
	return in.stack.Depth()
}

func (in *Interpreter) Delivered() int {
	return in.delivered
}

func (in *Interpreter) debugf(format string, args ...interface{}) {
	if in.Debug {
		log.Printf("[strike] "+format, args...)
	}
}
