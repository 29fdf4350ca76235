package strike

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/surgical_strike/utils"
)

type Kind int

const (
	Incoming Kind = iota
	Manouver
	Roll
	Scale
	Mark
	Clear
	Camouflage
	Payload
	Deliver
	CodewordExecution
)

var kindNames = [...]string{
	Incoming:          "incoming",
	Manouver:          "manouver",
	Roll:              "roll",
	Scale:             "scale",
	Mark:              "mark",
	Clear:             "clear",
	Camouflage:        "camouflage",
	Payload:           "payload",
	Deliver:           "deliver",
	CodewordExecution: "codeword execution",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Command is one step of a codeword. Operands are captured when the script is
// parsed and never change afterwards; which ones are meaningful depends on Kind.
type Command struct {
	Kind Kind

	// Manouver: X is the absolute radius, Y and Z are inclination and
	// azimuth deltas. Roll and Scale: per axis deltas.
	X, Y, Z float64

	// Camouflage and Payload.
	File string

	// CodewordExecution.
	Codeword string
	Times    int

	// Line is the script line the command was parsed from, 0 if unknown.
	Line int
}

func NewIncoming() Command { return Command{Kind: Incoming} }

func NewManouver(x, y, z float64) Command { return Command{Kind: Manouver, X: x, Y: y, Z: z} }
func NewRoll(x, y, z float64) Command     { return Command{Kind: Roll, X: x, Y: y, Z: z} }
func NewScale(x, y, z float64) Command    { return Command{Kind: Scale, X: x, Y: y, Z: z} }

func NewMark() Command    { return Command{Kind: Mark} }
func NewClear() Command   { return Command{Kind: Clear} }
func NewDeliver() Command { return Command{Kind: Deliver} }

func NewCamouflage(file string) Command { return Command{Kind: Camouflage, File: file} }
func NewPayload(file string) Command    { return Command{Kind: Payload, File: file} }

func NewCodewordExecution(codeword string, times int) Command {
	return Command{Kind: CodewordExecution, Codeword: codeword, Times: times}
}

// At returns a copy of c attributed to a script line.
func (c Command) At(line int) Command {
	c.Line = line
	return c
}

func (c *Command) String() string {
	switch c.Kind {
	case Manouver, Roll, Scale:
		return fmt.Sprintf("%v %v %v %v", c.Kind, c.X, c.Y, c.Z)
	case Camouflage, Payload:
		return fmt.Sprintf("%v %q", c.Kind, c.File)
	case CodewordExecution:
		return fmt.Sprintf("%s %d", c.Codeword, c.Times)
	default:
		return c.Kind.String()
	}
}

func (c *Command) Execute(in *Interpreter) error {
	if in.Trace != nil {
		in.Trace(c, in.depth)
	}

	switch c.Kind {
	case Incoming:
		return c.incoming(in)
	case Manouver, Roll, Scale:
		return c.move(in)
	case Mark:
		if err := c.requireTheater(in); err != nil {
			return err
		}
		in.stack.Mark()
		in.debugf("Executing mark, depth %d", in.stack.Depth())
		return nil
	case Clear:
		if err := c.requireTheater(in); err != nil {
			return err
		}
		if err := in.stack.Clear(); err != nil {
			return NewError(Structural, c.Line, c.Kind.String(), err)
		}
		if in.Debug {
			in.debugf("Executing clear, back to %s", utils.SDump(*in.stack.Current()))
		}
		return nil
	case Camouflage:
		return c.camouflage(in)
	case Payload:
		return c.payload(in)
	case Deliver:
		return c.deliver(in)
	case CodewordExecution:
		return c.execute(in)
	default:
		return errorf(Structural, c.Line, "", "unknown command kind %v", c.Kind)
	}
}

func (c *Command) requireTheater(in *Interpreter) error {
	if in.theater == nil {
		return errorf(Structural, c.Line, c.Kind.String(), "no incoming! before %v", c.Kind)
	}
	return nil
}

func (c *Command) incoming(in *Interpreter) error {
	if in.theater != nil || in.payload != nil || in.camouflage != nil || !in.stack.Empty() {
		return errorf(Structural, c.Line, c.Kind.String(), "incoming! executed twice")
	}
	in.debugf("Executing incoming!")

	in.theater = in.engine.NewGroup()
	in.stack.Init()
	in.codewords.open = MainCodeword
	return nil
}

func (c *Command) move(in *Interpreter) error {
	frame := in.stack.Current()
	if frame == nil {
		return errorf(Structural, c.Line, c.Kind.String(), "no incoming! before %v", c.Kind)
	}

	switch c.Kind {
	case Manouver:
		frame.Manouver(c.X, c.Y, c.Z)
		in.debugf("Executing manouver, position %v", frame.Position)
	case Roll:
		frame.Roll(c.X, c.Y, c.Z)
		in.debugf("Executing roll %v %v %v", c.X, c.Y, c.Z)
	case Scale:
		frame.Rescale(c.X, c.Y, c.Z)
		in.debugf("Executing scale %v %v %v", c.X, c.Y, c.Z)
	}
	return nil
}

func (c *Command) camouflage(in *Interpreter) error {
	if err := c.requireTheater(in); err != nil {
		return err
	}
	if c.File == "" {
		return errorf(Structural, c.Line, c.Kind.String(), "empty camouflage file name")
	}
	camouflage, err := in.arsenal.LoadCamouflage(c.File)
	if err != nil {
		return NewError(Resource, c.Line, c.Kind.String(), err)
	}
	in.camouflage = camouflage
	return nil
}

func (c *Command) payload(in *Interpreter) error {
	if err := c.requireTheater(in); err != nil {
		return err
	}
	if c.File == "" {
		return errorf(Structural, c.Line, c.Kind.String(), "empty payload file name")
	}
	payload, err := in.arsenal.LoadPayload(c.File)
	if err != nil {
		return NewError(Resource, c.Line, c.Kind.String(), err)
	}
	in.payload = payload
	return nil
}

func (c *Command) deliver(in *Interpreter) error {
	if err := c.requireTheater(in); err != nil {
		return err
	}
	if in.payload == nil {
		return errorf(Reference, c.Line, c.Kind.String(), "Cannot deliver, no payload")
	}
	in.debugf("Delivering payload")

	op := c.Kind.String()
	deliver, err := in.engine.Clone(in.payload)
	if err != nil {
		return NewError(Resource, c.Line, op, errors.Wrapf(err, "Failed to clone payload"))
	}
	if in.camouflage != nil {
		if err := in.engine.ApplyTexture(deliver, in.camouflage, 0); err != nil {
			return NewError(Resource, c.Line, op, errors.Wrapf(err, "Failed to apply camouflage"))
		}
	}

	target := in.engine.NewPlacementNode(in.stack.Placement(in.arsenal.Size(in.payload)))
	if err := in.engine.AttachChild(target, deliver); err != nil {
		return NewError(Resource, c.Line, op, errors.Wrapf(err, "Failed to attach payload"))
	}
	if err := in.engine.AttachChild(in.theater, target); err != nil {
		return NewError(Resource, c.Line, op, errors.Wrapf(err, "Failed to attach to theater"))
	}
	in.delivered++
	return nil
}

func (c *Command) execute(in *Interpreter) error {
	commands, ok := in.codewords.Lookup(c.Codeword)
	if !ok {
		return errorf(Reference, c.Line, c.Kind.String(), "Cannot execute codeword %q, no such codeword", c.Codeword)
	}
	if in.MaxDepth > 0 && in.depth >= in.MaxDepth {
		return errorf(Structural, c.Line, c.Kind.String(), "codeword %q exceeds maximum call depth %d", c.Codeword, in.MaxDepth)
	}
	in.debugf("Executing: %s %d time(s)", c.Codeword, c.Times)

	in.depth++
	defer func() { in.depth-- }()

	for i := 0; i < c.Times; i++ {
		for j := range commands {
			if err := commands[j].Execute(in); err != nil {
				return err
			}
		}
	}
	return nil
}
