package scriptlang

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/mogaika/surgical_strike/strike"
	"github.com/mogaika/surgical_strike/utils"
)

const (
	TOKEN_WORD = iota
	TOKEN_NUMBER
	TOKEN_STRING
	TOKEN_BANG
	TOKEN_COLON
	TOKEN_NEWLINE
	TOKEN_COMMENT
)

var tokenNames = map[int]string{
	TOKEN_WORD:    "word",
	TOKEN_NUMBER:  "number",
	TOKEN_STRING:  "string",
	TOKEN_BANG:    "'!'",
	TOKEN_COLON:   "':'",
	TOKEN_NEWLINE: "end of statement",
	TOKEN_COMMENT: "comment",
}

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_]*`), getToken(TOKEN_WORD))
	lexer.Add([]byte(`[\+\-]?[0-9]*\.?[0-9]+([eE][\+\-]?[0-9]+)?`), getToken(TOKEN_NUMBER))
	lexer.Add([]byte(`"(\\.|[^"])*"`), getToken(TOKEN_STRING))
	lexer.Add([]byte(`!`), getToken(TOKEN_BANG))
	lexer.Add([]byte(`:`), getToken(TOKEN_COLON))
	lexer.Add([]byte(`(\n|\r|;)+`), getToken(TOKEN_NEWLINE))
	lexer.Add([]byte(`//[^\n]*`), getToken(TOKEN_COMMENT))
	lexer.Add([]byte(`#[^\n]*`), getToken(TOKEN_COMMENT))
	lexer.Add([]byte(`[ \t]+`), skip)
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

const (
	kwIncoming   = "incoming"
	kwCodeword   = "codeword"
	kwSet        = "set"
	kwManouver   = "manouver"
	kwRoll       = "roll"
	kwScale      = "scale"
	kwMark       = "mark"
	kwClear      = "clear"
	kwCamouflage = "camouflage"
	kwPayload    = "payload"
	kwDeliver    = "deliver"
)

var keywords = map[string]bool{
	kwIncoming: true, kwCodeword: true, kwSet: true,
	kwManouver: true, kwRoll: true, kwScale: true,
	kwMark: true, kwClear: true, kwDeliver: true,
	kwCamouflage: true, kwPayload: true,
	"maneuver": true,
}

func IsKeyword(word string) bool {
	return keywords[strings.ToLower(word)]
}

// Compile parses text and appends its statements to cw. Top-level statements
// go to strike.MainCodeword. Errors are *strike.Error of kind Structural.
func Compile(text []byte, cw *strike.Codewords) error {
	scanner, err := lexer.Scanner(text)
	if err != nil {
		return errors.Wrapf(err, "Failed to create lexer scanner")
	}

	p := &parser{cw: cw}
	statement := make([]*lexmachine.Token, 0, 8)
	for Itok, err, eos := scanner.Next(); !eos; Itok, err, eos = scanner.Next() {
		if err != nil {
			line := lineAt(text, scanner.TC)
			return strike.NewError(strike.Structural, line, "parse",
				errors.Wrapf(err, "Failed to parse token near '%s'", utils.DumpToOneLineString(near(text, scanner.TC))))
		}
		tok := Itok.(*lexmachine.Token)

		switch tok.Type {
		case TOKEN_COMMENT:
		case TOKEN_NEWLINE:
			if err := p.statement(statement); err != nil {
				return err
			}
			statement = statement[:0]
		default:
			statement = append(statement, tok)
		}
	}
	if err := p.statement(statement); err != nil {
		return err
	}

	return cw.Finish()
}

func near(text []byte, tc int) []byte {
	if tc > len(text) {
		tc = len(text)
	}
	end := tc + 16
	if end > len(text) {
		end = len(text)
	}
	return text[tc:end]
}

func lineAt(text []byte, tc int) int {
	if tc > len(text) {
		tc = len(text)
	}
	return bytes.Count(text[:tc], []byte{'\n'}) + 1
}

type parser struct {
	cw   *strike.Codewords
	toks []*lexmachine.Token
	line int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return strike.NewError(strike.Structural, p.line, "parse", errors.Errorf(format, args...))
}

func (p *parser) expect(i int, tokenType int) (*lexmachine.Token, error) {
	if i >= len(p.toks) {
		return nil, p.errorf("Expected %s after %q", tokenNames[tokenType], string(p.toks[i-1].Lexeme))
	}
	if p.toks[i].Type != tokenType {
		return nil, p.errorf("Expected %s, got %q", tokenNames[tokenType], string(p.toks[i].Lexeme))
	}
	return p.toks[i], nil
}

// end checks there is nothing left after token i-1, except an optional '!'.
func (p *parser) end(i int) error {
	if i < len(p.toks) && p.toks[i].Type == TOKEN_BANG {
		i++
	}
	if i < len(p.toks) {
		return p.errorf("Unexpected %q", string(p.toks[i].Lexeme))
	}
	return nil
}

func (p *parser) number(i int) (float64, error) {
	tok, err := p.expect(i, TOKEN_NUMBER)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(string(tok.Lexeme), 64)
	if err != nil {
		return 0, p.errorf("Unknown number format %q", string(tok.Lexeme))
	}
	return f, nil
}

func (p *parser) vector() (x, y, z float64, err error) {
	if x, err = p.number(1); err != nil {
		return
	}
	if y, err = p.number(2); err != nil {
		return
	}
	if z, err = p.number(3); err != nil {
		return
	}
	err = p.end(4)
	return
}

func (p *parser) file() (string, error) {
	tok, err := p.expect(1, TOKEN_STRING)
	if err != nil {
		return "", err
	}
	s, err := strconv.Unquote(string(tok.Lexeme))
	if err != nil {
		return "", p.errorf("Unknown string format %q", string(tok.Lexeme))
	}
	return s, p.end(2)
}

func (p *parser) add(c strike.Command) {
	p.cw.Append(c.At(p.line))
}

func (p *parser) statement(toks []*lexmachine.Token) error {
	if len(toks) == 0 {
		return nil
	}
	p.toks = toks
	p.line = toks[0].StartLine

	if toks[0].Type != TOKEN_WORD {
		return p.errorf("Expected command, got %q", string(toks[0].Lexeme))
	}
	word := string(toks[0].Lexeme)

	switch strings.ToLower(word) {
	case kwIncoming:
		if err := p.end(1); err != nil {
			return err
		}
		p.add(strike.NewIncoming())
	case kwCodeword:
		name, err := p.expect(1, TOKEN_WORD)
		if err != nil {
			return err
		}
		if IsKeyword(string(name.Lexeme)) {
			return p.errorf("Codeword name %q is a reserved word", string(name.Lexeme))
		}
		i := 2
		if i < len(toks) && toks[i].Type == TOKEN_COLON {
			i++
		}
		if err := p.end(i); err != nil {
			return err
		}
		return p.cw.Begin(string(name.Lexeme), p.line)
	case kwSet:
		if err := p.end(1); err != nil {
			return err
		}
		return p.cw.End(p.line)
	case kwManouver, "maneuver":
		x, y, z, err := p.vector()
		if err != nil {
			return err
		}
		p.add(strike.NewManouver(x, y, z))
	case kwRoll:
		x, y, z, err := p.vector()
		if err != nil {
			return err
		}
		p.add(strike.NewRoll(x, y, z))
	case kwScale:
		x, y, z, err := p.vector()
		if err != nil {
			return err
		}
		p.add(strike.NewScale(x, y, z))
	case kwMark:
		if err := p.end(1); err != nil {
			return err
		}
		p.add(strike.NewMark())
	case kwClear:
		if err := p.end(1); err != nil {
			return err
		}
		p.add(strike.NewClear())
	case kwDeliver:
		if err := p.end(1); err != nil {
			return err
		}
		p.add(strike.NewDeliver())
	case kwCamouflage:
		file, err := p.file()
		if err != nil {
			return err
		}
		p.add(strike.NewCamouflage(file))
	case kwPayload:
		file, err := p.file()
		if err != nil {
			return err
		}
		p.add(strike.NewPayload(file))
	default:
		times := 1
		i := 1
		if i < len(toks) && toks[i].Type == TOKEN_NUMBER {
			n, err := strconv.Atoi(string(toks[i].Lexeme))
			if err != nil || n < 0 {
				return p.errorf("Invalid repeat count %q for codeword %q", string(toks[i].Lexeme), word)
			}
			times = n
			i++
		}
		if err := p.end(i); err != nil {
			return err
		}
		p.add(strike.NewCodewordExecution(word, times))
	}
	return nil
}
