package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/framereel/internal/viewstate"
	"github.com/Faultbox/framereel/pkg/math"
)

// Parse reads a whole script. It returns the commands of every valid line in
// textual order together with an ErrorList holding every line-level error,
// so a single bad line does not hide the rest of the script.
func Parse(r io.Reader) ([]Command, error) {
	p := &parser{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.line++
		p.parseLine(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	p.closeBlock()
	return p.cmds, p.errs.Err()
}

// ParseString parses a script held in memory.
func ParseString(src string) ([]Command, error) {
	return Parse(strings.NewReader(src))
}

// ParseFile parses the script at path.
func ParseFile(path string) ([]Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

type block struct {
	rng     Range
	line    int
	text    string
	actions int
	broken  bool // header failed to parse; continuation lines are checked but dropped
}

type parser struct {
	line  int
	cmds  []Command
	errs  ErrorList
	block *block

	// per-line state
	text string
	toks []token
	pos  int
}

// lineError rejects the current line. err, when set, is the sentinel the
// resulting SyntaxError unwraps to.
type lineError struct {
	msg string
	err error
}

func (e *lineError) Error() string {
	return e.msg
}

func errorf(format string, args ...any) error {
	return &lineError{msg: fmt.Sprintf(format, args...)}
}

func wrapf(err error, format string, args ...any) error {
	return &lineError{msg: fmt.Sprintf(format, args...), err: err}
}

func (p *parser) report(line int, text string, err error) {
	se := &SyntaxError{Line: line, Text: text, Msg: err.Error()}
	var le *lineError
	if errors.As(err, &le) {
		se.Err = le.err
	}
	p.errs = append(p.errs, se)
}

func (p *parser) closeBlock() {
	if b := p.block; b != nil && !b.broken && b.actions == 0 {
		p.report(b.line, b.text, errorf("header has no actions"))
	}
	p.block = nil
}

func (p *parser) parseLine(raw string) {
	text := strings.TrimSpace(raw)
	if text == "" || strings.HasPrefix(text, "#") {
		return
	}
	p.text = text

	toks, err := lex(text)
	if err != nil {
		p.report(p.line, text, errorf("%v", err))
		return
	}
	p.toks, p.pos = toks, 0

	if p.peek().kind == tokDash {
		err = p.parseContinuation()
	} else {
		p.closeBlock()
		err = p.parseHeader()
	}
	if err != nil {
		p.report(p.line, text, err)
	}
}

func (p *parser) parseContinuation() error {
	p.next()
	b := p.block
	if b == nil {
		return errorf("continuation line outside a From/At block")
	}
	act, err := p.parseAction()
	if err != nil {
		return err
	}
	if err := p.expectEOL(); err != nil {
		return err
	}
	b.actions++
	if !b.broken {
		p.cmds = append(p.cmds, Command{Line: p.line, Range: b.rng, Action: act})
	}
	return nil
}

func (p *parser) parseHeader() error {
	b := &block{line: p.line, text: p.text, broken: true}
	p.block = b

	rng, err := p.parseRange()
	if err != nil {
		return err
	}
	b.rng = rng
	b.broken = false

	if p.peek().kind == tokEOL {
		return nil
	}
	// A header with an inline action does not open a block.
	p.block = nil
	act, err := p.parseAction()
	if err != nil {
		return err
	}
	if err := p.expectEOL(); err != nil {
		return err
	}
	p.cmds = append(p.cmds, Command{Line: p.line, Range: rng, Action: act})
	return nil
}

func (p *parser) parseRange() (Range, error) {
	w := p.next()
	if w.kind != tokWord || (w.text != "at" && w.text != "from") {
		return Range{}, errorf("expected \"At frame\" or \"From frame\", got %s", w.describe())
	}
	if _, err := p.expectWord("frame"); err != nil {
		return Range{}, err
	}
	from, err := p.parseFrame()
	if err != nil {
		return Range{}, err
	}
	if w.text == "at" {
		return Range{From: from, To: from}, nil
	}

	if err := p.expectWords("to", "frame"); err != nil {
		return Range{}, err
	}
	to, err := p.parseFrame()
	if err != nil {
		return Range{}, err
	}
	if to < from {
		return Range{}, wrapf(viewstate.ErrInvalidParameter, "range ends at frame %d before it starts at frame %d", to, from)
	}
	return Range{From: from, To: to}, nil
}

func (p *parser) parseAction() (Action, error) {
	w := p.next()
	if w.kind != tokWord {
		return nil, errorf("expected an action, got %s", w.describe())
	}
	switch w.text {
	case "zoom":
		if err := p.expectWords("by", "a", "factor", "of"); err != nil {
			return nil, err
		}
		f, err := p.parseFloat()
		if err != nil {
			return nil, err
		}
		if !(f > 0) {
			return nil, wrapf(viewstate.ErrInvalidParameter, "zoom factor must be positive, got %v", f)
		}
		return Zoom{Factor: f}, nil

	case "translate":
		if _, err := p.expectWord("by"); err != nil {
			return nil, err
		}
		v, err := p.parseVec()
		if err != nil {
			return nil, err
		}
		return Translate{Vector: v}, nil

	case "rotate":
		if _, err := p.expectWord("by"); err != nil {
			return nil, err
		}
		deg, err := p.parseFloat()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectWord("degrees", "degree"); err != nil {
			return nil, err
		}
		if _, err := p.expectWord("around"); err != nil {
			return nil, err
		}
		axis, err := p.parseVec()
		if err != nil {
			return nil, err
		}
		if _, err := math.QuatFromAxisAngle(axis, deg); err != nil {
			return nil, wrapf(err, "rotation axis must be non-zero")
		}
		return Rotate{Degrees: deg, Axis: axis}, nil

	case "make":
		if _, err := p.expectWord("layer"); err != nil {
			return nil, err
		}
		layer, err := p.parseUint("layer index")
		if err != nil {
			return nil, err
		}
		v, err := p.expectWord("visible", "invisible")
		if err != nil {
			return nil, err
		}
		return SetLayerVisible{Layer: layer, Visible: v == "visible"}, nil

	case "shift":
		if err := p.expectWords("time", "by"); err != nil {
			return nil, err
		}
		d, err := p.parseInt("time shift")
		if err != nil {
			return nil, err
		}
		return ShiftTime{Delta: d}, nil
	}
	return nil, errorf("unknown action %q", w.text)
}

func (p *parser) parseVec() (r3.Vec, error) {
	var c [3]float64
	if _, err := p.expect(tokLParen); err != nil {
		return r3.Vec{}, err
	}
	for i := range c {
		if i > 0 {
			if _, err := p.expect(tokComma); err != nil {
				return r3.Vec{}, err
			}
		}
		v, err := p.parseFloat()
		if err != nil {
			return r3.Vec{}, err
		}
		c[i] = v
	}
	if _, err := p.expect(tokRParen); err != nil {
		return r3.Vec{}, err
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

func (p *parser) parseFrame() (int, error) {
	return p.parseUint("frame index")
}

func (p *parser) parseFloat() (float64, error) {
	t := p.next()
	if t.kind != tokNumber {
		return 0, errorf("expected a number, got %s", t.describe())
	}
	v, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, errorf("malformed number %q", t.text)
	}
	return v, nil
}

func (p *parser) parseInt(what string) (int, error) {
	t := p.next()
	if t.kind != tokNumber {
		return 0, errorf("expected an integer %s, got %s", what, t.describe())
	}
	v, err := strconv.Atoi(t.text)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return 0, wrapf(viewstate.ErrInvalidParameter, "%s %s out of range", what, t.text)
		}
		return 0, errorf("expected an integer %s, got %q", what, t.text)
	}
	return v, nil
}

func (p *parser) parseUint(what string) (int, error) {
	t := p.peek()
	v, err := p.parseInt(what)
	if err != nil {
		return 0, err
	}
	if v < 0 || strings.HasPrefix(t.text, "+") {
		return 0, errorf("expected a non-negative integer %s, got %q", what, t.text)
	}
	return v, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOL {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, errorf("expected %s, got %s", kind, t.describe())
	}
	return t, nil
}

// expectWord consumes a keyword matching one of words and returns it.
func (p *parser) expectWord(words ...string) (string, error) {
	t := p.next()
	if t.kind == tokWord {
		for _, w := range words {
			if t.text == w {
				return w, nil
			}
		}
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = strconv.Quote(w)
	}
	return "", errorf("expected %s, got %s", strings.Join(quoted, " or "), t.describe())
}

// expectWords consumes a fixed keyword phrase.
func (p *parser) expectWords(words ...string) error {
	for _, w := range words {
		if _, err := p.expectWord(w); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) expectEOL() error {
	if t := p.peek(); t.kind != tokEOL {
		return errorf("unexpected %s after action", t.describe())
	}
	return nil
}
