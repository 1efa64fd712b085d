package command

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// TextDecoder reads the whitespace-delimited token grammar: a discriminant
// followed by exactly Arity argument tokens.
//
// Tokens that are not a known discriminant are logged and dropped, and the
// next token is tried as a discriminant. This resynchronizes after garbage
// but cannot recover an unknown command whose arguments happen to look like
// discriminants; use the binary codec where that matters.
type TextDecoder struct {
	sc       *bufio.Scanner
	skipped  int
	overlong bool
}

// maxTokenLen bounds a single token. Longer runs of non-space bytes are
// discarded up to the next whitespace and counted as skipped.
const maxTokenLen = 256

func NewTextDecoder(r io.Reader) *TextDecoder {
	d := &TextDecoder{sc: bufio.NewScanner(r)}
	d.sc.Split(d.split)
	return d
}

func (d *TextDecoder) split(data []byte, atEOF bool) (int, []byte, error) {
	if d.overlong {
		if len(data) == 0 && atEOF {
			d.dropOverlong()
		} else if r, _ := utf8.DecodeRune(data); len(data) > 0 && unicode.IsSpace(r) {
			d.dropOverlong()
		}
	}
	adv, tok, err := bufio.ScanWords(data, atEOF)
	if err != nil {
		return adv, tok, err
	}
	if tok != nil {
		if d.overlong || len(tok) > maxTokenLen {
			d.dropOverlong()
			return adv, nil, nil
		}
		return adv, tok, nil
	}
	// No complete token yet; adv is where the pending one starts.
	if len(data)-adv > maxTokenLen {
		d.overlong = true
		return len(data), nil, nil
	}
	return adv, nil, nil
}

func (d *TextDecoder) dropOverlong() {
	d.overlong = false
	d.skipped++
	log.Printf("[command] skipping token longer than %d bytes", maxTokenLen)
}

// Skipped reports how many tokens were dropped while looking for a
// discriminant.
func (d *TextDecoder) Skipped() int { return d.skipped }

func (d *TextDecoder) Decode() (Command, error) {
	for {
		tok, err := d.token()
		if err != nil {
			return Command{}, err
		}
		n, err := strconv.Atoi(tok)
		if err != nil || !Kind(n).Valid() {
			d.skipped++
			log.Printf("[command] skipping unexpected token %q", tok)
			continue
		}
		return d.args(Kind(n))
	}
}

func (d *TextDecoder) args(k Kind) (Command, error) {
	c := Command{Kind: k}
	for i := 0; i < k.Arity(); i++ {
		tok, err := d.argToken()
		if err != nil {
			return Command{}, err
		}
		if k != Move {
			code, err := strconv.Atoi(tok)
			if err != nil {
				return Command{}, &ProtocolError{Token: tok, Err: ErrMalformedCommand}
			}
			c.Code = code
			continue
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Command{}, &ProtocolError{Token: tok, Err: ErrMalformedCommand}
		}
		if i == 0 {
			c.DX = f
		} else {
			c.DY = f
		}
	}
	return c, nil
}

// argToken reads a token inside a command, where EOF means the stream was
// cut short.
func (d *TextDecoder) argToken() (string, error) {
	tok, err := d.token()
	if err == io.EOF {
		return "", io.ErrUnexpectedEOF
	}
	return tok, err
}

func (d *TextDecoder) token() (string, error) {
	if d.sc.Scan() {
		return d.sc.Text(), nil
	}
	if err := d.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// TextEncoder writes commands in the token grammar, one per line.
type TextEncoder struct {
	w io.Writer
}

func NewTextEncoder(w io.Writer) *TextEncoder {
	return &TextEncoder{w: w}
}

func (e *TextEncoder) Encode(c Command) error {
	var err error
	switch {
	case c.Kind == Move:
		_, err = fmt.Fprintf(e.w, "%d %s %s\n", c.Kind,
			strconv.FormatFloat(c.DX, 'g', -1, 64), strconv.FormatFloat(c.DY, 'g', -1, 64))
	case c.Kind.Valid():
		_, err = fmt.Fprintf(e.w, "%d %d\n", c.Kind, c.Code)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(c.Kind))
	}
	return err
}
