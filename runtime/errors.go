package runtime

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/sergev/sag/lang"
	"github.com/sergev/sag/parser"
)

// errorPos returns the position of an error raised directly by src. Errors
// wrapped by a module load refer to another file and carry no snippet.
func errorPos(err error) (parser.Position, bool) {
	switch e := err.(type) {
	case *parser.LexError:
		return e.Pos, true
	case *parser.ParseError:
		return e.Pos, true
	case *lang.RuntimeError:
		return e.Pos, e.Pos.Line > 0
	}
	return parser.Position{}, false
}

// FormatError renders err prefixed by name. When the error points into src,
// the offending line is shown with a caret under the column.
func FormatError(err error, name, src string) string {
	if name == "" {
		name = "<input>"
	}
	msg := name + ":" + err.Error()
	pos, ok := errorPos(err)
	if !ok {
		return name + ": " + err.Error()
	}
	lines := strings.Split(src, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return msg
	}
	line := strings.TrimRight(lines[pos.Line-1], "\r")

	var pad strings.Builder
	col := 1
	for _, r := range line {
		if col >= pos.Column {
			break
		}
		if r == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
		}
		col++
	}
	return fmt.Sprintf("%s\n    %s\n    %s^", msg, line, pad.String())
}
