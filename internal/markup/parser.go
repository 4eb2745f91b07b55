// Package markup tokenizes story text into literal runs, paragraph breaks
// and {{key}} / {{key:suffix}} markers.
package markup

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ppiankov/ifhere/internal/model"
)

// TokenKind classifies parser output
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenParagraph
	TokenMarker
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "text"
	case TokenParagraph:
		return "paragraph"
	case TokenMarker:
		return "marker"
	default:
		return "unknown"
	}
}

// Token is one element of the parsed stream
type Token struct {
	Kind   TokenKind
	Text   string // literal text, or the raw marker including delimiters
	Key    string
	Suffix string
	Offset int // byte offset in the source text
}

// Reserved reports whether the marker uses the source or image prefix
func (t Token) Reserved() bool {
	return t.Kind == TokenMarker && model.IsReservedKey(t.Key)
}

// markupLexer splits text on marker delimiters and blank lines. Every byte
// matches some rule, so lexing itself never fails.
var markupLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Open", Pattern: `\{\{`},
	{Name: "Close", Pattern: `\}\}`},
	{Name: "Break", Pattern: `\r?\n[ \t]*\r?\n\s*`},
	{Name: "Text", Pattern: `[^{}\r\n]+|[{}\r\n]`},
})

var (
	symOpen  = markupLexer.Symbols()["Open"]
	symClose = markupLexer.Symbols()["Close"]
	symBreak = markupLexer.Symbols()["Break"]
)

// Parse tokenizes text. Adjacent literal lexemes are merged so the stream
// alternates between text runs and markers exactly as in the source.
func Parse(text string) ([]Token, error) {
	lex, err := markupLexer.LexString("", text)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}

	var (
		tokens  []Token
		literal strings.Builder
		litAt   int
		inside  bool
		body    strings.Builder
		openAt  int
	)

	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenText, Text: literal.String(), Offset: litAt})
			literal.Reset()
		}
	}

	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("lex: %w", err)
		}
		if tok.EOF() {
			break
		}
		offset := tok.Pos.Offset

		switch {
		case tok.Type == symOpen:
			if inside {
				return nil, malformed(text, openAt, "nested marker")
			}
			flush()
			inside = true
			openAt = offset
			body.Reset()

		case tok.Type == symClose:
			if !inside {
				return nil, malformed(text, offset, "unmatched }}")
			}
			inside = false
			marker, err := parseMarker(body.String())
			if err != nil {
				return nil, malformed(text, openAt, err.Error())
			}
			marker.Offset = openAt
			marker.Text = text[openAt : offset+len(tok.Value)]
			tokens = append(tokens, marker)

		case tok.Type == symBreak:
			if inside {
				return nil, malformed(text, openAt, "paragraph break inside marker")
			}
			flush()
			tokens = append(tokens, Token{Kind: TokenParagraph, Offset: offset})

		default:
			if inside {
				body.WriteString(tok.Value)
				continue
			}
			if literal.Len() == 0 {
				litAt = offset
			}
			literal.WriteString(tok.Value)
		}
	}

	if inside {
		return nil, malformed(text, openAt, "unmatched {{")
	}
	flush()

	return tokens, nil
}

// parseMarker splits "key" or "key:suffix"
func parseMarker(body string) (Token, error) {
	key, suffix, hasSuffix := strings.Cut(body, ":")
	if !model.ValidKey(key) {
		return Token{}, fmt.Errorf("invalid marker key %q", key)
	}
	if hasSuffix && !model.ValidKey(suffix) {
		return Token{}, fmt.Errorf("invalid marker suffix %q", suffix)
	}
	if model.IsReservedKey(key) && !hasSuffix {
		return Token{}, fmt.Errorf("%s marker needs an id", key)
	}
	return Token{Kind: TokenMarker, Key: key, Suffix: suffix}, nil
}

// CheckKeys verifies that every non-reserved marker is defined
func CheckKeys(tokens []Token, markers map[string]model.MarkerDefinition) error {
	for _, tok := range tokens {
		if tok.Kind != TokenMarker || tok.Reserved() {
			continue
		}
		if _, ok := markers[tok.Key]; !ok {
			return &model.MarkerError{Kind: model.ErrUnknownMarkerKey, Key: tok.Key, Snippet: tok.Text}
		}
	}
	return nil
}

// Keys returns the distinct marker keys in order of first appearance
func Keys(tokens []Token) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, tok := range tokens {
		if tok.Kind != TokenMarker || seen[tok.Key] {
			continue
		}
		seen[tok.Key] = true
		keys = append(keys, tok.Key)
	}
	return keys
}

// malformed builds a MalformedDocument error with up to 40 bytes of context
func malformed(text string, at int, reason string) error {
	end := at + 40
	if end > len(text) {
		end = len(text)
	}
	return &model.MarkerError{
		Kind:    model.ErrMalformedDocument,
		Snippet: fmt.Sprintf("%s at offset %d: %q", reason, at, text[at:end]),
	}
}
