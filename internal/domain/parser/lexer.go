package parser

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
)

// MaxInputLength bounds the accepted source size in bytes.
const MaxInputLength = 1 << 20

// CommandRule is an extension hook: given an unknown command name and
// its byte position, it produces the token to emit in its place.
type CommandRule func(name string, pos int) Token

// Lexer holds the state of the scanner.
type Lexer struct {
	input        string // Input string being scanned (NFC-normalized)
	position     int    // Current position in input (points to current char)
	readPosition int    // Current reading position (after current char)
	ch           rune   // Current char under examination

	extensions map[string]CommandRule
	// multiLetter makes bare letter runs scan as one identifier. It is
	// enabled when implicit multiplication is off, where "xy" names a
	// single variable rather than a product.
	multiLetter bool
	err         *matherr.MathError
}

// NewLexer creates a new Lexer instance. The input is normalized to
// NFC first so that combining forms and precomposed forms scan alike.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: norm.NFC.String(input)}
	l.readChar()
	return l
}

// NewLexerWithExtensions creates a Lexer that routes unknown commands
// through the given registry before failing.
func NewLexerWithExtensions(input string, rules map[string]CommandRule) *Lexer {
	l := NewLexer(input)
	l.extensions = rules
	return l
}

// Err returns the first scanning error, set once an ILLEGAL token has
// been produced.
func (l *Lexer) Err() *matherr.MathError {
	return l.err
}

// Tokenize scans the whole input and returns the token tape, excluding
// the trailing EOF token. multiLetter selects whole-run identifiers
// (used when implicit multiplication is disabled).
func Tokenize(input string, rules map[string]CommandRule, multiLetter bool) ([]Token, *matherr.MathError) {
	if len(input) > MaxInputLength {
		return nil, matherr.NewTokenization(0, "input exceeds maximum length of %d bytes", MaxInputLength)
	}
	l := NewLexerWithExtensions(input, rules)
	l.multiLetter = multiLetter
	var tape []Token
	for {
		tok := l.NextToken()
		if tok.Type == ILLEGAL {
			if l.err != nil {
				return nil, l.err
			}
			return nil, matherr.NewTokenization(tok.Pos, "unexpected character %q", tok.Literal)
		}
		if tok.Type == EOF {
			return tape, nil
		}
		tape = append(tape, tok)
	}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		var size int
		l.ch, size = utf8.DecodeRuneInString(l.input[l.readPosition:])
		if l.ch == utf8.RuneError && size == 1 {
			l.ch = '?'
		}
	}
	l.position = l.readPosition
	l.readPosition += utf8.RuneLen(l.ch)
	if l.ch == 0 {
		l.readPosition = len(l.input) + 1
	}
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// NextToken scans the input and returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.position}

	switch l.ch {
	case '+':
		tok = l.single(PLUS)
	case '-', '−':
		tok = l.single(MINUS)
	case '*':
		tok = l.single(ASTERISK)
	case '·', '⋅': // · ⋅
		tok = l.single(CDOT)
	case '×': // ×
		tok = l.single(TIMES)
	case '/', '÷':
		tok = l.single(SLASH)
	case '^':
		tok = l.single(CARET)
	case '_':
		tok = l.single(UNDERSCORE)
	case '=':
		tok = l.single(EQUALS)
		if l.ch == '=' { // accept == as the same comparison token
			l.readChar()
		}
	case '!':
		if l.peekChar() == '=' {
			tok = Token{Type: NE, Literal: "!=", Pos: l.position}
			l.readChar()
			l.readChar()
		} else {
			tok = l.single(EXCLAMATION)
		}
	case '<':
		if l.peekChar() == '=' {
			tok = Token{Type: LE, Literal: "<=", Pos: l.position}
			l.readChar()
			l.readChar()
		} else {
			tok = l.single(LT)
		}
	case '>':
		if l.peekChar() == '=' {
			tok = Token{Type: GE, Literal: ">=", Pos: l.position}
			l.readChar()
			l.readChar()
		} else {
			tok = l.single(GT)
		}
	case '≤':
		tok = l.single(LE)
	case '≥':
		tok = l.single(GE)
	case '≠':
		tok = l.single(NE)
	case '∈':
		tok = l.single(IN)
	case '∧':
		tok = l.single(AND)
	case '∨':
		tok = l.single(OR)
	case '⊕':
		tok = l.single(XOR)
	case '¬':
		tok = l.single(NOT)
	case '⇒':
		tok = l.single(IMPLIES)
	case '⇔':
		tok = l.single(IFF)
	case '→': // → reads as the "to" marker of limits
		tok = Token{Type: TEXT, Literal: "to", Pos: l.position}
		l.readChar()
	case '(':
		tok = l.single(LPAREN)
	case ')':
		tok = l.single(RPAREN)
	case '[':
		tok = l.single(LBRACKET)
	case ']':
		tok = l.single(RBRACKET)
	case '{':
		tok = l.single(LBRACE)
	case '}':
		tok = l.single(RBRACE)
	case '|':
		tok = l.single(BAR)
	case '‖': // ‖
		tok = l.single(DBLBAR)
	case ',':
		tok = l.single(COMMA)
	case '&':
		tok = l.single(AMPERSAND)
	case '∞':
		tok = Token{Type: IDENT, Literal: "infty", Pos: l.position}
		l.readChar()
	case 'π':
		tok = Token{Type: IDENT, Literal: "pi", Pos: l.position}
		l.readChar()
	case '\\':
		return l.readBackslash()
	case 0:
		tok.Type = EOF
	default:
		if isLetter(l.ch) {
			return l.readLetters()
		}
		if isDigit(l.ch) {
			return l.readNumber()
		}
		tok.Type = ILLEGAL
		tok.Literal = string(l.ch)
		l.err = matherr.NewTokenization(tok.Pos, "unexpected character %q", string(l.ch))
		l.readChar()
	}

	return tok
}

func (l *Lexer) single(t TokenType) Token {
	tok := Token{Type: t, Literal: string(l.ch), Pos: l.position}
	l.readChar()
	return tok
}

// skipWhitespace consumes any whitespace, including non-breaking and
// other Unicode spaces.
func (l *Lexer) skipWhitespace() {
	for unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

// sugarKeywords are plain-text markers that parse as single tokens
// instead of letter-by-letter identifiers.
var sugarKeywords = map[string]bool{
	"let": true, "otherwise": true, "to": true,
}

// readLetters handles bare letters. A run matching a sugar keyword
// becomes a TEXT token; otherwise identifiers are single letters
// (multi-letter names arise only through commands).
func (l *Lexer) readLetters() Token {
	start := l.position
	end := l.readPosition
	for end <= len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[end:])
		if size == 0 || !isLetter(r) {
			break
		}
		end += size
	}
	run := l.input[start:end]
	if sugarKeywords[run] {
		for l.position < end {
			l.readChar()
		}
		return Token{Type: TEXT, Literal: run, Pos: start}
	}
	if l.multiLetter {
		for l.position < end {
			l.readChar()
		}
		return Token{Type: IDENT, Literal: run, Pos: start}
	}
	tok := Token{Type: IDENT, Literal: string(l.ch), Pos: start}
	l.readChar()
	return tok
}

// readNumber scans decimal literals with an optional fraction part and
// an optional e/E exponent.
func (l *Lexer) readNumber() Token {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		// Consume the exponent only when it is well-formed; otherwise
		// the letter scans separately (Euler's constant).
		save := *l
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if isDigit(l.ch) {
			for isDigit(l.ch) {
				l.readChar()
			}
		} else {
			*l = save
		}
	}
	return Token{Type: NUMBER, Literal: l.input[start:l.position], Pos: start}
}

// spacingCommands are dropped entirely during scanning.
var spacingCommands = map[string]bool{
	"quad": true, "qquad": true,
}

// sizeCommands affect typesetting only; the delimiter that follows is
// kept and the directive itself is dropped.
var sizeCommands = map[string]bool{
	"left": true, "right": true, "big": true, "Big": true,
	"bigg": true, "Bigg": true,
}

func (l *Lexer) readBackslash() Token {
	pos := l.position
	next := l.peekChar()

	// Single-character escapes.
	switch next {
	case '\\':
		l.readChar()
		l.readChar()
		return Token{Type: ROWSEP, Literal: `\\`, Pos: pos}
	case '|':
		l.readChar()
		l.readChar()
		return Token{Type: DBLBAR, Literal: `\|`, Pos: pos}
	case '{':
		l.readChar()
		l.readChar()
		return Token{Type: LBRACE, Literal: `\{`, Pos: pos}
	case '}':
		l.readChar()
		l.readChar()
		return Token{Type: RBRACE, Literal: `\}`, Pos: pos}
	case ',', ';', ':', '!', ' ':
		l.readChar()
		l.readChar()
		return l.NextToken() // spacing, dropped
	case 0:
		l.err = matherr.NewTokenization(pos, "lone backslash at end of input")
		return Token{Type: ILLEGAL, Literal: `\`, Pos: pos}
	}

	if !isLetter(next) {
		l.err = matherr.NewTokenization(pos, "unexpected character %q after backslash", string(next))
		return Token{Type: ILLEGAL, Literal: string(next), Pos: pos}
	}

	l.readChar() // consume the backslash
	name := l.readCommandName()

	switch {
	case name == "begin" || name == "end":
		envName, ok := l.readBracedName()
		if !ok {
			l.err = matherr.NewTokenization(pos, `unterminated environment name after \%s`, name)
			return Token{Type: ILLEGAL, Literal: name, Pos: pos}
		}
		if name == "begin" {
			return Token{Type: BEGIN, Literal: envName, Pos: pos}
		}
		return Token{Type: END, Literal: envName, Pos: pos}
	case name == "text":
		content, ok := l.readBracedName()
		if !ok {
			l.err = matherr.NewTokenization(pos, `missing braced argument after \text`)
			return Token{Type: ILLEGAL, Literal: name, Pos: pos}
		}
		return Token{Type: TEXT, Literal: content, Pos: pos}
	case spacingCommands[name]:
		return l.NextToken()
	case sizeCommands[name]:
		return l.NextToken()
	case fontCommands[name]:
		inner, ok := l.readBracedName()
		if !ok {
			l.err = matherr.NewTokenization(pos, `missing braced identifier after \%s`, name)
			return Token{Type: ILLEGAL, Literal: name, Pos: pos}
		}
		return Token{Type: IDENT, Literal: name + ":" + inner, Pos: pos}
	}

	if op, ok := commandOperators[name]; ok {
		return Token{Type: op, Literal: name, Pos: pos}
	}
	if name == "to" || name == "rightarrow" {
		return Token{Type: TEXT, Literal: "to", Pos: pos}
	}
	if greekLetters[name] {
		return Token{Type: IDENT, Literal: name, Pos: pos}
	}
	if knownCommands[name] {
		return Token{Type: COMMAND, Literal: name, Pos: pos}
	}
	if l.extensions != nil {
		if rule, ok := l.extensions[name]; ok {
			return rule(name, pos)
		}
	}

	l.err = matherr.NewTokenization(pos, `unknown command \%s`, name)
	if s := matherr.Nearest(name, KnownCommandNames()); s != "" {
		l.err.WithSuggestion(`did you mean \` + s + "?")
	}
	return Token{Type: ILLEGAL, Literal: name, Pos: pos}
}

func (l *Lexer) readCommandName() string {
	start := l.position
	for isLetter(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readBracedName consumes "{name}" and returns name. Used for
// environment names, \text content and font-qualified identifiers.
func (l *Lexer) readBracedName() (string, bool) {
	l.skipWhitespace()
	if l.ch != '{' {
		return "", false
	}
	l.readChar()
	start := l.position
	for l.ch != '}' {
		if l.ch == 0 {
			return "", false
		}
		l.readChar()
	}
	name := l.input[start:l.position]
	l.readChar()
	return name, true
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
