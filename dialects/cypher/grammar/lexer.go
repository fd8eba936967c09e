package cyphergrammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// CypherLexer tokenizes Cypher statements. Keywords are lexed as Ident and
// matched case-insensitively by the parser. Numbers carry no sign; unary
// minus is handled by the expression grammar so "x-1" lexes as a subtraction.
var CypherLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`, Action: nil},
		{Name: "LineComment", Pattern: `//[^\r\n]*`, Action: nil},

		// Multi-character operators first
		{Name: "RegexMatch", Pattern: `=~`},
		{Name: "NotEqual", Pattern: `<>`},
		{Name: "LessEqual", Pattern: `<=`},
		{Name: "GreaterEqual", Pattern: `>=`},
		{Name: "AddAssign", Pattern: `\+=`},
		{Name: "Range", Pattern: `\.\.`},

		{Name: "Eq", Pattern: `=`},
		{Name: "Less", Pattern: `<`},
		{Name: "Greater", Pattern: `>`},
		{Name: "Plus", Pattern: `\+`},
		{Name: "Minus", Pattern: `-`},
		{Name: "Star", Pattern: `\*`},
		{Name: "Slash", Pattern: `/`},
		{Name: "Percent", Pattern: `%`},
		{Name: "Caret", Pattern: `\^`},
		{Name: "Dot", Pattern: `\.`},
		{Name: "Comma", Pattern: `,`},
		{Name: "Semicolon", Pattern: `;`},
		{Name: "Colon", Pattern: `:`},
		{Name: "Pipe", Pattern: `\|`},
		{Name: "Dollar", Pattern: `\$`},
		{Name: "LParen", Pattern: `\(`},
		{Name: "RParen", Pattern: `\)`},
		{Name: "LBrace", Pattern: `\{`},
		{Name: "RBrace", Pattern: `\}`},
		{Name: "LBracket", Pattern: `\[`},
		{Name: "RBracket", Pattern: `\]`},

		{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`},
		{Name: "EscapedIdent", Pattern: "`(?:[^`]|``)+`"},

		// A float needs digits on both sides of the dot so 1..3 stays a range.
		{Name: "Float", Pattern: `\d+\.\d+(?:[eE][+-]?\d+)?|\d+[eE][+-]?\d+`},
		{Name: "HexInt", Pattern: `0[xX][0-9a-fA-F]+`},
		{Name: "Int", Pattern: `\d+`},

		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	},
})
