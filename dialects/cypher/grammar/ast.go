package cyphergrammar

import "github.com/alecthomas/participle/v2/lexer"

// Statement is the root of a parsed Cypher statement.
type Statement struct {
	Pos    lexer.Position
	Query  *SingleQuery   `@@`
	Unions []*UnionClause `@@*`
	Semi   bool           `@Semicolon?`
}

// UnionClause is UNION [ALL] followed by another query.
type UnionClause struct {
	Pos   lexer.Position
	All   bool         `"UNION" @"ALL"?`
	Query *SingleQuery `@@`
}

// SubQuery is the body of EXISTS, COLLECT and COUNT subqueries.
type SubQuery struct {
	Pos    lexer.Position
	Query  *SingleQuery   `@@`
	Unions []*UnionClause `@@*`
}

// SingleQuery is a sequence of clauses.
type SingleQuery struct {
	Pos     lexer.Position
	Clauses []*Clause `@@+`
}

// Clause is any clause of a query.
type Clause struct {
	Pos    lexer.Position
	Match  *MatchClause  `  @@`
	Unwind *UnwindClause `| @@`
	Call   *CallClause   `| @@`
	Create *CreateClause `| @@`
	Merge  *MergeClause  `| @@`
	Delete *DeleteClause `| @@`
	Set    *SetClause    `| @@`
	Remove *RemoveClause `| @@`
	With   *WithClause   `| @@`
	Return *ReturnClause `| @@`
}

// MatchClause is [OPTIONAL] MATCH pattern [WHERE expr].
type MatchClause struct {
	Pos      lexer.Position
	Optional bool     `@"OPTIONAL"?`
	Pattern  *Pattern `"MATCH" @@`
	Where    *Where   `@@?`
}

// UnwindClause is UNWIND expr AS name.
type UnwindClause struct {
	Pos    lexer.Position
	Expr   *Expression `"UNWIND" @@`
	Symbol string      `"AS" @( Ident | EscapedIdent )`
}

// CallClause is CALL procedure(args) [YIELD items].
type CallClause struct {
	Pos       lexer.Position
	Procedure *InvocationName `"CALL" @@`
	Args      *ParenExprList  `@@?`
	Yield     []*YieldItem    `( "YIELD" @@ ( Comma @@ )* )?`
}

// YieldItem is a yielded column with an optional alias.
type YieldItem struct {
	Pos    lexer.Position
	Source string `( @Ident "AS" )?`
	Target string `@Ident`
}

// CreateClause is CREATE pattern.
type CreateClause struct {
	Pos     lexer.Position
	Pattern *Pattern `"CREATE" @@`
}

// MergeClause is MERGE with optional ON MATCH / ON CREATE actions.
type MergeClause struct {
	Pos     lexer.Position
	Pattern *PatternPart   `"MERGE" @@`
	Actions []*MergeAction `@@*`
}

// MergeAction is ON MATCH SET or ON CREATE SET.
type MergeAction struct {
	Pos      lexer.Position
	OnMatch  bool       `"ON" ( @"MATCH"`
	OnCreate bool       `     | @"CREATE" )`
	Set      *SetClause `@@`
}

// DeleteClause is [DETACH] DELETE exprs.
type DeleteClause struct {
	Pos    lexer.Position
	Detach bool          `@"DETACH"?`
	Exprs  []*Expression `"DELETE" @@ ( Comma @@ )*`
}

// SetClause is SET items.
type SetClause struct {
	Pos   lexer.Position
	Items []*SetItem `"SET" @@ ( Comma @@ )*`
}

// SetItem is one of n:Label, n.prop = expr, n = expr or n += expr.
type SetItem struct {
	Pos      lexer.Position
	Label    *LabelItem   `  @@`
	Property *PropertySet `| @@`
	Variable *VariableSet `| @@`
}

// LabelItem is variable:Label:Label.
type LabelItem struct {
	Pos      lexer.Position
	Variable string      `@( Ident | EscapedIdent )`
	Labels   *NodeLabels `@@`
}

// PropertySet is n.prop = expr.
type PropertySet struct {
	Pos      lexer.Position
	Property *PropertyExpr `@@`
	Expr     *Expression   `Eq @@`
}

// VariableSet is n = expr or n += expr.
type VariableSet struct {
	Pos      lexer.Position
	Variable string      `@( Ident | EscapedIdent )`
	Merge    bool        `( @AddAssign | Eq )`
	Expr     *Expression `@@`
}

// RemoveClause is REMOVE items.
type RemoveClause struct {
	Pos   lexer.Position
	Items []*RemoveItem `"REMOVE" @@ ( Comma @@ )*`
}

// RemoveItem removes labels or a property.
type RemoveItem struct {
	Pos      lexer.Position
	Label    *LabelItem    `  @@`
	Property *PropertyExpr `| @@`
}

// WithClause is WITH projection [WHERE expr].
type WithClause struct {
	Pos   lexer.Position
	Body  *ProjectionBody `"WITH" @@`
	Where *Where          `@@?`
}

// ReturnClause is RETURN projection.
type ReturnClause struct {
	Pos  lexer.Position
	Body *ProjectionBody `"RETURN" @@`
}

// ProjectionBody is shared by WITH and RETURN.
type ProjectionBody struct {
	Pos      lexer.Position
	Distinct bool              `@"DISTINCT"?`
	Star     bool              `( @Star`
	Items    []*ProjectionItem `| @@ ( Comma @@ )* )`
	Order    *OrderBy          `@@?`
	Skip     *Expression       `( "SKIP" @@ )?`
	Limit    *Expression       `( "LIMIT" @@ )?`
}

// ProjectionItem is expr [AS alias].
type ProjectionItem struct {
	Pos   lexer.Position
	Expr  *Expression `@@`
	Alias string      `( "AS" @( Ident | EscapedIdent ) )?`
}

// OrderBy is ORDER BY items.
type OrderBy struct {
	Pos   lexer.Position
	Items []*OrderItem `"ORDER" "BY" @@ ( Comma @@ )*`
}

// OrderItem is expr [ASC|DESC].
type OrderItem struct {
	Pos  lexer.Position
	Expr *Expression `@@`
	Desc bool        `( @( "DESC" | "DESCENDING" ) | "ASC" | "ASCENDING" )?`
}

// Where is WHERE expr.
type Where struct {
	Pos  lexer.Position
	Expr *Expression `"WHERE" @@`
}

// Pattern is a comma separated list of pattern parts.
type Pattern struct {
	Pos   lexer.Position
	Parts []*PatternPart `@@ ( Comma @@ )*`
}

// PatternPart is [path =] element.
type PatternPart struct {
	Pos     lexer.Position
	Var     string          `( @Ident Eq )?`
	Element *PatternElement `@@`
}

// PatternElement is a node followed by relationship chains.
type PatternElement struct {
	Pos   lexer.Position
	Node  *NodePattern        `@@`
	Chain []*PatternElemChain `@@*`
}

// PatternElemChain is a relationship followed by a node.
type PatternElemChain struct {
	Pos  lexer.Position
	Rel  *RelationshipPattern `@@`
	Node *NodePattern         `@@`
}

// NodePattern is (variable:Labels {props}).
type NodePattern struct {
	Pos        lexer.Position
	Variable   string      `LParen @( Ident | EscapedIdent )?`
	Labels     *NodeLabels `@@?`
	Properties *Properties `@@? RParen`
}

// NodeLabels is :A:B, plain or backtick quoted.
type NodeLabels struct {
	Pos    lexer.Position
	Labels []string `( Colon @( Ident | EscapedIdent ) )+`
}

// Properties is a map literal or a parameter.
type Properties struct {
	Pos   lexer.Position
	Map   *MapLiteral `  @@`
	Param *Parameter  `| @@`
}

// RelationshipPattern is -[...]->, <-[...]- or -[...]-.
type RelationshipPattern struct {
	Pos        lexer.Position
	LeftArrow  bool                `@Less? Minus`
	Detail     *RelationshipDetail `( LBracket @@? RBracket )?`
	RightArrow bool                `Minus @Greater?`
}

// RelationshipDetail is the bracketed part of a relationship.
type RelationshipDetail struct {
	Pos        lexer.Position
	Variable   string      `@( Ident | EscapedIdent )?`
	Types      []string    `( Colon @( Ident | EscapedIdent ) ( Pipe Colon? @( Ident | EscapedIdent ) )* )?`
	Range      *RangeSpec  `@@?`
	Properties *Properties `@@?`
}

// RangeSpec is *min..max on variable length relationships.
type RangeSpec struct {
	Pos   lexer.Position
	Star  bool `@Star`
	Min   *int `@Int?`
	Range bool `@Range?`
	Max   *int `@Int?`
}

// Expression precedence, lowest first: OR, XOR, AND, NOT, comparison,
// additive, multiplicative, power, unary, postfix, atom.

// Expression is an OR chain.
type Expression struct {
	Pos   lexer.Position
	Left  *XorExpr   `@@`
	Right []*XorExpr `( "OR" @@ )*`
}

// XorExpr is an XOR chain.
type XorExpr struct {
	Pos   lexer.Position
	Left  *AndExpr   `@@`
	Right []*AndExpr `( "XOR" @@ )*`
}

// AndExpr is an AND chain.
type AndExpr struct {
	Pos   lexer.Position
	Left  *NotExpr   `@@`
	Right []*NotExpr `( "AND" @@ )*`
}

// NotExpr is an optionally negated comparison.
type NotExpr struct {
	Pos  lexer.Position
	Not  bool            `@"NOT"?`
	Expr *ComparisonExpr `@@`
}

// ComparisonExpr is a possibly chained comparison (a <= b <= c).
type ComparisonExpr struct {
	Pos   lexer.Position
	Left  *AddSubExpr       `@@`
	Right []*ComparisonTerm `@@*`
}

// ComparisonTerm is an operator and its right operand.
type ComparisonTerm struct {
	Pos  lexer.Position
	Op   string      `@( RegexMatch | NotEqual | LessEqual | GreaterEqual | Eq | Less | Greater )`
	Expr *AddSubExpr `@@`
}

// AddSubExpr handles + and -.
type AddSubExpr struct {
	Pos   lexer.Position
	Left  *MultDivExpr  `@@`
	Right []*AddSubTerm `@@*`
}

// AddSubTerm is a + or - operand.
type AddSubTerm struct {
	Pos  lexer.Position
	Op   string       `@( Plus | Minus )`
	Expr *MultDivExpr `@@`
}

// MultDivExpr handles *, / and %.
type MultDivExpr struct {
	Pos   lexer.Position
	Left  *PowerExpr     `@@`
	Right []*MultDivTerm `@@*`
}

// MultDivTerm is a *, / or % operand.
type MultDivTerm struct {
	Pos  lexer.Position
	Op   string     `@( Star | Slash | Percent )`
	Expr *PowerExpr `@@`
}

// PowerExpr handles ^.
type PowerExpr struct {
	Pos   lexer.Position
	Left  *UnaryExpr   `@@`
	Right []*UnaryExpr `( Caret @@ )*`
}

// UnaryExpr handles unary + and -.
type UnaryExpr struct {
	Pos  lexer.Position
	Op   string       `@( Plus | Minus )?`
	Expr *PostfixExpr `@@`
}

// PostfixExpr is an atom with property access, indexing and predicates.
type PostfixExpr struct {
	Pos      lexer.Position
	Atom     *Atom            `@@`
	Suffixes []*PostfixSuffix `@@*`
}

// PostfixSuffix is one suffix of a PostfixExpr.
type PostfixSuffix struct {
	Pos        lexer.Position
	Property   string            `  Dot @( Ident | EscapedIdent )`
	Index      *IndexSuffix      `| @@`
	Labels     *NodeLabels       `| @@`
	IsNull     *IsNullSuffix     `| @@`
	In         *AddSubExpr       `| "IN" @@`
	StringPred *StringPredSuffix `| @@`
}

// IndexSuffix is [expr] or [start..end].
type IndexSuffix struct {
	Pos   lexer.Position
	Start *Expression `LBracket @@?`
	Range bool        `@Range?`
	End   *Expression `@@? RBracket`
}

// IsNullSuffix is IS [NOT] NULL.
type IsNullSuffix struct {
	Pos  lexer.Position
	Not  bool `"IS" @"NOT"?`
	Null bool `@"NULL"`
}

// StringPredSuffix is STARTS WITH, ENDS WITH or CONTAINS.
type StringPredSuffix struct {
	Pos        lexer.Position
	StartsWith *AddSubExpr `  "STARTS" "WITH" @@`
	EndsWith   *AddSubExpr `| "ENDS" "WITH" @@`
	Contains   *AddSubExpr `| "CONTAINS" @@`
}

// Atom is the innermost expression. Alternatives sharing a first token are
// ordered so the longer form is tried first.
type Atom struct {
	Pos               lexer.Position
	ListComprehension *ListComprehension `  @@`
	Parameter         *Parameter         `| @@`
	Case              *CaseExpression    `| @@`
	CountAll          bool               `| @( "COUNT" LParen Star RParen )`
	Subquery          *Subquery          `| @@`
	Quantifier        *Quantifier        `| @@`
	Parenthesized     *Expression        `| LParen @@ RParen`
	FunctionCall      *FunctionCall      `| @@`
	Literal           *Literal           `| @@`
	Variable          string             `| @( Ident | EscapedIdent )`
}

// Literal is a constant.
type Literal struct {
	Pos    lexer.Position
	Null   bool          `  @"NULL"`
	True   bool          `| @"TRUE"`
	False  bool          `| @"FALSE"`
	Float  *float64      `| @Float`
	HexInt *string       `| @HexInt`
	Int    *int64        `| @Int`
	String *string       `| @String`
	List   []*Expression `| LBracket ( @@ ( Comma @@ )* )? RBracket`
	Map    *MapLiteral   `| @@`
}

// MapLiteral is {key: value, ...}.
type MapLiteral struct {
	Pos   lexer.Position
	Pairs []*MapPair `LBrace ( @@ ( Comma @@ )* )? RBrace`
}

// MapPair is key: value.
type MapPair struct {
	Pos   lexer.Position
	Key   string      `@( Ident | EscapedIdent ) Colon`
	Value *Expression `@@`
}

// Parameter is $name or $0.
type Parameter struct {
	Pos  lexer.Position
	Name string `Dollar ( @Ident | @Int )`
}

// ListComprehension is [x IN list WHERE cond | expr].
type ListComprehension struct {
	Pos      lexer.Position
	Variable string      `LBracket @Ident "IN"`
	Source   *Expression `@@`
	Where    *Where      `@@?`
	Mapping  *Expression `( Pipe @@ )? RBracket`
}

// Subquery is EXISTS { ... }, COLLECT { ... } or COUNT { ... }.
type Subquery struct {
	Pos     lexer.Position
	Kind    string    `@( "EXISTS" | "COLLECT" | "COUNT" ) LBrace`
	Query   *SubQuery `( @@`
	Pattern *Pattern  `| @@ ) RBrace`
}

// Quantifier is ALL/ANY/NONE/SINGLE(x IN list WHERE cond).
type Quantifier struct {
	Pos      lexer.Position
	Type     string      `@( "ALL" | "ANY" | "NONE" | "SINGLE" )`
	Variable string      `LParen @Ident "IN"`
	Source   *Expression `@@`
	Where    *Where      `@@? RParen`
}

// CaseExpression is CASE [expr] WHEN ... THEN ... [ELSE ...] END.
type CaseExpression struct {
	Pos   lexer.Position
	Input *Expression `"CASE" ( (?! "WHEN" ) @@ )?`
	Whens []*CaseWhen `@@+`
	Else  *Expression `( "ELSE" @@ )?`
	End   bool        `@"END"`
}

// CaseWhen is WHEN cond THEN result.
type CaseWhen struct {
	Pos  lexer.Position
	When *Expression `"WHEN" @@`
	Then *Expression `"THEN" @@`
}

// FunctionCall is name([DISTINCT] args). The lookahead keeps property
// chains such as u.address.city from being read as a call.
type FunctionCall struct {
	Pos      lexer.Position
	Name     *InvocationName `@@ (?= LParen )`
	Distinct bool            `LParen @"DISTINCT"?`
	Args     []*Expression   `( @@ ( Comma @@ )* )? RParen`
}

// InvocationName is a possibly namespaced name such as apoc.text.join.
type InvocationName struct {
	Pos   lexer.Position
	Parts []string `@Ident ( Dot @Ident )*`
}

// ParenExprList is (expr, ...).
type ParenExprList struct {
	Pos   lexer.Position
	Exprs []*Expression `LParen ( @@ ( Comma @@ )* )? RParen`
}

// PropertyExpr is a.b[.c...].
type PropertyExpr struct {
	Pos   lexer.Position
	Base  string   `@( Ident | EscapedIdent )`
	Props []string `( Dot @( Ident | EscapedIdent ) )+`
}
