// Package cyphergrammar provides a parser for Cypher statements built with participle.
//
// The compiler in package cypher produces strings; this package reads them
// back. It is used to validate statements before they are sent to a server
// and to inspect their clause layout in tests.
//
// # Key Features
//
//   - Case-insensitive keyword matching
//   - Backtick quoted identifiers, unquoted in the AST
//   - EXISTS, COLLECT and COUNT subqueries
//   - A registry of built-in functions
//
// # Usage
//
//	ast, err := cyphergrammar.Parse("MATCH (u:User) RETURN u.name")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ast.Clauses()) // [MATCH RETURN]
//
// The grammar is based on the openCypher specification:
// https://github.com/opencypher/openCypher
package cyphergrammar
