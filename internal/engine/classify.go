package engine

import (
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"
)

// split classifies a trimmed snippet for evaluation. It returns the
// statements to run as a block (prefix) and the trailing expression whose
// value should be reported (expr). Exactly three shapes come back:
//
//	prefix=""  expr=src   the whole snippet is a single expression
//	prefix!="" expr!=""   statements followed by a final expression
//	prefix=src expr=""    a pure statement sequence (or unparsable source,
//	                      which the interpreter will then report)
func split(src string) (prefix, expr string) {
	if isExpr(src) {
		return "", src
	}
	start := lastStmtStart(src)
	tail := strings.TrimSpace(src[start:])
	if start > 0 && tail != "" && isExpr(tail) {
		return src[:start], tail
	}
	return src, ""
}

// leadingImportsEnd returns the byte offset just past the last import
// declaration at the head of src, or 0 if src does not start with one.
// The interpreter parses source beginning with "import" in declaration-only
// mode, so import declarations must be evaluated separately from the
// statements that follow them.
func leadingImportsEnd(src string) int {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	var s scanner.Scanner
	s.Init(file, []byte(src), nil, 0)

	depth := 0
	end := 0
	inImport := false
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if !inImport {
			if tok != token.IMPORT || depth != 0 {
				break
			}
			inImport = true
			continue
		}
		switch tok {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		case token.SEMICOLON:
			if depth == 0 {
				end = file.Offset(pos)
				if lit == ";" {
					end++
				}
				inImport = false
			}
		}
	}
	return end
}

// isExpr reports whether s parses as one complete Go expression.
func isExpr(s string) bool {
	_, err := parser.ParseExpr(s)
	return err == nil
}

// lastStmtStart returns the byte offset where the last top-level statement
// of src begins. Statements are delimited by semicolons (explicit or the
// scanner's automatic ones) at bracket depth zero; delimiters inside
// parentheses, brackets, or braces are part of the enclosing statement.
func lastStmtStart(src string) int {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	var s scanner.Scanner
	s.Init(file, []byte(src), nil, 0)

	depth := 0
	start := 0
	pending := false
	for {
		pos, tok, _ := s.Scan()
		if tok == token.EOF {
			break
		}
		if pending {
			start = file.Offset(pos)
			pending = false
		}
		switch tok {
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACK, token.RBRACE:
			depth--
		case token.SEMICOLON:
			if depth == 0 {
				pending = true
			}
		}
	}
	return start
}
