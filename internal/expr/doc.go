/*
Package expr implements the boolean expression language used by
conditional transitions.

The evaluator is total: any textual input produces a boolean. Malformed
expressions and unknown identifiers evaluate to false ("key not
present"), an empty expression evaluates to true ("no condition means
always pass").

Grammar, precedence low to high:

	orExpr   := andExpr ( "||" andExpr )*
	andExpr  := unary ( "&&" unary )*
	unary    := "!" unary | primary
	primary  := "(" orExpr ")" | comparison
	comparison := value ( ("=="|"!="|">="|"<="|">"|"<") value )?
	value    := number | string | identifier

Identifiers resolve against the runtime snapshot: "success", "failure",
"status", "iteration_count", the legacy dot-paths "build.success" and
"test.success", "output.<key>" reads, and bare OutputData keys.
*/
package expr
