// Package query provides lexing and parsing for the CommitKV query language.
//
// A query is one keyword followed by one of three shapes:
//
//	insert {"name": "Alice"} into user_1     -- IntoExpression
//	update {"name": "Bob"} into user_1
//	get user_1                               -- SingleExpression
//	delete user_1
//	list
//	insert user alice password = "s3cret" permission = "read"   -- MonadicExpression
//	update user alice permission = "admin"
//	delete user alice
//	delete database                          -- current database
//	delete database archive
//
// Keywords are case-insensitive. Values are JSON: objects, arrays, strings
// (double-quoted with JSON escapes, or single-quoted raw), numbers, true,
// false and null. Argument lists may be wrapped in parentheses and may
// separate arguments with commas.
//
// # Parser Usage
//
//	node, err := query.Parse(`insert {"a": 1} into k`)
//	if err != nil {
//	    var syntaxErr *query.SyntaxError
//	    errors.As(err, &syntaxErr)
//	}
//
// Parse only checks syntax. Whether a keyword makes sense with a shape (for
// example "get user bob") is decided by the executor in package db.
package query
