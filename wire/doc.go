// Package wire defines the uniform result model shared by the query
// executor and the protocol layer.
//
// Every request produces exactly one Response. Failures are first built as
// an *Error and rendered with Error.Response, so a client only ever decodes
// one shape:
//
//	{"body": null, "header": {"is_error": true, "messages": ["not found"], "status": "NotFound"}}
//
// Status values travel as their names.
package wire
