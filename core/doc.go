// Package core provides core types used throughout CommitKV.
//
// The package defines fundamental types like Identity, User and the
// Permission levels that gate every query.
//
// # Identity
//
// Identity identifies the author of transactions (Git commit author):
//
//	identity := core.Identity{
//	    Name:  "John Doe",
//	    Email: "john@example.com",
//	}
//
// # Permissions
//
// Permission levels parse from their wire names, case-sensitively:
//   - Read: "read"
//   - Write: "write"
//   - ReadAndWrite: "read_and_write"
//   - Admin: "admin"
//
//	p, err := core.ParsePermission("read_and_write")
//	p.CanRead()  // true
//	p.IsAdmin()  // false
package core
