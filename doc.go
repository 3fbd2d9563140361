// Package CommitKV provides a Git-backed document key/value database.
//
// CommitKV stores every database as a Git repository, making every write a
// Git commit. This provides built-in version control, history tracking, and
// the ability to restore a database from a snapshot.
//
// # Quick Start
//
// Open an in-memory instance and run queries in a session:
//
//	instance, _ := CommitKV.Open(nil)
//	session := instance.Session("default", nil)
//
//	session.ExecuteQuery(`insert {"name": "Alice", "age": 30} into user1`)
//	session.ExecuteQuery(`update {"name": "Alice", "age": 31} into user1`)
//	resp, _ := session.ExecuteQuery("get user1")
//	fmt.Println(resp.Body)
//
// # Query Language
//
//   - insert <json> into <key>, update <json> into <key>
//   - get <key>, delete <key>, list
//   - insert user <name> password = '...' permission = 'read'
//   - update user <name> [password = '...'] [permission = '...']
//   - delete user <name>
//   - delete database [<name>]
//
// Permission levels are read, write, read_and_write and admin.
//
// # Packages
//
//   - query: lexer, parser and AST
//   - db: query executor
//   - op: storage interface, permission checks, shared handles
//   - ps: Git persistence layer
//   - wire: response and error model
//   - config: TOML/YAML configuration
package CommitKV
