// Package ps provides the persistence layer for CommitKV.
//
// Each database is a Git repository managed through go-git plumbing. A
// record is a JSON blob at data/<key>; user accounts live at users/<name>
// in the system repository. Every write is one commit, so the history of a
// database is its Git log.
//
// # Memory Persistence
//
// For testing or ephemeral databases:
//
//	persistence, err := ps.NewMemoryPersistence()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # File Persistence
//
//	persistence, err := ps.NewFilePersistence("/var/lib/commitkv/main")
//
// # Snapshots and Restore
//
// Snapshot tags a transaction and Recover rewinds to it. ExportArchive
// writes a file-backed repository as a .tar.gz, and Restore rebuilds a
// database directory from such an archive (local, http(s) or s3) or by
// cloning a git remote.
package ps
