// Package fs defines the filesystem provider boundary for the organizer.
//
// The organizer never touches the operating system directly. Every read and
// write flows through the Provider interface, which a host embeds with its
// own implementation (a sandboxed VFS, a remote agent, a test double).
//
// Core Types:
//   - Provider: The full filesystem contract (list, stat, move, mkdir, search, read, roots)
//   - Entry: Typed directory entry (file or directory)
//   - FileInfo: File metadata snapshot
//
// Error Matching:
//
//	info, err := provider.Stat(ctx, path)
//	if fs.IsNotFound(err) {
//	    // root path missing is fatal for an operation
//	}
package fs
