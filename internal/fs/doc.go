// Package fs abstracts the local file system so that scratch space and
// output handling can be tested with injected faults.
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("nodes", fs.Fault{FailAfterBytes: 1024})
//
// Operations take no context: local file system calls are short and not
// interruptible. Remote storage goes through blobstore instead.
package fs
