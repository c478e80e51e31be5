// Package mmap maps dataset files read-only into memory.
//
// Leaf and batch files are read front to back exactly once per extract, so
// Open advises the kernel for sequential access. Callers must not touch
// Bytes() after Close().
//
//	m, err := mmap.Open("tree/1a/nodes.oxb")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix uses mmap(2) and madvise(2). Windows uses CreateFileMapping and
// skips the hint.
package mmap
