// Package vectorindex implements driven.VectorIndex over any
// driven.CollectionProvider.
//
// The index keeps a single collection handle. When a backend reports that
// the handle is no longer usable (collection dropped, connection closed)
// the index reconnects through the provider and retries the operation once.
package vectorindex
