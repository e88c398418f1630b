// Package objectstore stores uploaded files in an S3 bucket and implements
// the addressing scheme that ties storage keys to application routes.
//
// Every object has a key (for example "uploads/5f1c...") and an object path,
// the route clients use to fetch it: "/objects/" followed by the key.
// NormalizeObjectPath turns any reference a client may hold (a signed S3
// URL, an object path or a bare key) into the canonical object path, and
// KeyFromObjectPath recovers the key.
//
// Uploads normally bypass the server: NewUploadTarget presigns a PUT to a
// fresh key and the client sends the file straight to S3. PresignPost
// produces an equivalent browser form policy with a size limit.
//
//	store, err := objectstore.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	target, err := store.NewUploadTarget(ctx, "image/png")
//	// client PUTs to target.UploadURL, then registers target.ObjectPath
//
// S3 errors are mapped to package errors such as ErrObjectNotFound and
// ErrAccessDenied.
package objectstore
