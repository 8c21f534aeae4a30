// Package transfer talks to the photo backend and the storage provider.
//
// The Client interface covers the three remote steps of one upload attempt
// (initiate, raw PUT to the presigned URL, confirm) plus the photo fetch
// used to feed the local photo cache. The HTTP implementation adds the
// bearer token to backend calls and reports upload progress through a
// counting reader. Failures surface as *Error values carrying the step that
// failed and a human-readable message for the queue item.
package transfer
