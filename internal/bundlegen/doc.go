// Package bundlegen provides an HTTP client for the BundleGen web server.
//
// # Overview
//
// The server exposes a small JSON API next to its HTML generation page:
//
//	GET    /bundles         list bundles {bundles:[{name,date,command,size}]}
//	POST   /                multipart generation request
//	DELETE /bundle/{name}   remove a bundle
//	GET    /bundle/{name}   download a bundle
//	GET    /                HTML form (CSRF token, platform choices)
//
// Every request/response shape has an explicit Go type in types.go. Bodies that
// do not match their schema surface as *MalformedResponseError instead of a
// decode panic further up the stack.
//
// # Errors
//
// Three error types cover every failure the client reports:
//
//   - *TransportError: the request never produced a response
//   - *ServerError: a non-success response with a {message} body
//   - *MalformedResponseError: a body that could not be decoded
//
// Message(err) extracts the text a user should see. No request is retried.
//
// # Generation
//
// Generate fetches the form page first to pick up the CSRF token and session
// cookie, then posts the multipart body. Uploaded image files are streamed
// through an io.Pipe. Generation requests are never bounded by the client
// timeout; the server keeps the connection open until the bundle is built.
package bundlegen
