// Package http provides the FileIt REST API.
//
// Public routes:
//
//	GET  /healthz              liveness probe
//	GET  /sayHello             "Hello World"
//	GET  /getMasterJson        the BookList index, or {"Error":"No Book Present"}
//	POST /login                {"username","password"} credential check
//	GET  /signed/{bucket}/*    object bytes for a valid signed URL
//
// Routes behind HTTP Basic authentication:
//
//	GET    /books/{name}          book descriptor XML converted to JSON
//	PUT    /books/{name}          add or replace an index entry, body {"Path":"..."}
//	DELETE /books/{name}          remove an index entry
//	POST   /books/{name}/content  convert a PDF or DOCX to page images
//	GET    /objects?prefix=       list objects
//	GET    /objects/*             stream an object
//	PUT    /objects/*             store an object
//	DELETE /objects/*             remove an object
//	GET    /sign/*                time-limited signed URL for an object
//
// Errors are JSON documents of the form {"error": code, "message": text}.
// Sentinel errors from package fileit map onto status codes in HandleError.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Auth:     fileit.NewAuthenticator(store),
//	    Verifier: verifier, // nil disables /signed
//	    Bucket:   "1dvaultdata",
//	}, service)
//	srv := &stdhttp.Server{Addr: ":8080", Handler: handler.Router()}
package http
