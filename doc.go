// Package fileit provides the storage, conversion and indexing core of the
// FileIt document-management backend.
//
// FileIt keeps books in a single object-store bucket: each book has an XML
// descriptor and a set of page images, and a JSON master index (the BookList)
// maps book names to descriptor paths.
//
// # Key Components
//
//   - Service: combines object storage, the BookList index and a document converter
//   - ObjectStorage: interface for bucket-scoped object operations (GCS, S3, filesystem)
//   - Converter: interface turning Word and PDF uploads into per-page JPEG images
//   - URLSigner / URLVerifier: RSA-SHA256 time-limited signed URLs
//   - Authenticator: bcrypt credential checks against a CredentialStore
//
// # Example Usage
//
//	service, err := fileit.NewService(storage, converter, fileit.ServiceConfig{
//	    IndexObject: fileit.DefaultIndexObject,
//	    Signer:      signer,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Look up a book and return its XML descriptor as JSON
//	tree, err := service.BookTree(ctx, "Physics")
//
//	// Convert an uploaded PDF into page images
//	result, err := service.UploadContent(ctx, fileit.Upload{
//	    Book:        "Physics",
//	    ContentType: fileit.ContentTypePDF,
//	    Body:        file,
//	})
//
// See the http package for the REST API and the gcs, s3 and filesystem
// packages for storage backends.
package fileit
