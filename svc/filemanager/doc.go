// Package filemanager implements the file and folder use cases of the
// application on top of the record store, the object store and the upload
// security validator.
//
// A file record points at an object through its object path
// ("/objects/<key>"). Uploads either go straight through the service
// (Upload) or are sent by the client to a presigned URL first and then
// registered with CreateFile, which re-checks the stored object.
//
// Usage:
//
//	svc := filemanager.New(queries, store, validator,
//		filemanager.WithLogger(log),
//		filemanager.WithRecorder(m),
//	)
//
//	ticket, err := svc.RequestUploadURL(ctx, filemanager.UploadRequest{
//		FileName:    "report.pdf",
//		FileSize:    1024,
//		ContentType: "application/pdf",
//	})
package filemanager
