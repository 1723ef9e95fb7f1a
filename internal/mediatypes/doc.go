// Package mediatypes provides the classification vocabulary shared by the
// ingestion packages.
//
// It imports nothing from the module so media, ingest and database can all
// share it.
//
// # Categories
//
// Every cataloged file is either an image or a binary:
//
//	mediatypes.CategoryImage  // png, jpeg, gif or bmp under MaxImageSize
//	mediatypes.CategoryBinary // everything else, oversized images included
//
// Use CategoryFor with the detected MIME type and the file size:
//
//	category := mediatypes.CategoryFor("image/png", info.Size())
//
// # MIME Types
//
// MimeFromExtension is the fallback used when content sniffing finds nothing:
//
//	mime, ok := mediatypes.MimeFromExtension(filepath.Ext(name))
//	if !ok {
//	    mime = mediatypes.DefaultMimeType
//	}
package mediatypes
