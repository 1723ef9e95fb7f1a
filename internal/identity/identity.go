package identity

import (
	"crypto/md5" //nolint:gosec // MD5 used for cache key generation, not security
	"encoding/hex"
)

// Identify returns the identifier of filename inside folderPath: the
// hex-encoded MD5 digest of folderPath + "/" + filename. The root folder is
// the empty string, so root files hash "/name".
func Identify(folderPath, filename string) string {
	sum := md5.Sum([]byte(folderPath + "/" + filename)) //nolint:gosec // MD5 used for cache key generation, not security
	return hex.EncodeToString(sum[:])
}

// FolderID returns the catalog identifier of a folder.
func FolderID(folderPath string) string {
	return "f:" + folderPath
}
