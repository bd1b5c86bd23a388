package upload

import "strings"

var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".tgs":  "application/x-tgsticker",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".json": "application/json",
	".zip":  "application/zip",
}

const defaultMIME = "application/octet-stream"

// mimeTypeFor derives a MIME type from a filename's extension using an
// explicit table, per §4.I.3, falling back to a generic binary type for
// anything not listed.
func mimeTypeFor(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return defaultMIME
	}
	ext := strings.ToLower(filename[idx:])
	if mt, ok := extToMIME[ext]; ok {
		return mt
	}
	return defaultMIME
}
