package services

import (
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

// sanitizeFilename reduces a client-supplied name to a single path element.
// Both slash styles count as separators. An empty result means nothing usable
// was left.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}

func fileExtension(name string) string {
	return strings.ToLower(path.Ext(name))
}

func isFileExtensionAllowed(allowed []string, fileName string) bool {
	if len(allowed) == 0 {
		return true
	}

	fileExt := fileExtension(fileName)
	for _, ext := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "*" {
			return true
		}
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if normalized == fileExt {
			return true
		}
	}

	return false
}

func getMimeType(ext string) string {
	mimeTypes := map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".pdf":  "application/pdf",
		".txt":  "text/plain",
		".mp4":  "video/mp4",
		".mp3":  "audio/mpeg",
		".mov":  "video/quicktime",
		".avi":  "video/x-msvideo",
		".zip":  "application/zip",
		".rar":  "application/vnd.rar",
		".doc":  "application/msword",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".xls":  "application/vnd.ms-excel",
		".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		".ppt":  "application/vnd.ms-powerpoint",
		".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	}
	if mt, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// normalizeFolderPath maps "", "docs" and "/docs/" all to a rooted, cleaned
// path. Folders are labels only; nothing checks that they exist.
func normalizeFolderPath(folder string) string {
	folder = strings.TrimSpace(strings.ReplaceAll(folder, "\\", "/"))
	if folder == "" {
		return "/"
	}
	if !strings.HasPrefix(folder, "/") {
		folder = "/" + folder
	}
	return path.Clean(folder)
}

// newStorageName returns a collision-free blob name that keeps the extension
// when it is safe to put in a key.
func newStorageName(ext string) string {
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	if isSafeExtension(ext) {
		return name + ext
	}
	return name
}

func isSafeExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 16 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
