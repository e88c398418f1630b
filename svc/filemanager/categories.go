package filemanager

// CategoryAll matches every file type.
const CategoryAll = "All Files"

var categories = map[string][]string{
	"Documents": {
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	},
	"Images": {"image/jpeg", "image/png", "image/gif", "image/webp"},
	"Videos": {"video/mp4", "video/avi", "video/mov", "video/wmv"},
}

// CategoryMIMETypes returns the MIME types of a search category. An empty or
// "All Files" category yields nil, meaning no type filter. ok is false for
// unknown categories.
func CategoryMIMETypes(category string) (types []string, ok bool) {
	if category == "" || category == CategoryAll {
		return nil, true
	}
	types, ok = categories[category]
	return types, ok
}
