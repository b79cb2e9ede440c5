package standalone

import (
	"github.com/sqweek/dialog"
)

func showErrorDialog(title, message string) {
	dialog.Message("%s", message).Title(title).Error()
}

func askYesNoDialog(title, message string) bool {
	return dialog.Message("%s", message).Title(title).YesNo()
}

// BrowseImage opens a native file picker for a boot image. ok is false
// when the user cancels.
func BrowseImage() (path string, ok bool) {
	path, err := dialog.File().
		Title("Select Disc Image").
		Filter("Disc images", "iso", "bin", "img", "mdf", "chd", "cso", "gz", "elf").
		Filter("Archives", "zip", "7z", "rar").
		Load()
	if err != nil {
		return "", false
	}
	return path, true
}
