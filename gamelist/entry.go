package gamelist

import (
	"path/filepath"
	"regexp"
	"strings"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/rdb"
)

// Entry is one game in the list
type Entry struct {
	Path        string            `json:"path"`
	Name        string            `json:"name"`        // database name or file name
	DisplayName string            `json:"displayName"` // Name without region tags
	Serial      string            `json:"serial,omitempty"`
	Region      string            `json:"region,omitempty"`
	CRC32       string            `json:"crc32"`
	Size        int64             `json:"size"`
	ModTime     int64             `json:"modTime"`
	Source      vmcore.SourceKind `json:"source"`
	Archive     bool              `json:"archive,omitempty"`
	ReleaseYear uint              `json:"releaseYear,omitempty"`
	Developer   string            `json:"developer,omitempty"`
	Publisher   string            `json:"publisher,omitempty"`
	Genre       string            `json:"genre,omitempty"`
}

// serialPattern matches disc serials embedded in file names, such as
// "Ico [SCUS-97113].iso" or "SLUS_200.62.Okami.iso".
var serialPattern = regexp.MustCompile(`(?i)\b([A-Z]{4})[-_ ]?(\d{3})\.?(\d{2})\b`)

// serialFromName extracts a serial in "ABCD-12345" form, or "".
func serialFromName(name string) string {
	m := serialPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + "-" + m[2] + m[3]
}

// cleanDisplayName removes file extension and parenthesized metadata
func cleanDisplayName(filename string) string {
	name := filename
	for ext := filepath.Ext(name); ext != "" && len(ext) <= 5; ext = filepath.Ext(name) {
		name = strings.TrimSuffix(name, ext)
	}
	name = serialPattern.ReplaceAllString(name, "")
	name = strings.NewReplacer("[]", "", "()", "").Replace(name)
	name = strings.Trim(name, " ._-")

	if idx := strings.Index(name, " ("); idx > 0 {
		name = strings.TrimSpace(name[:idx])
	}
	if name == "" {
		return filename
	}
	return name
}

// applyGame fills empty fields of e from a database entry
func (e *Entry) applyGame(g *rdb.Game) {
	if g == nil {
		return
	}
	if e.Name == "" {
		e.Name = g.Name
	}
	if e.DisplayName == "" {
		e.DisplayName = rdb.GetDisplayName(g.Name)
	}
	if e.Serial == "" {
		e.Serial = g.Serial
	}
	if e.Region == "" {
		e.Region = rdb.GetRegionFromName(g.Name)
	}
	if e.ReleaseYear == 0 {
		e.ReleaseYear = g.ReleaseYear
	}
	if e.Developer == "" {
		e.Developer = g.Developer
	}
	if e.Publisher == "" {
		e.Publisher = g.Publisher
	}
	if e.Genre == "" {
		e.Genre = g.Genre
	}
}
