// Package burnin resolves the slate/overlay metadata for a review render.
// Every field degrades to blank on a tracker miss; a render never fails
// because a lookup came back empty.
package burnin

import "fmt"

// Record holds the fully resolved burn-in fields. It must be complete before
// render-graph construction starts: the text is baked into pixels and cannot
// be corrected after the fact.
type Record struct {
	Project    string `json:"project"`
	Shot       string `json:"shot"`
	Artist     string `json:"artist"`
	Date       string `json:"date"`
	FrameRange string `json:"frame_range"`
	Colorspace string `json:"colorspace,omitempty"`

	// Notes is the free-text description of the matching published script.
	Notes string `json:"notes,omitempty"`
	// Description is the shot's stored description.
	Description string `json:"description,omitempty"`

	VersionLabel string `json:"version_label"`
	// VersionString is the padded number alone, without task prefix.
	VersionString string `json:"version_string"`

	// CubeFilePath is the color lookup table to apply, empty when none is
	// published.
	CubeFilePath string `json:"cube_file_path,omitempty"`
}

// FormatVersionString zero-pads a version number to the given width.
func FormatVersionString(version, padding int) string {
	return fmt.Sprintf("%0*d", padding, version)
}

// FormatVersionLabel renders the slate version label. With a task or step
// context the label reads "<task>, v<padded>", otherwise "v<padded>".
func FormatVersionLabel(task string, version, padding int) string {
	vs := FormatVersionString(version, padding)
	if task != "" {
		return fmt.Sprintf("%s, v%s", task, vs)
	}
	return "v" + vs
}
