// Package render drives the compositing host to turn a frame sequence into
// a review movie: read, color transform, burn-in composite, scale, write.
// The host is an external binary executed in terminal mode with a generated
// render script.
package render

import (
	"fmt"
	"sort"
)

// Movie container file types understood by the host's write node.
const (
	FileTypeMov    = "mov"
	FileTypeMov64  = "mov64"
	FileTypeFFmpeg = "ffmpeg"
)

// Image sequence file types, used by delivery slate passes.
const (
	FileTypeDPX  = "dpx"
	FileTypeEXR  = "exr"
	FileTypeTIFF = "tiff"
)

// WriteProfile is the validated container/codec configuration for a write
// node. Knobs is restricted to the enumerated set for the file type; unknown
// keys are rejected rather than silently applied.
type WriteProfile struct {
	FileType   string            `json:"file_type"`
	Knobs      map[string]string `json:"knobs,omitempty"`
	Colorspace string            `json:"colorspace,omitempty"`
}

var allowedKnobs = map[string]map[string]bool{
	FileTypeMov: {
		"meta_codec": true,
		"codec":      true,
	},
	FileTypeMov64: {
		"mov64_codec":       true,
		"mov64_quality_max": true,
	},
	FileTypeFFmpeg: {
		"format": true,
	},
	FileTypeDPX: {
		"datatype": true,
	},
	FileTypeEXR: {
		"compression": true,
	},
	FileTypeTIFF: {
		"compression": true,
	},
}

// Validate checks the profile against the enumerated knob sets.
func (p WriteProfile) Validate() error {
	allowed, ok := allowedKnobs[p.FileType]
	if !ok {
		return fmt.Errorf("unknown write file type %q", p.FileType)
	}

	var bad []string
	for k := range p.Knobs {
		if !allowed[k] {
			bad = append(bad, k)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return fmt.Errorf("unknown knobs for file type %q: %v", p.FileType, bad)
	}
	return nil
}

// DefaultProfile selects the movie write configuration for the platform and
// host major version. Modern hosts get the near-lossless apcn intermediate
// codec on desktop platforms; older ones fall back to jpeg-based profiles.
func DefaultProfile(goos string, hostMajor int) WriteProfile {
	switch goos {
	case "windows", "darwin":
		if hostMajor >= 9 {
			// Version 9 renamed the codec knob to meta_codec and switched
			// to the mov64 encoder underneath.
			return WriteProfile{
				FileType: FileTypeMov,
				Knobs:    map[string]string{"meta_codec": "apcn"},
			}
		}
		return WriteProfile{
			FileType: FileTypeMov,
			Knobs:    map[string]string{"codec": "jpeg"},
		}
	default:
		if hostMajor >= 9 {
			// Version 9 dropped the bundled ffmpeg writer on linux.
			return WriteProfile{
				FileType: FileTypeMov64,
				Knobs: map[string]string{
					"mov64_codec":       "jpeg",
					"mov64_quality_max": "3",
				},
			}
		}
		return WriteProfile{
			FileType: FileTypeFFmpeg,
			Knobs:    map[string]string{"format": "MOV format (mov)"},
		}
	}
}

// IsMovieContainer reports whether the profile writes a movie rather than an
// image sequence. Slate rendering covers the whole range for movies but only
// the single leading frame for sequences.
func (p WriteProfile) IsMovieContainer() bool {
	switch p.FileType {
	case FileTypeMov, FileTypeMov64, FileTypeFFmpeg:
		return true
	default:
		return false
	}
}
