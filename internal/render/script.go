package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/slateroom/slateroom-agent/internal/burnin"
)

// Request describes one master render.
type Request struct {
	InputPath  string
	OutputPath string
	Width      int
	Height     int
	FirstFrame int
	LastFrame  int
	// Colorspace of the input frames. Empty means inherit the source's
	// embedded default.
	Colorspace string
	// ProxyMode routes the write to ProxyPath instead of OutputPath.
	ProxyMode bool
	ProxyPath string
}

// SlateWrite is an optional extra pass reusing an existing delivery write
// configuration, keeping the delivered output's slate consistent with the
// review movie.
type SlateWrite struct {
	Path    string
	Profile WriteProfile
}

// buildScript generates the host render script executed in terminal mode.
// The graph is the linear review chain: read, color transform, burn-in
// composite, scale, write.
func buildScript(req Request, rec burnin.Record, profile WriteProfile, slate *SlateWrite, templatePath, logoPath string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "import nuke\n\n")
	fmt.Fprintf(&b, "group = nuke.nodes.Group()\n")
	fmt.Fprintf(&b, "group.begin()\n\n")

	fmt.Fprintf(&b, "read = nuke.nodes.Read(name=\"source\", file=%s)\n", pyStr(NormalizePath(req.InputPath)))
	fmt.Fprintf(&b, "read[\"on_error\"].setValue(\"black\")\n")
	fmt.Fprintf(&b, "read[\"first\"].setValue(%d)\n", req.FirstFrame)
	fmt.Fprintf(&b, "read[\"last\"].setValue(%d)\n", req.LastFrame)
	if cs := NormalizeColorspace(req.Colorspace); cs != "" {
		fmt.Fprintf(&b, "read[\"colorspace\"].setValue(%s)\n", pyStr(cs))
	}
	b.WriteString("\n")

	// Color stage: published LUT when resolved, identity pass to sRGB
	// otherwise.
	if rec.CubeFilePath != "" {
		fmt.Fprintf(&b, "lut = nuke.nodes.OCIOFileTransform()\n")
		fmt.Fprintf(&b, "lut[\"file\"].setValue(%s)\n", pyStr(NormalizePath(rec.CubeFilePath)))
		fmt.Fprintf(&b, "lut[\"working_space\"].setValue(\"sRGB\")\n")
	} else {
		fmt.Fprintf(&b, "lut = nuke.nodes.Colorspace()\n")
		fmt.Fprintf(&b, "lut[\"colorspace_out\"].setValue(\"sRGB\")\n")
	}
	fmt.Fprintf(&b, "lut.setInput(0, read)\n\n")

	fmt.Fprintf(&b, "burn = nuke.nodePaste(%s)\n", pyStr(NormalizePath(templatePath)))
	fmt.Fprintf(&b, "burn.setInput(0, lut)\n")
	fmt.Fprintf(&b, "burn.node(\"logo\")[\"file\"].setValue(%s)\n", pyStr(NormalizePath(logoPath)))
	for _, kv := range burnFields(rec, req) {
		fmt.Fprintf(&b, "burn.node(%s)[\"message\"].setValue(%s)\n", pyStr(kv[0]), pyStr(kv[1]))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "scale = nuke.nodes.Reformat()\n")
	fmt.Fprintf(&b, "scale[\"type\"].setValue(\"to box\")\n")
	fmt.Fprintf(&b, "scale[\"box_width\"].setValue(%d)\n", req.Width)
	fmt.Fprintf(&b, "scale[\"box_height\"].setValue(%d)\n", req.Height)
	fmt.Fprintf(&b, "scale[\"resize\"].setValue(\"fit\")\n")
	fmt.Fprintf(&b, "scale[\"box_fixed\"].setValue(True)\n")
	fmt.Fprintf(&b, "scale[\"center\"].setValue(True)\n")
	fmt.Fprintf(&b, "scale[\"black_outside\"].setValue(True)\n")
	fmt.Fprintf(&b, "scale.setInput(0, burn)\n\n")

	writeNode(&b, "out", profile, writePath(req), req.ProxyMode)
	fmt.Fprintf(&b, "out.setInput(0, scale)\n\n")

	if slate != nil {
		writeNode(&b, "slate_out", slate.Profile, slate.Path, false)
		fmt.Fprintf(&b, "slate_out.setInput(0, scale)\n\n")
	}

	fmt.Fprintf(&b, "group.end()\n\n")

	// The leading frame carries the full-frame slate.
	fmt.Fprintf(&b, "nuke.executeMultiple([out], ([%d, %d, 1],), [nuke.views()[0]])\n",
		req.FirstFrame-1, req.LastFrame)

	if slate != nil {
		slateLast := req.FirstFrame - 1
		if slate.Profile.IsMovieContainer() {
			slateLast = req.LastFrame
		}
		fmt.Fprintf(&b, "nuke.executeMultiple([slate_out], ([%d, %d, 1],), [nuke.views()[0]])\n",
			req.FirstFrame-1, slateLast)
	}

	fmt.Fprintf(&b, "nuke.delete(group)\n")

	return b.String()
}

func writeNode(b *strings.Builder, name string, profile WriteProfile, path string, proxy bool) {
	fmt.Fprintf(b, "%s = nuke.nodes.Write(file_type=%s)\n", name, pyStr(profile.FileType))

	knobs := make([]string, 0, len(profile.Knobs))
	for k := range profile.Knobs {
		knobs = append(knobs, k)
	}
	sort.Strings(knobs)
	for _, k := range knobs {
		fmt.Fprintf(b, "%s.knob(%s).setValue(%s)\n", name, pyStr(k), pyStr(profile.Knobs[k]))
	}
	if profile.Colorspace != "" {
		fmt.Fprintf(b, "%s.knob(\"colorspace\").setValue(%s)\n", name, pyStr(profile.Colorspace))
	}

	if proxy {
		fmt.Fprintf(b, "%s[\"proxy\"].setValue(%s)\n", name, pyStr(NormalizePath(path)))
	} else {
		fmt.Fprintf(b, "%s[\"file\"].setValue(%s)\n", name, pyStr(NormalizePath(path)))
	}
}

// burnFields lays out the fixed overlay and slate text slots.
func burnFields(rec burnin.Record, req Request) [][2]string {
	filename := baseNameNoExt(req.InputPath)
	return [][2]string{
		{"top_left", rec.Project},
		{"top", ""},
		{"top_right", rec.Date},
		{"bottom_left", "v" + rec.VersionString},
		{"bottom", rec.Shot},
		{"Project_Name", rec.Project},
		{"Date", rec.Date},
		{"Filename", filename},
		{"Frames", rec.FrameRange},
		{"Artist", rec.Artist},
		{"Version", rec.VersionLabel},
		{"Notes", rec.Notes},
	}
}

func baseNameNoExt(p string) string {
	base := NormalizePath(p)
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}

func writePath(req Request) string {
	if req.ProxyMode {
		return req.ProxyPath
	}
	return req.OutputPath
}

// pyStr renders a Go string as a quoted literal valid in the host's
// scripting language.
func pyStr(s string) string {
	return strconv.Quote(s)
}
