package render

import (
	"strings"
	"testing"

	"github.com/slateroom/slateroom-agent/internal/burnin"
)

func testRequest() Request {
	return Request{
		InputPath:  `V:\renders\sh010\sh010_comp_v003.%04d.exr`,
		OutputPath: "/reviews/sh010_comp_v003.mov",
		Width:      720,
		Height:     405,
		FirstFrame: 1001,
		LastFrame:  1100,
	}
}

func testRecord() burnin.Record {
	return burnin.Record{
		Project:       "Orbital",
		Shot:          "sh010",
		Artist:        "rmb",
		Date:          "08/24/26",
		FrameRange:    "1001 - 1100",
		Notes:         "fixed edge matte",
		VersionString: "003",
		VersionLabel:  "comp, v003",
	}
}

func TestBuildScript_BurnFieldsBaked(t *testing.T) {
	script := buildScript(testRequest(), testRecord(), DefaultProfile("linux", 13), nil, "/tpl/burns.nk", "")

	for _, want := range []string{
		`burn.node("Project_Name")["message"].setValue("Orbital")`,
		`burn.node("Artist")["message"].setValue("rmb")`,
		`burn.node("Version")["message"].setValue("comp, v003")`,
		`burn.node("Frames")["message"].setValue("1001 - 1100")`,
		`burn.node("Notes")["message"].setValue("fixed edge matte")`,
		`burn.node("bottom_left")["message"].setValue("v003")`,
		`burn.node("Filename")["message"].setValue("sh010_comp_v003")`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestBuildScript_PathsNormalized(t *testing.T) {
	script := buildScript(testRequest(), testRecord(), DefaultProfile("linux", 13), nil, "/tpl/burns.nk", "")

	if strings.Contains(script, `\\`) {
		t.Error("script contains backslash paths")
	}
	if !strings.Contains(script, `"V:/renders/sh010/sh010_comp_v003.%04d.exr"`) {
		t.Error("input path not normalized to forward slashes")
	}
}

func TestBuildScript_IdentityColorWithoutCube(t *testing.T) {
	script := buildScript(testRequest(), testRecord(), DefaultProfile("linux", 13), nil, "/tpl/burns.nk", "")

	if !strings.Contains(script, "nuke.nodes.Colorspace()") {
		t.Error("expected identity colorspace stage without a cube file")
	}
	if strings.Contains(script, "OCIOFileTransform") {
		t.Error("unexpected LUT stage without a cube file")
	}
}

func TestBuildScript_LUTWithCube(t *testing.T) {
	rec := testRecord()
	rec.CubeFilePath = "/luts/sh010_v3.cube"

	script := buildScript(testRequest(), rec, DefaultProfile("linux", 13), nil, "/tpl/burns.nk", "")

	if !strings.Contains(script, "nuke.nodes.OCIOFileTransform()") {
		t.Error("expected LUT stage with a cube file")
	}
	if !strings.Contains(script, `lut["file"].setValue("/luts/sh010_v3.cube")`) {
		t.Error("cube path not applied")
	}
}

func TestBuildScript_ProxyModeRoutesToProxyPath(t *testing.T) {
	req := testRequest()
	req.ProxyMode = true
	req.ProxyPath = "/reviews/proxy/sh010_comp_v003.mov"

	script := buildScript(req, testRecord(), DefaultProfile("linux", 13), nil, "/tpl/burns.nk", "")

	if !strings.Contains(script, `out["proxy"].setValue("/reviews/proxy/sh010_comp_v003.mov")`) {
		t.Error("proxy path not routed to proxy knob")
	}
	if strings.Contains(script, `out["file"].setValue`) {
		t.Error("primary file knob set while in proxy mode")
	}
}

func TestBuildScript_ExecutesLeadingSlateFrame(t *testing.T) {
	script := buildScript(testRequest(), testRecord(), DefaultProfile("linux", 13), nil, "/tpl/burns.nk", "")

	if !strings.Contains(script, "([1000, 1100, 1],)") {
		t.Error("render range should start one frame early for the slate")
	}
}

func TestBuildScript_SlateWritePass(t *testing.T) {
	slate := &SlateWrite{
		Path: "/delivery/sh010_comp_v003.%04d.dpx",
		Profile: WriteProfile{
			FileType:   FileTypeMov64,
			Knobs:      map[string]string{"mov64_codec": "jpeg"},
			Colorspace: "rec709",
		},
	}

	// mov64 is a movie container, so the slate pass covers the whole range.
	script := buildScript(testRequest(), testRecord(), DefaultProfile("linux", 13), slate, "/tpl/burns.nk", "")

	if !strings.Contains(script, "slate_out = nuke.nodes.Write(file_type=\"mov64\")") {
		t.Error("slate write node missing")
	}
	if !strings.Contains(script, `slate_out.knob("colorspace").setValue("rec709")`) {
		t.Error("slate colorspace not reused from delivery configuration")
	}
	if !strings.Contains(script, "nuke.executeMultiple([slate_out], ([1000, 1100, 1],)") {
		t.Error("movie slate pass should cover the whole range")
	}
}

func TestBuildScript_SequenceSlateSingleFrame(t *testing.T) {
	slate := &SlateWrite{
		Path: "/delivery/sh010_comp_v003.%04d.dpx",
		Profile: WriteProfile{
			FileType: FileTypeDPX,
			Knobs:    map[string]string{"datatype": "10 bit"},
		},
	}

	script := buildScript(testRequest(), testRecord(), DefaultProfile("linux", 13), slate, "/tpl/burns.nk", "")

	if !strings.Contains(script, "nuke.executeMultiple([slate_out], ([1000, 1000, 1],)") {
		t.Error("sequence slate pass should render only the leading frame")
	}
}

func TestBuildScript_Deterministic(t *testing.T) {
	a := buildScript(testRequest(), testRecord(), DefaultProfile("linux", 13), nil, "/tpl/burns.nk", "")
	b := buildScript(testRequest(), testRecord(), DefaultProfile("linux", 13), nil, "/tpl/burns.nk", "")
	if a != b {
		t.Error("script generation is not deterministic")
	}
}
