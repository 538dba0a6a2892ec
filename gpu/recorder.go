package gpu

import (
	"fmt"
	"slices"

	"github.com/gogpu/mesh"
)

// RecordedUpload is a vertex upload captured by a Recorder.
type RecordedUpload struct {
	Label  string
	Layout VertexLayout
	Data   []byte
}

// RecordedDraw is a draw call captured by a Recorder.
type RecordedDraw struct {
	Label    string
	Command  DrawCommand
	Uniforms Uniforms
}

// RecordedTexture is a texture upload captured by a Recorder.
type RecordedTexture struct {
	Label         string
	Width, Height int
	RGBA          []byte
}

// Recorder is a Backend that keeps copies of everything it receives.
// It never touches a device, so it serves headless tools and tests.
type Recorder struct {
	Uploads  []RecordedUpload
	Draws    []RecordedDraw
	Textures []RecordedTexture

	uniforms Uniforms
}

// NewRecorder creates an empty Recorder with default uniforms.
func NewRecorder() *Recorder {
	return &Recorder{uniforms: DefaultUniforms()}
}

type recordedVertices struct {
	owner    *Recorder
	label    string
	layout   VertexLayout
	count    int
	released bool
}

func (v *recordedVertices) Layout() VertexLayout { return v.layout }
func (v *recordedVertices) Count() int           { return v.count }
func (v *recordedVertices) Release()             { v.released = true }

// UploadVertices records a copy of data.
func (r *Recorder) UploadVertices(label string, layout VertexLayout, data []byte) (Vertices, error) {
	count := 0
	if layout.Stride > 0 {
		count = len(data) / int(layout.Stride)
	}
	r.Uploads = append(r.Uploads, RecordedUpload{
		Label:  label,
		Layout: VertexLayout{Stride: layout.Stride, Attributes: slices.Clone(layout.Attributes)},
		Data:   slices.Clone(data),
	})
	mesh.Logger().Debug("recorder: vertex upload", "label", label, "bytes", len(data), "vertices", count)
	return &recordedVertices{owner: r, label: label, layout: layout, count: count}, nil
}

// SetUniforms records the constants for subsequent draws.
func (r *Recorder) SetUniforms(u Uniforms) { r.uniforms = u }

// Draw records cmd.
func (r *Recorder) Draw(v Vertices, cmd DrawCommand) error {
	rv, ok := v.(*recordedVertices)
	if !ok || rv.owner != r {
		return ErrForeignVertices
	}
	if rv.released {
		return ErrReleased
	}
	if err := checkTopology(cmd.Topology); err != nil {
		return err
	}
	if cmd.Indices != nil {
		cp := IndexData{Format: cmd.Indices.Format, Data: slices.Clone(cmd.Indices.Data)}
		cmd.Indices = &cp
	}
	r.Draws = append(r.Draws, RecordedDraw{Label: rv.label, Command: cmd, Uniforms: r.uniforms})
	mesh.Logger().Debug("recorder: draw", "label", rv.label, "topology", cmd.Topology,
		"first", cmd.First, "count", cmd.Count, "indexed", cmd.Indices != nil)
	return nil
}

// UploadTexture records a copy of the pixels.
func (r *Recorder) UploadTexture(label string, width, height int, rgba []byte) error {
	if len(rgba) < width*height*4 {
		return fmt.Errorf("gpu: texture %q: %d bytes for %dx%d: %w", label, len(rgba), width, height, mesh.ErrValidation)
	}
	r.Textures = append(r.Textures, RecordedTexture{Label: label, Width: width, Height: height, RGBA: slices.Clone(rgba)})
	return nil
}

// Reset forgets every recorded call.
func (r *Recorder) Reset() {
	r.Uploads = nil
	r.Draws = nil
	r.Textures = nil
	r.uniforms = DefaultUniforms()
}
