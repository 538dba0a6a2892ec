package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
)

// uniformSize is the byte size of the Uniforms block:
// mat4x4<f32> (64) + vec4<f32> (16).
const uniformSize = 80

// shaderComponents returns the number of f32 components a vertex format
// presents to the shader, or 0 if the shader cannot read it as floats.
func shaderComponents(f gputypes.VertexFormat) int {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 1
	case gputypes.VertexFormatFloat32x2,
		gputypes.VertexFormatUnorm8x2, gputypes.VertexFormatSnorm8x2,
		gputypes.VertexFormatUnorm16x2, gputypes.VertexFormatSnorm16x2:
		return 2
	case gputypes.VertexFormatFloat32x3:
		return 3
	case gputypes.VertexFormatFloat32x4,
		gputypes.VertexFormatUnorm8x4, gputypes.VertexFormatSnorm8x4,
		gputypes.VertexFormatUnorm16x4, gputypes.VertexFormatSnorm16x4:
		return 4
	default:
		return 0
	}
}

func wgslType(n int) string {
	if n == 1 {
		return "f32"
	}
	return fmt.Sprintf("vec%d<f32>", n)
}

// widen returns a WGSL expression turning an n-component value into a
// vec4<f32>. Missing components default to (0, 0, 0, 1).
func widen(expr string, n int) string {
	switch n {
	case 1:
		return fmt.Sprintf("vec4<f32>(%s, 0.0, 0.0, 1.0)", expr)
	case 2:
		return fmt.Sprintf("vec4<f32>(%s, 0.0, 1.0)", expr)
	case 3:
		return fmt.Sprintf("vec4<f32>(%s, 1.0)", expr)
	default:
		return expr
	}
}

// GenerateWGSL builds a vertex/fragment shader pair for layout. The
// position attribute (location 0) is transformed by the uniform matrix;
// the color attribute (location 1), when present, is multiplied by the
// uniform color. Other attributes stay in the vertex buffer but are not
// read by the shader.
func GenerateWGSL(layout VertexLayout) (string, error) {
	var sb strings.Builder
	sb.WriteString(`struct Uniforms {
    transform: mat4x4<f32>,
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

struct VertexInput {
`)

	pos, hasPos := layout.Find(LocationPosition)
	col, hasCol := layout.Find(LocationColor)
	var posN, colN int
	if hasPos {
		if posN = shaderComponents(pos.Format); posN == 0 {
			return "", fmt.Errorf("%w: position %v", ErrUnsupportedFormat, pos.Format)
		}
		fmt.Fprintf(&sb, "    @location(%d) position: %s,\n", LocationPosition, wgslType(posN))
	}
	if hasCol {
		if colN = shaderComponents(col.Format); colN == 0 {
			return "", fmt.Errorf("%w: color %v", ErrUnsupportedFormat, col.Format)
		}
		fmt.Fprintf(&sb, "    @location(%d) color: %s,\n", LocationColor, wgslType(colN))
	}
	if !hasPos && !hasCol {
		// WGSL forbids empty structs; vertex_index keeps the input valid.
		sb.WriteString("    @builtin(vertex_index) index: u32,\n")
	}

	sb.WriteString(`}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(input: VertexInput) -> VertexOutput {
    var output: VertexOutput;
`)
	if hasPos {
		fmt.Fprintf(&sb, "    output.position = u.transform * %s;\n", widen("input.position", posN))
	} else {
		sb.WriteString("    output.position = u.transform * vec4<f32>(0.0, 0.0, 0.0, 1.0);\n")
	}
	if hasCol {
		fmt.Fprintf(&sb, "    output.color = u.color * %s;\n", widen("input.color", colN))
	} else {
		sb.WriteString("    output.color = u.color;\n")
	}
	sb.WriteString(`    return output;
}

@fragment
fn fs_main(input: VertexOutput) -> @location(0) vec4<f32> {
    return input.color;
}
`)
	return sb.String(), nil
}

// CompileShaderToSPIRV compiles WGSL source to SPIR-V words.
func CompileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// uniformBytes packs u in WGSL layout. WGSL matrices are column-major, so
// the row-major transform is transposed.
func uniformBytes(u Uniforms) []byte {
	var words [uniformSize / 4]float32
	for row := range 4 {
		for col := range 4 {
			words[col*4+row] = u.Transform[row*4+col]
		}
	}
	copy(words[16:], u.Color[:])
	out := make([]byte, uniformSize)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(w))
	}
	return out
}
