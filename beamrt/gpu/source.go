package gpu

import (
	"fmt"
	"strings"

	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/material"
)

// ShaderSource prefixes the material shader with its keyword constants, the
// BeamUniforms struct and the group 0 bindings. Level-1 shaders must sample
// beam_texture with beam_sampler.
func ShaderSource(m *material.Material) string {
	var sb strings.Builder
	for _, kw := range material.AllKeywords {
		fmt.Fprintf(&sb, "const %s: bool = %t;\n", kw, m.HasKeyword(kw))
	}

	sb.WriteString("\nstruct BeamUniforms {\n")
	sb.WriteString("    model: mat4x4<f32>,\n")
	sb.WriteString("    view_proj: mat4x4<f32>,\n")
	sb.WriteString("    camera_pos: vec4<f32>,\n")
	for _, name := range UniformParams {
		fmt.Fprintf(&sb, "    %s: vec4<f32>,\n", FieldName(name))
	}
	sb.WriteString("};\n\n")

	sb.WriteString("@group(0) @binding(0) var<uniform> beam: BeamUniforms;\n")
	if m.Key.LOD == core.LOD1 {
		sb.WriteString("@group(0) @binding(1) var beam_texture: texture_2d<f32>;\n")
		sb.WriteString("@group(0) @binding(2) var beam_sampler: sampler;\n")
	}
	sb.WriteString("\n")
	if m.Shader != nil {
		sb.WriteString(m.Shader.Source)
	}
	return sb.String()
}
