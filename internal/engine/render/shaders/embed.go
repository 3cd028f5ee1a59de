// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// MolVertexShader is the vertex shader for molecular mesh rendering.
//
//go:embed mol.vert
var MolVertexShader string

// MolFragmentShader is the fragment shader for molecular mesh rendering.
//
//go:embed mol.frag
var MolFragmentShader string

// DepthVertexShader is the vertex shader for the shadow depth pass.
//
//go:embed depth.vert
var DepthVertexShader string

// DepthFragmentShader is the fragment shader for the shadow depth pass.
//
//go:embed depth.frag
var DepthFragmentShader string
