// Package render is the render surface of the viewer: it uploads geometry
// buffers produced by the synthesis pipeline, draws them with a directional
// light, and applies the per-tier feature set (shadow map, MSAA target,
// hemisphere ambient). It also reports draw statistics and GPU frame time
// for the quality controller.
//
// All functions in this package must run on the thread that owns the GL
// context.
package render

import (
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/molscope/molscope/internal/engine/render/shaders"
	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/internal/logger"
	"github.com/molscope/molscope/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width            int
	Height           int
	ShadowResolution int32
}

// Stats is what one frame cost.
type Stats struct {
	DrawCalls int
	Triangles int
}

// Renderer draws uploaded meshes. One instance owns all GL programs and
// offscreen targets.
type Renderer struct {
	config Config

	program           uint32
	locViewProj       int32
	locLightViewProj  int32
	locLightDir       int32
	locViewPos        int32
	locShadowsEnabled int32
	locHemisphere     int32
	locShadowMap      int32

	depthProgram     uint32
	locDepthViewProj int32

	shadow *shadowMap
	msaa   *msaaTarget
	timer  *gpuTimer

	lightDir    [3]float32
	clearColor  [3]float32
	sceneCenter math.Vec3
	sceneRadius float32
}

// New creates a renderer. Must be called after the OpenGL context exists.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:     cfg,
		lightDir:   [3]float32{0.4, 0.8, 0.45},
		clearColor: [3]float32{0.08, 0.09, 0.12},
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(r.clearColor[0], r.clearColor[1], r.clearColor[2], 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	r.program, err = compileProgram(shaders.MolVertexShader, shaders.MolFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	r.locViewProj = getUniform(r.program, "uViewProj")
	r.locLightViewProj = getUniform(r.program, "uLightViewProj")
	r.locLightDir = getUniform(r.program, "uLightDir")
	r.locViewPos = getUniform(r.program, "uViewPos")
	r.locShadowsEnabled = getUniform(r.program, "uShadowsEnabled")
	r.locHemisphere = getUniform(r.program, "uHemisphere")
	r.locShadowMap = getUniform(r.program, "uShadowMap")

	r.depthProgram, err = compileProgram(shaders.DepthVertexShader, shaders.DepthFragmentShader)
	if err != nil {
		gl.DeleteProgram(r.program)
		return nil, fmt.Errorf("depth shader: %w", err)
	}
	r.locDepthViewProj = getUniform(r.depthProgram, "uLightViewProj")

	r.shadow = newShadowMap(cfg.ShadowResolution)
	if r.shadow == nil {
		logger.Warn("shadow map unavailable, shadows disabled")
	}

	r.timer = newGPUTimer()
	if !r.timer.Available() {
		logger.Warn("GPU timer queries unavailable, GPU time will be estimated")
	}

	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
	if r.depthProgram != 0 {
		gl.DeleteProgram(r.depthProgram)
	}
	if r.shadow != nil {
		r.shadow.destroy()
	}
	if r.msaa != nil {
		r.msaa.destroy()
	}
	if r.timer != nil {
		r.timer.destroy()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// SetScene tells the renderer the bounding sphere of the loaded structure;
// the shadow projection is fit to it.
func (r *Renderer) SetScene(center [3]float32, radius float32) {
	r.sceneCenter = math.FromArr(center)
	r.sceneRadius = radius
}

// SetBackground changes the clear color.
func (r *Renderer) SetBackground(red, green, blue float32) {
	r.clearColor = [3]float32{red, green, blue}
}

// GPUTime returns the latest measured GPU frame time. ok is false when
// timer queries are unavailable and the caller should estimate instead.
func (r *Renderer) GPUTime() (time.Duration, bool) {
	return r.timer.Poll()
}

// Frame renders one frame of the given mesh under the tier's feature set.
// A nil mesh clears the screen and returns zero stats. shadows is the user
// toggle; it takes effect only on tiers whose feature set includes shadows.
func (r *Renderer) Frame(m *Mesh, features lod.FeatureSet, shadows bool, view, proj math.Mat4, camPos math.Vec3) Stats {
	var stats Stats

	r.timer.Begin()

	// Reconfigure the MSAA target when the tier's AA mode or the window
	// changed since the last frame.
	samples := features.Antialiasing.Samples()
	if r.msaa != nil && (samples == 0 || !r.msaa.matches(r.config.Width, r.config.Height, samples)) {
		r.msaa.destroy()
		r.msaa = nil
	}
	if samples > 0 && r.msaa == nil {
		t, err := newMSAATarget(r.config.Width, r.config.Height, samples)
		if err != nil {
			logger.Warn("disabling MSAA", zap.Error(err))
		} else {
			r.msaa = t
		}
	}

	shadowsOn := shadows && features.Shadows && r.shadow != nil && m != nil

	viewProj := proj.Mul(view)
	var lightVP math.Mat4
	if shadowsOn {
		lightVP = lightMatrix(r.lightDir, r.sceneCenter, r.sceneRadius)

		r.shadow.bind()
		gl.UseProgram(r.depthProgram)
		gl.UniformMatrix4fv(r.locDepthViewProj, 1, false, lightVP.Ptr())
		m.Draw()
		stats.DrawCalls++
		stats.Triangles += m.Triangles()
		r.shadow.unbind()
	} else {
		lightVP = math.Identity()
	}

	// Main pass, into the MSAA target when one is active
	if r.msaa != nil {
		r.msaa.bind()
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
	}

	gl.ClearColor(r.clearColor[0], r.clearColor[1], r.clearColor[2], 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if m != nil {
		gl.UseProgram(r.program)
		gl.UniformMatrix4fv(r.locViewProj, 1, false, viewProj.Ptr())
		gl.UniformMatrix4fv(r.locLightViewProj, 1, false, lightVP.Ptr())
		gl.Uniform3f(r.locLightDir, r.lightDir[0], r.lightDir[1], r.lightDir[2])
		gl.Uniform3f(r.locViewPos, camPos.X, camPos.Y, camPos.Z)
		gl.Uniform1i(r.locShadowsEnabled, boolUniform(shadowsOn))
		gl.Uniform1i(r.locHemisphere, boolUniform(features.AmbientOcclusion))

		if r.shadow != nil {
			r.shadow.bindTexture(gl.TEXTURE0)
		}
		gl.Uniform1i(r.locShadowMap, 0)

		m.Draw()
		stats.DrawCalls++
		stats.Triangles += m.Triangles()
	}

	if r.msaa != nil {
		r.msaa.resolve()
	}

	r.timer.End()

	return stats
}

// ReadPixels reads the default framebuffer back buffer as RGBA bytes,
// bottom row first, for screenshot capture.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ReadBuffer(gl.BACK)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

func boolUniform(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
