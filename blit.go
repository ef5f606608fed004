package dxinterop

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/dxinterop/hal"
	"github.com/gogpu/dxinterop/internal/cache"
)

//go:embed blit.hlsl
var blitSource []byte

const (
	blitShaderName = "blit.hlsl"
	blitVertices   = 3
)

// shaderKey identifies compiled blit bytecode. Bytecode depends only on the
// compiler, so it is shared by every session on the same D3D implementation.
type shaderKey struct {
	d3d    hal.D3D
	entry  string
	target string
}

var shaderCache = cache.New[shaderKey, []byte](8)

func compileBlitShader(d3d hal.D3D, entry, target string) ([]byte, error) {
	return shaderCache.GetOrCreate(shaderKey{d3d, entry, target}, func() ([]byte, error) {
		Logger().Debug("dxinterop: compiling blit shader", "entry", entry, "target", target)
		return d3d.CompileShader(blitSource, blitShaderName, entry, target)
	})
}

// blitPipeline draws a texture over the whole render target with one
// triangle generated from the vertex index. No vertex buffer is bound.
type blitPipeline struct {
	vs      hal.VertexShader
	ps      hal.PixelShader
	raster  hal.RasterizerState
	sampler hal.SamplerState
}

func newBlitPipeline(d3d hal.D3D, device hal.Device) (_ *blitPipeline, err error) {
	p := &blitPipeline{}
	defer func() {
		if err != nil {
			p.Release()
		}
	}()

	vsCode, err := compileBlitShader(d3d, "VsMain", "vs_5_0")
	if err != nil {
		return nil, fmt.Errorf("compile vertex shader: %w", err)
	}
	if p.vs, err = device.CreateVertexShader(vsCode); err != nil {
		return nil, fmt.Errorf("create vertex shader: %w", err)
	}

	psCode, err := compileBlitShader(d3d, "PsMain", "ps_5_0")
	if err != nil {
		return nil, fmt.Errorf("compile pixel shader: %w", err)
	}
	if p.ps, err = device.CreatePixelShader(psCode); err != nil {
		return nil, fmt.Errorf("create pixel shader: %w", err)
	}

	p.raster, err = device.CreateRasterizerState(hal.RasterizerDesc{
		CullMode:        gputypes.CullModeNone,
		DepthClipEnable: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create rasterizer state: %w", err)
	}

	p.sampler, err = device.CreateSamplerState(hal.SamplerDesc{
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.MipmapFilterModeNearest,
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeRepeat,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler state: %w", err)
	}
	return p, nil
}

// bind sets the state that stays fixed for the life of the session.
func (p *blitPipeline) bind(ctx hal.DeviceContext) {
	ctx.IASetTriangleList()
	ctx.VSSetShader(p.vs)
	ctx.RSSetState(p.raster)
	ctx.PSSetShader(p.ps)
	ctx.PSSetSampler(0, p.sampler)
}

// draw samples src into dst. The source view is unbound afterwards so a
// texture handed back to the rendering side is never left bound.
func (p *blitPipeline) draw(ctx hal.DeviceContext, src hal.ShaderResourceView, dst hal.RenderTargetView, vp hal.Viewport) {
	ctx.RSSetViewport(vp)
	ctx.PSSetShaderResource(0, src)
	ctx.OMSetRenderTarget(dst)
	ctx.Draw(blitVertices, 0)
	ctx.PSSetShaderResource(0, nil)
}

func (p *blitPipeline) Release() {
	for _, o := range []hal.Object{p.sampler, p.raster, p.ps, p.vs} {
		if o != nil {
			o.Release()
		}
	}
	*p = blitPipeline{}
}
