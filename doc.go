// Package tex2img renders TeX fragments to document images by driving the
// external TeX toolchain (latex, dvips, ps2pdf, dvisvgm, ghostscript)
// through a chain of format conversions.
//
// # Quick Start
//
// Create a renderer and render a formula:
//
//	r := tex2img.NewRenderer()
//	result, err := r.Render(ctx, tex2img.Input{
//	    Body:       `$\alpha = 2$`,
//	    OutputPath: "alpha.svg",
//	})
//
// The output format is selected by the extension of Input.OutputPath. The
// available flows are:
//
//	tex ----> dvi ----> ps        dvips
//	tex ----> dvi ----> eps       dvips -E
//	tex ----> dvi -> ps -> pdf    ps2pdf
//	tex ----> dvi ----> svg       dvisvgm (optionally scour)
//	tex -> dvi -> ps -> pdf -> png/jpg/tiff   gs
//
// Each flow is resolved from a static table; when a suffix has more than
// one registered route (pdf and the raster formats can also go through
// pdflatex), Resolve deterministically picks the first-ranked one and
// ResolveNamed selects an alternative.
//
// # Pipeline
//
// A render request goes through these stages:
//
//  1. Document preparation: the body is substituted into a standalone
//     preview template together with the preamble and fontsize.
//  2. Flow resolution for the requested output suffix.
//  3. Pre-flight dependency check; the request fails before any process
//     runs if a required tool is missing.
//  4. Step execution inside a private working area, each step consuming
//     the previous step's artifact.
//  5. Atomic delivery of the final artifact to the requested path,
//     overwriting an existing file.
//
// # Configuration
//
// Renderer defaults are set with functional options:
//
//	r := tex2img.NewRenderer(
//	    tex2img.WithStepTimeout(time.Minute),
//	    tex2img.WithFontSize(14),
//	)
//
// Per-request settings travel in Input: template/preamble overrides, extra
// template parameters, per-step command argument overrides, the flow
// variant, SVG optimization and working-area retention.
package tex2img
