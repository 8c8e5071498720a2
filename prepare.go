package tex2img

import (
	"fmt"
	"strconv"

	"github.com/svinagrero/go-tex2img/internal/subst"
)

// Defaults for document preparation.
const DefaultFontSize = 12

// DefaultTemplate wraps the body in a standalone preview document. The
// ${fontsize}, ${preamble} and ${body} placeholders are reserved and always
// provided.
const DefaultTemplate = `\documentclass[${fontsize}pt,preview]{standalone}
${preamble}
\begin{document}
\begin{preview}
${body}
\end{preview}
\end{document}
`

// DefaultPreamble loads the packages commonly needed for formulas,
// algorithm listings and TikZ figures.
const DefaultPreamble = `\usepackage[utf8]{inputenc}
\usepackage{float}
\usepackage{graphicx}
\usepackage{textcomp}
\usepackage{siunitx}
\usepackage{xcolor}
\usepackage{comment}
\usepackage[boxed,algoruled,vlined,linesnumbered]{algorithm2e}
\usepackage{amsmath,amsthm,amssymb,amsfonts,amstext,newtxtext}
\usepackage{color,soul}
\usepackage{tikz}
`

// reservedParams are the built-in placeholder names. Caller-supplied params
// may not shadow them; precedence between a user value and the built-in
// would be ambiguous, so the collision is rejected outright.
var reservedParams = map[string]bool{
	"body":     true,
	"preamble": true,
	"fontsize": true,
}

// PrepareDocument renders the TeX source consumed by the first pipeline
// step. Empty template, preamble or fontsize fall back to the defaults;
// params supplies values for any extra ${placeholder}s in a custom
// template. Every placeholder the template references must resolve.
func PrepareDocument(template, preamble, body string, fontsize int, params map[string]string) (string, error) {
	if body == "" {
		return "", ErrEmptyBody
	}
	if template == "" {
		template = DefaultTemplate
	}
	if preamble == "" {
		preamble = DefaultPreamble
	}
	if fontsize == 0 {
		fontsize = DefaultFontSize
	}

	merged := make(map[string]string, len(params)+3)
	for k, v := range params {
		if reservedParams[k] {
			return "", fmt.Errorf("%w: parameter %q is reserved", ErrTemplate, k)
		}
		merged[k] = v
	}
	merged["body"] = body
	merged["preamble"] = preamble
	merged["fontsize"] = strconv.Itoa(fontsize)

	doc, err := subst.Dollar(template, merged)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return doc, nil
}
