package services

import (
	"regexp"
	"strings"
)

// Límite de texto enviado al modelo; las sentencias completas pueden
// superar cómodamente el contexto disponible.
const maxPromptChars = 24_000

var (
	pageNumberExpr = regexp.MustCompile(`(?m)^\s*(Página\s+)?\d+\s*(de\s+\d+)?\s*$`)
	multiSpaceExpr = regexp.MustCompile(`[ \t]{2,}`)
	multiBlankExpr = regexp.MustCompile(`\n{3,}`)
)

// NormalizeSentenciaText limpia el texto extraído de una providencia
// antes de usarlo como prompt: elimina numeración de páginas y líneas de
// encabezado/pie repetidas, colapsa espacios y acota la longitud total.
func NormalizeSentenciaText(text string) string {
	if text == "" {
		return ""
	}

	text = pageNumberExpr.ReplaceAllString(text, "")
	text = dropRepeatedLines(text)
	text = multiSpaceExpr.ReplaceAllString(text, " ")
	text = multiBlankExpr.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}
	return text
}

// dropRepeatedLines elimina líneas cortas que se repiten muchas veces en
// el documento; típicamente encabezados y pies de página del RTF.
func dropRepeatedLines(text string) string {
	lines := strings.Split(text, "\n")
	counts := make(map[string]int)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && len(trimmed) < 80 {
			counts[trimmed]++
		}
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && len(trimmed) < 80 && counts[trimmed] >= 4 {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
