package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSentenciaText_RemovesPageNumbers(t *testing.T) {
	in := "Primer párrafo de la sentencia.\n12\nSegundo párrafo.\nPágina 3 de 40\nTercer párrafo."
	out := NormalizeSentenciaText(in)

	assert.Contains(t, out, "Primer párrafo")
	assert.Contains(t, out, "Tercer párrafo")
	assert.NotContains(t, out, "Página 3 de 40")
	assert.NotRegexp(t, `(?m)^12$`, out)
}

func TestNormalizeSentenciaText_DropsRepeatedHeaders(t *testing.T) {
	header := "REPÚBLICA DE COLOMBIA - CORTE CONSTITUCIONAL"
	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteString(header + "\n")
		b.WriteString("Contenido distinto de la página.\n")
	}
	out := NormalizeSentenciaText(b.String())

	assert.NotContains(t, out, header)
	assert.Contains(t, out, "Contenido distinto")
}

func TestNormalizeSentenciaText_CollapsesWhitespace(t *testing.T) {
	in := "Texto   con    espacios\n\n\n\n\nY saltos."
	out := NormalizeSentenciaText(in)

	assert.Equal(t, "Texto con espacios\n\nY saltos.", out)
}

func TestNormalizeSentenciaText_CapsLength(t *testing.T) {
	in := strings.Repeat("a", maxPromptChars+5000)
	out := NormalizeSentenciaText(in)

	assert.Len(t, out, maxPromptChars)
}

func TestNormalizeSentenciaText_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeSentenciaText(""))
}
