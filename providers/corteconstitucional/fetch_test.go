package corteconstitucional_test

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JLinaresBeltran/Juridica-News-sub000/config"
	"github.com/JLinaresBeltran/Juridica-News-sub000/models"
	"github.com/JLinaresBeltran/Juridica-News-sub000/providers/corteconstitucional"
)

const listingHTML = `
<html><body>
<table>
<tbody>
<tr><td>T-123/25</td><td>15/7/2025</td><td>Derecho a la salud de menores</td></tr>
<tr><td>SU.045/25</td><td>15/7/2025</td><td>Unificación sobre pensión de invalidez</td></tr>
<tr><td>C-210/25</td><td>14/7/2025</td></tr>
<tr><td>no-es-id</td><td>15/7/2025</td><td>Basura</td></tr>
<tr><td colspan="3">Sin resultados</td></tr>
</tbody>
</table>
</body></html>`

func testFetcher(t *testing.T) *corteconstitucional.Fetcher {
	t.Helper()
	cfg := &config.Config{
		CorteBaseURL:  "https://www.corteconstitucional.gov.co",
		ScrapeMaxRows: 50,
	}
	return corteconstitucional.NewFetcher(cfg, zap.NewNop())
}

func TestParseListing(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	require.NoError(t, err)

	day := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	docs := testFetcher(t).ParseListing(doc, day)

	require.Len(t, docs, 3)

	first := docs[0]
	assert.Equal(t, "T-123/25", first.ID)
	assert.Equal(t, "T", first.Type)
	assert.Equal(t, "Derecho a la salud de menores", first.Title)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.Equal(t, corteconstitucional.SourceName, first.Source)
	require.NotNil(t, first.PublicationDate)
	assert.Equal(t, 2025, first.PublicationDate.Year())
	assert.NotNil(t, first.ExtractionDate)
	assert.Equal(t,
		"https://www.corteconstitucional.gov.co/sentencias/2025/t-123-25.rtf",
		first.RTFLink)
	assert.Equal(t,
		"https://www.corteconstitucional.gov.co/relatoria/2025/T-123-25.htm",
		first.URL)

	// fila sin celda de tema recibe un título sintético
	assert.Equal(t, "Sentencia C-210/25", docs[2].Title)
}

func TestDocumentURL(t *testing.T) {
	base := "https://www.corteconstitucional.gov.co"
	tests := []struct {
		id   string
		year int
		want string
	}{
		{"T-123/25", 2025, base + "/sentencias/2025/t-123-25.rtf"},
		{"C-042/25", 2025, base + "/sentencias/2025/c-042-25.rtf"},
		{"SU.045/25", 2025, base + "/sentencias/2025/su045-25.rtf"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, corteconstitucional.DocumentURL(base, tt.id, tt.year))
		})
	}
}

func TestDocumentType(t *testing.T) {
	assert.Equal(t, "T", corteconstitucional.DocumentType("T-123/25"))
	assert.Equal(t, "C", corteconstitucional.DocumentType("C-042/25"))
	assert.Equal(t, "SU", corteconstitucional.DocumentType("SU.045/25"))
}

func TestNormalizeFilename(t *testing.T) {
	assert.Equal(t, "T-123-25", corteconstitucional.NormalizeFilename("T-123/25"))
	assert.Equal(t, "SU.045-25", corteconstitucional.NormalizeFilename("SU.045/25"))
}
