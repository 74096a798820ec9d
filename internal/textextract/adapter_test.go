package textextract_test

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"underwriter/internal/domain"
	"underwriter/internal/textextract"
)

// buildDOCX assembles a minimal OOXML container with the given
// word/document.xml payload.
func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractText_DOCX(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Rent Roll</w:t></w:r></w:p>
    <w:p><w:r><w:t>Unit 101</w:t></w:r><w:r><w:t> Acme</w:t></w:r></w:p>
  </w:body>
</w:document>`

	a := textextract.New()
	text, err := a.ExtractText(context.Background(), buildDOCX(t, docXML), domain.FileTypeDOCX)

	require.NoError(t, err)
	assert.Equal(t, "Rent Roll\nUnit 101 Acme\n", text)
}

func TestExtractText_DOCX_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	a := textextract.New()
	_, err = a.ExtractText(context.Background(), buf.Bytes(), domain.FileTypeDOCX)

	assert.ErrorContains(t, err, "word/document.xml")
}

func TestExtractText_XLSX(t *testing.T) {
	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "Unit"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B1", "Rent"))
	require.NoError(t, wb.SetCellValue("Sheet1", "A2", "101"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B2", 2400))

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	a := textextract.New()
	text, err := a.ExtractText(context.Background(), buf.Bytes(), domain.FileTypeXLSX)

	require.NoError(t, err)
	assert.Contains(t, text, "Unit\tRent")
	assert.Contains(t, text, "101\t2400")
}

func TestExtractText_InvalidPDF(t *testing.T) {
	a := textextract.New()
	_, err := a.ExtractText(context.Background(), []byte("not a pdf"), domain.FileTypePDF)
	assert.Error(t, err)
}

func TestExtractText_UnsupportedType(t *testing.T) {
	a := textextract.New()
	_, err := a.ExtractText(context.Background(), []byte("data"), domain.FileType("png"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestExtractText_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := textextract.New()
	_, err := a.ExtractText(ctx, []byte("data"), domain.FileTypePDF)
	assert.ErrorIs(t, err, context.Canceled)
}
