package knowledge

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/xuri/excelize/v2"
)

func upload(t *testing.T, fs afs.Service, URL string, data []byte) {
	t.Helper()
	require.NoError(t, fs.Upload(context.Background(), URL, file.DefaultFileOsMode, bytes.NewReader(data)))
}

func spreadsheet(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "region"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "revenue"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "emea"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 42))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	base := "mem://localhost/knowledge_test"
	upload(t, fs, base+"/kb/user.md", []byte("# User\n\nThe user prefers concise reports.\n\nThe user works in finance."))
	upload(t, fs, base+"/kb/notes.txt", []byte("Quarterly revenue grew."))
	upload(t, fs, base+"/kb/sales.xlsx", spreadsheet(t))
	upload(t, fs, base+"/kb/image.png", []byte{0x89})

	loader := NewLoader(WithFS(fs), WithConcurrency(2))
	docs, err := loader.Load(ctx, base+"/kb")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "notes.txt", docs[0].Name)
	assert.Equal(t, "sales.xlsx", docs[1].Name)
	assert.Equal(t, "Sheet Sheet1\nregion | revenue\nemea | 42", docs[1].Content)
	assert.Equal(t, "user.md", docs[2].Name)

	docs, err = loader.Load(ctx, base+"/kb/notes.txt")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Quarterly revenue grew.", docs[0].Content)

	_, err = loader.Load(ctx, base+"/kb/image.png")
	assert.Error(t, err)
	_, err = loader.Load(ctx, base+"/missing.md")
	assert.Error(t, err)
}

func TestLoader_CustomParser(t *testing.T) {
	fs := afs.New()
	URL := "mem://localhost/knowledge_test/custom/data.csv"
	upload(t, fs, URL, []byte("a,b"))
	loader := NewLoader(WithFS(fs), WithParser(".csv", ParserFunc(func(ctx context.Context, data []byte) (string, error) {
		return strings.ReplaceAll(string(data), ",", " "), nil
	})))
	docs, err := loader.Load(context.Background(), URL)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a b", docs[0].Content)
}

func TestDocxText(t *testing.T) {
	content := `<w:document><w:body><w:p><w:r><w:t>Hello</w:t></w:r></w:p><w:p><w:r><w:t>R&amp;D team</w:t></w:r></w:p></w:body></w:document>`
	assert.Equal(t, "Hello\n\nR&D team", docxText(content))
}

func TestBase_Retrieve(t *testing.T) {
	kb := NewBase(
		&Document{Name: "user.md", Content: "The user prefers concise reports.\n\nThe user works in finance."},
		&Document{Name: "notes.txt", Content: "Quarterly revenue grew in finance."},
		nil,
	)
	assert.Equal(t, 3, kb.Len())

	chunks := kb.Retrieve("finance revenue", 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Quarterly revenue grew in finance.", chunks[0].Text)
	assert.Equal(t, "The user works in finance.", chunks[1].Text)

	chunks = kb.Retrieve("finance revenue", 40)
	require.Len(t, chunks, 1)

	assert.Len(t, kb.Retrieve("", 0), 3)
	assert.Empty(t, kb.Retrieve("astronomy", 0))
	assert.Equal(t, "[notes.txt]\nQuarterly revenue grew in finance.", kb.Context("revenue", 0))

	var empty *Base
	assert.Nil(t, empty.Retrieve("x", 0))
}
