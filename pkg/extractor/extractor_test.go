package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "simple Tj",
			content: "BT /F1 12 Tf 72 712 Td (Policy and governance) Tj ET",
			want:    "Policy and governance",
		},
		{
			name:    "line moves become spaces",
			content: "BT (Policy) Tj T* (governance) Tj 0 -14 Td (shape) Tj ET",
			want:    "Policy governance shape",
		},
		{
			name:    "TJ kerning",
			content: "BT [(Pol) -20 (icy) -300 (matters)] TJ ET",
			want:    "Policy matters",
		},
		{
			name:    "escapes and nesting",
			content: `BT (a \(b\) c) Tj T* (x (y) z) Tj T* (caf\351) Tj ET`,
			want:    "a (b) c x (y) z café",
		},
		{
			name:    "octal overflow keeps the low byte",
			content: `BT (a\777b) Tj ET`,
			want:    "aÿb",
		},
		{
			name:    "quote operator",
			content: "BT (first) Tj (second) ' ET",
			want:    "first second",
		},
		{
			name:    "hex string",
			content: "BT <506f6c696379> Tj ET",
			want:    "Policy",
		},
		{
			name:    "marked content is ignored",
			content: "/Span <</MCID 0>> BDC BT (text) Tj ET EMC % comment (not text) Tj",
			want:    "text",
		},
		{
			name:    "no text",
			content: "q 1 0 0 1 0 0 cm /Im1 Do Q",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShowText(tt.content))
		})
	}
}

func TestContentPages_Order(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"doc_Content_page_10.txt", "doc_Content_page_2.txt", "doc_Content_page_1.txt", "other.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	pages, err := contentPages(dir)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "doc_Content_page_1.txt", filepath.Base(pages[0]))
	assert.Equal(t, "doc_Content_page_2.txt", filepath.Base(pages[1]))
	assert.Equal(t, "doc_Content_page_10.txt", filepath.Base(pages[2]))
}

// writeTestPDF builds a one-page PDF whose content stream draws each line.
func writeTestPDF(t *testing.T, path string, lines ...string) {
	t.Helper()

	var stream bytes.Buffer
	stream.WriteString("BT /F1 12 Tf 72 720 Td")
	for _, line := range lines {
		fmt.Fprintf(&stream, " (%s) Tj 0 -14 Td", line)
	}
	stream.WriteString(" ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", stream.Len(), stream.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestPDF_Extract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	writeTestPDF(t, path, "Policy and governance", "shape policy.")

	text, err := (&PDF{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Policy and governance shape policy.", text)
}

func TestPDF_ExtractCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0644))

	_, err := (&PDF{}).Extract(context.Background(), path)
	assert.Error(t, err)
}

func TestHTML_Extract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	page := `<html><head><title>Report</title><script>var policyScript = 1;</script></head>
<body><article><h1>Annual report</h1>
<p>Policy and governance shape policy. Good governance needs clear policy and steady institutions.</p>
<p>Institutions that publish their policy are easier to hold to account.</p>
</article></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(page), 0644))

	text, err := (&HTML{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "Policy and governance shape policy.")
	assert.NotContains(t, text, "policyScript")
}

func TestText_Extract(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(good, []byte("plain words"), 0644))

	text, err := (&Text{}).Extract(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, "plain words", text)

	bad := filepath.Join(dir, "binary.txt")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xfe, 0x00}, 0644))
	_, err = (&Text{}).Extract(context.Background(), bad)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.txt")
	big := filepath.Join(dir, "big.txt")
	odd := filepath.Join(dir, "sheet.odt")
	require.NoError(t, os.WriteFile(small, []byte("ok"), 0644))
	require.NoError(t, os.WriteFile(big, bytes.Repeat([]byte("x"), 64), 0644))
	require.NoError(t, os.WriteFile(odd, []byte("?"), 0644))

	r := NewRegistry(16)
	assert.True(t, r.Supports(".PDF"))
	assert.False(t, r.Supports(".odt"))
	assert.Contains(t, r.Extensions(), ".html")

	text, err := r.Extract(context.Background(), small)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	_, err = r.Extract(context.Background(), big)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = r.Extract(context.Background(), odd)
	assert.ErrorIs(t, err, ErrUnsupported)

	r.Register(".odt", Func(func(ctx context.Context, path string) (string, error) {
		return "converted", nil
	}))
	text, err = r.Extract(context.Background(), odd)
	require.NoError(t, err)
	assert.Equal(t, "converted", text)
}
