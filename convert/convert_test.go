package convert_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiratsolutions/fileit"
	"github.com/kiratsolutions/fileit/convert"
)

// buildPDF writes a minimal PDF with the given number of blank
// 200x100pt pages and a correct cross-reference table.
func buildPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, pages)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for range pages {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 100] /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

type page struct {
	n      int
	width  int
	height int
}

func collect(t *testing.T, pages *[]page) fileit.PageFunc {
	t.Helper()
	return func(n int, r io.Reader) error {
		img, err := jpeg.Decode(r)
		if err != nil {
			return err
		}
		*pages = append(*pages, page{n: n, width: img.Bounds().Dx(), height: img.Bounds().Dy()})
		return nil
	}
}

func TestPageCount(t *testing.T) {
	n, err := convert.PageCount(buildPDF(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = convert.PageCount([]byte("not a pdf"))
	assert.ErrorIs(t, err, fileit.ErrInvalidInput)
}

func TestConverter_ConvertPDF(t *testing.T) {
	c := convert.New(convert.Config{DPI: 72, MaxWidth: 1654})

	var pages []page
	n, err := c.Convert(context.Background(), bytes.NewReader(buildPDF(2)), fileit.ContentTypePDF, collect(t, &pages))
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].n)
	assert.Equal(t, 2, pages[1].n)
	assert.Equal(t, 200, pages[0].width)
	assert.Equal(t, 100, pages[0].height)
}

func TestConverter_ConvertPDF_ResizesWidePages(t *testing.T) {
	c := convert.New(convert.Config{DPI: 72, MaxWidth: 100, Quality: 50})

	var pages []page
	n, err := c.Convert(context.Background(), bytes.NewReader(buildPDF(1)), "application/pdf; name=book.pdf", collect(t, &pages))
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	require.Len(t, pages, 1)
	assert.Equal(t, 100, pages[0].width)
	assert.Equal(t, 50, pages[0].height)
}

func TestConverter_CallbackErrorStops(t *testing.T) {
	c := convert.New(convert.Config{DPI: 72})
	boom := errors.New("storage down")

	calls := 0
	n, err := c.Convert(context.Background(), bytes.NewReader(buildPDF(3)), fileit.ContentTypePDF, func(int, io.Reader) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, calls)
}

func TestConverter_InvalidInput(t *testing.T) {
	c := convert.New(convert.Config{})
	noop := func(int, io.Reader) error { return nil }

	_, err := c.Convert(context.Background(), strings.NewReader("hello"), "text/plain", noop)
	assert.ErrorIs(t, err, fileit.ErrUnsupportedType)

	_, err = c.Convert(context.Background(), strings.NewReader("%PDF-1.4 garbage"), fileit.ContentTypePDF, noop)
	assert.ErrorIs(t, err, fileit.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Convert(ctx, bytes.NewReader(buildPDF(1)), fileit.ContentTypePDF, noop)
	assert.ErrorIs(t, err, context.Canceled)
}

// fakeOffice writes a shell script standing in for LibreOffice. It copies
// fixture to <outdir>/<input basename>.pdf.
func fakeOffice(t *testing.T, fixture []byte) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script office stub needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	fixturePath := filepath.Join(dir, "fixture.pdf")
	require.NoError(t, os.WriteFile(fixturePath, fixture, 0o644))

	script := filepath.Join(dir, "soffice")
	body := fmt.Sprintf("#!/bin/sh\n# args: --headless --convert-to pdf --outdir DIR FILE\nname=$(basename \"$6\")\ncp %q \"$5/${name%%.*}.pdf\"\n", fixturePath)
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script
}

func TestConverter_ConvertDocx(t *testing.T) {
	c := convert.New(convert.Config{DPI: 72, OfficeCommand: fakeOffice(t, buildPDF(3)), TempDir: t.TempDir()})

	var pages []page
	n, err := c.Convert(context.Background(), strings.NewReader("PK fake docx"), fileit.ContentTypeDocx, collect(t, &pages))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, pages, 3)
}

func TestConverter_ConvertDocx_OfficeFails(t *testing.T) {
	dir := t.TempDir()
	c := convert.New(convert.Config{OfficeCommand: filepath.Join(dir, "missing-soffice"), TempDir: dir})

	_, err := c.Convert(context.Background(), strings.NewReader("PK"), fileit.ContentTypeDocx, func(int, io.Reader) error { return nil })
	assert.ErrorContains(t, err, "office to pdf")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory must be removed")
}
