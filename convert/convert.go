// Package convert renders Word and PDF documents into per-page JPEG images.
//
// PDFs are validated and page-counted with pdfcpu and rasterised with
// MuPDF. Word documents are first converted to PDF by a headless
// LibreOffice process.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kiratsolutions/fileit"
)

const (
	DefaultMaxWidth      = 1654 // A4 width at 200 DPI
	DefaultQuality       = 85
	DefaultDPI           = 200
	DefaultOfficeCommand = "soffice"
	DefaultOfficeTimeout = 2 * time.Minute
)

// Config controls rendering.
type Config struct {
	// MaxWidth is the maximum page image width in pixels. Wider pages are
	// scaled down keeping their aspect ratio.
	MaxWidth int `mapstructure:"max_width" yaml:"max_width" validate:"gte=0"`
	// Quality is the JPEG quality, 1-100.
	Quality int     `mapstructure:"quality" yaml:"quality" validate:"gte=0,lte=100"`
	DPI     float64 `mapstructure:"dpi" yaml:"dpi" validate:"gte=0"`
	// OfficeCommand is the LibreOffice binary used for Word documents.
	OfficeCommand string        `mapstructure:"office_command" yaml:"office_command"`
	OfficeTimeout time.Duration `mapstructure:"office_timeout" yaml:"office_timeout"`
	// TempDir holds intermediate files. Empty means os.TempDir().
	TempDir string `mapstructure:"temp_dir" yaml:"temp_dir"`
}

// Converter implements fileit.Converter.
type Converter struct {
	cfg Config
}

var _ fileit.Converter = (*Converter)(nil)

func New(cfg Config) *Converter {
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = DefaultMaxWidth
	}
	if cfg.Quality <= 0 {
		cfg.Quality = DefaultQuality
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.OfficeCommand == "" {
		cfg.OfficeCommand = DefaultOfficeCommand
	}
	if cfg.OfficeTimeout <= 0 {
		cfg.OfficeTimeout = DefaultOfficeTimeout
	}
	return &Converter{cfg: cfg}
}

// Convert renders every page of the document read from r and passes it to
// fn as a JPEG. It stops at the first error returned by fn.
func (c *Converter) Convert(ctx context.Context, r io.Reader, contentType string, fn fileit.PageFunc) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var (
		pdf []byte
		err error
	)

	switch fileit.MediaType(contentType) {
	case fileit.ContentTypePDF:
		pdf, err = io.ReadAll(r)
		if err != nil {
			return 0, fmt.Errorf("convert: read document: %w", err)
		}
	case fileit.ContentTypeDocx:
		pdf, err = c.officeToPDF(ctx, r, ".docx")
		if err != nil {
			return 0, fmt.Errorf("convert: %w", err)
		}
	default:
		return 0, fmt.Errorf("convert: %w: %s", fileit.ErrUnsupportedType, contentType)
	}

	n, err := c.renderPDF(ctx, pdf, fn)
	if err != nil {
		return n, fmt.Errorf("convert: %w", err)
	}
	return n, nil
}

// PageCount validates a PDF and returns its number of pages.
func PageCount(pdf []byte) (int, error) {
	n, err := pdfapi.PageCount(bytes.NewReader(pdf), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("%w: invalid pdf: %w", fileit.ErrInvalidInput, err)
	}
	return n, nil
}

func (c *Converter) renderPDF(ctx context.Context, pdf []byte, fn fileit.PageFunc) (int, error) {
	count, err := PageCount(pdf)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return 0, fmt.Errorf("%w: open pdf: %w", fileit.ErrInvalidInput, err)
	}
	defer doc.Close()

	if n := doc.NumPage(); n != count {
		slog.Warn("page count mismatch", "pdfcpu", count, "mupdf", n)
		count = min(count, n)
	}

	var buf bytes.Buffer
	for i := range count {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		img, err := doc.ImageDPI(i, c.cfg.DPI)
		if err != nil {
			return i, fmt.Errorf("render page %d: %w", i+1, err)
		}

		buf.Reset()
		if err := c.encodePage(&buf, img); err != nil {
			return i, fmt.Errorf("encode page %d: %w", i+1, err)
		}

		if err := fn(i+1, bytes.NewReader(buf.Bytes())); err != nil {
			return i, err
		}
	}

	return count, nil
}

func (c *Converter) encodePage(w io.Writer, img image.Image) error {
	if img.Bounds().Dx() > c.cfg.MaxWidth {
		img = imaging.Resize(img, c.cfg.MaxWidth, 0, imaging.Lanczos)
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(c.cfg.Quality))
}

// officeToPDF writes the document to a scratch directory and has
// LibreOffice convert it to PDF next to it.
func (c *Converter) officeToPDF(ctx context.Context, r io.Reader, ext string) ([]byte, error) {
	dir, err := os.MkdirTemp(c.cfg.TempDir, "fileit-convert-")
	if err != nil {
		return nil, fmt.Errorf("office to pdf: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			slog.Warn("failed to remove conversion dir", "dir", dir, "err", rmErr)
		}
	}()

	in := filepath.Join(dir, "document"+ext)
	f, err := os.Create(in)
	if err != nil {
		return nil, fmt.Errorf("office to pdf: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("office to pdf: write input: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("office to pdf: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.OfficeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.cfg.OfficeCommand,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", dir,
		in)
	// LibreOffice refuses to start a second instance sharing a profile.
	cmd.Env = append(os.Environ(), "HOME="+dir)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("office to pdf: timed out after %s", c.cfg.OfficeTimeout)
		}
		return nil, fmt.Errorf("office to pdf: %s: %w: %s", c.cfg.OfficeCommand, err, strings.TrimSpace(stderr.String()))
	}
	slog.Debug("converted document to pdf", "command", c.cfg.OfficeCommand, "duration", time.Since(start))

	pdf, err := os.ReadFile(filepath.Join(dir, "document.pdf"))
	if err != nil {
		return nil, fmt.Errorf("office to pdf: no output: %w", err)
	}
	return pdf, nil
}
