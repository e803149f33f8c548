package pipeline

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/xuri/excelize/v2"

	"fitout/internal"
	"fitout/internal/util"
)

type ImageKey struct {
	Sheet string
	Row   int
}

type ExtractedImages struct {
	ByRow map[ImageKey]string
	Loose []string
}

// ImageExtractor pulls embedded product photos out of a source document.
// Photos anchored to a cell land in ByRow; photos without an anchor (PDF
// streams) land in Loose.
type ImageExtractor interface {
	Extract(destDir string) (ExtractedImages, error)
}

func NewImageExtractor(format internal.TableFormat, path string) (ImageExtractor, error) {
	switch format {
	case internal.FormatXLSX:
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook for images: %w", err)
		}
		return &xlsxImageExtractor{file: f, owns: true}, nil
	case internal.FormatPDF:
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pdf for images: %w", err)
		}
		return &pdfImageExtractor{blob: blob}, nil
	default:
		return noopImageExtractor{}, nil
	}
}

type noopImageExtractor struct{}

func (noopImageExtractor) Extract(string) (ExtractedImages, error) {
	return ExtractedImages{ByRow: map[ImageKey]string{}}, nil
}

type xlsxImageExtractor struct {
	file *excelize.File
	owns bool
}

func (x *xlsxImageExtractor) Extract(destDir string) (ExtractedImages, error) {
	if x.owns {
		defer x.file.Close()
	}

	out := ExtractedImages{ByRow: map[ImageKey]string{}}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return out, err
	}

	for _, sheet := range x.file.GetSheetList() {
		cells, err := x.file.GetPictureCells(sheet)
		if err != nil {
			continue
		}
		seq := 0
		for _, cell := range cells {
			pics, err := x.file.GetPictures(sheet, cell)
			if err != nil {
				continue
			}
			_, row, err := excelize.CellNameToCoordinates(cell)
			if err != nil {
				continue
			}
			for _, pic := range pics {
				if len(pic.File) == 0 {
					continue
				}
				seq++
				ext := strings.TrimPrefix(strings.ToLower(pic.Extension), ".")
				if ext == "" {
					ext = "png"
				}
				name := fmt.Sprintf("%s_row%d_%d.%s", util.Slug(sheet), row, seq, ext)
				path := filepath.Join(destDir, name)
				if err := os.WriteFile(path, pic.File, 0o644); err != nil {
					return out, fmt.Errorf("write image %s: %w", name, err)
				}
				key := ImageKey{Sheet: sheet, Row: row}
				if _, exists := out.ByRow[key]; !exists {
					out.ByRow[key] = path
				}
			}
		}
	}
	return out, nil
}

// pdfImageExtractor scans the raw file for JPEG streams. The format gives
// no usable cell anchors, so everything found is loose.
type pdfImageExtractor struct {
	blob []byte
}

func (p *pdfImageExtractor) Extract(destDir string) (ExtractedImages, error) {
	out := ExtractedImages{ByRow: map[ImageKey]string{}}
	jpegs := scanJPEGStreams(p.blob)
	if len(jpegs) == 0 {
		return out, nil
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return out, err
	}

	for i, blob := range jpegs {
		name := fmt.Sprintf("embedded_%d.jpg", i+1)
		path := filepath.Join(destDir, name)
		if err := os.WriteFile(path, blob, 0o644); err != nil {
			return out, fmt.Errorf("write image %s: %w", name, err)
		}
		out.Loose = append(out.Loose, path)
	}
	return out, nil
}

func scanJPEGStreams(blob []byte) [][]byte {
	out := [][]byte{}
	for i := 0; i+3 < len(blob); {
		if !(blob[i] == 0xFF && blob[i+1] == 0xD8 && blob[i+2] == 0xFF) {
			i++
			continue
		}
		end := -1
		for j := i + 2; j+1 < len(blob); j++ {
			if blob[j] == 0xFF && blob[j+1] == 0xD9 {
				end = j + 2
				break
			}
		}
		if end < 0 {
			break
		}
		candidate := blob[i:end]
		if cfg, err := jpeg.DecodeConfig(bytes.NewReader(candidate)); err == nil && cfg.Width >= 40 && cfg.Height >= 40 {
			out = append(out, candidate)
		}
		i = end
	}
	return out
}

// MakeThumbnail writes a bounded JPEG preview next to the original image
// and returns its path.
func MakeThumbnail(srcPath string, maxPx, quality int) (string, error) {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open image %s: %w", filepath.Base(srcPath), err)
	}

	thumb := imaging.Fit(img, maxPx, maxPx, imaging.Lanczos)
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	outPath := filepath.Join(filepath.Dir(srcPath), "thumb_"+base+".jpg")
	if err := imaging.Save(thumb, outPath, imaging.JPEGQuality(quality)); err != nil {
		return "", fmt.Errorf("save thumbnail: %w", err)
	}
	return outPath, nil
}
