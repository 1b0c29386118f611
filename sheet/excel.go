package sheet

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"html"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// lineHeight is the height in points of one line of body text.
const lineHeight = 15.0

// Excel is a Host backed by excelize.
type Excel struct{}

// Open opens an existing .xlsx file.
func (Excel) Open(path string) (Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &excelBook{f: f, sheet: f.GetSheetName(0), path: path}, nil
}

// Create returns a new workbook with a single empty worksheet.
func (Excel) Create() (Workbook, error) {
	f := excelize.NewFile()
	return &excelBook{f: f, sheet: f.GetSheetName(0)}, nil
}

type excelBook struct {
	f     *excelize.File
	sheet string
	path  string
	// picture names to write into the drawing parts on save
	pictures map[string]bool
}

func (b *excelBook) ReadCell(cell string) (string, error) {
	return b.f.GetCellValue(b.sheet, cell)
}

func (b *excelBook) ReadRange(r Range) ([][]string, error) {
	out := make([][]string, 0, r.Rows())
	for row := r.FirstRow; row <= r.LastRow; row++ {
		values := make([]string, 0, r.Cols())
		for col := r.FirstCol; col <= r.LastCol; col++ {
			v, err := b.f.GetCellValue(b.sheet, CellName(col, row))
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		out = append(out, values)
	}
	return out, nil
}

func (b *excelBook) WriteCell(cell, value string) error {
	return b.f.SetCellStr(b.sheet, cell, value)
}

func (b *excelBook) WriteRow(row int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return b.f.SetSheetRow(b.sheet, CellName(1, row), &cells)
}

func (b *excelBook) ColumnWidth(col string) (float64, error) {
	return b.f.GetColWidth(b.sheet, col)
}

func (b *excelBook) SetColumnWidth(col string, width float64) error {
	return b.f.SetColWidth(b.sheet, col, col, width)
}

func (b *excelBook) StyleRange(r Range, st Style) error {
	style := &excelize.Style{
		Font:      &excelize.Font{Bold: st.Bold},
		Alignment: &excelize.Alignment{WrapText: st.Wrap, Vertical: "top"},
	}
	if st.Fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{st.Fill}}
	}
	id, err := b.f.NewStyle(style)
	if err != nil {
		return err
	}
	return b.f.SetCellStyle(b.sheet, r.TopLeft(), r.BottomRight(), id)
}

// AutofitRows estimates each row's height from its text: every cell's lines
// are wrapped at the column width and the tallest cell wins.
func (b *excelBook) AutofitRows(r Range) error {
	widths := make([]float64, 0, r.Cols())
	for col := r.FirstCol; col <= r.LastCol; col++ {
		w, err := b.f.GetColWidth(b.sheet, ColumnName(col))
		if err != nil {
			return err
		}
		widths = append(widths, w)
	}
	rows, err := b.ReadRange(r)
	if err != nil {
		return err
	}
	for i, values := range rows {
		lines := 1
		for j, v := range values {
			if n := wrappedLines(v, widths[j]); n > lines {
				lines = n
			}
		}
		height := math.Min(float64(lines)*lineHeight, MaxRowHeight)
		if err := b.f.SetRowHeight(b.sheet, r.FirstRow+i, height); err != nil {
			return err
		}
	}
	return nil
}

func (b *excelBook) InsertRows(row, n int) error {
	return b.f.InsertRows(b.sheet, row, n)
}

func (b *excelBook) ResizeRow(row int, height float64) error {
	return b.f.SetRowHeight(b.sheet, row, height)
}

func (b *excelBook) MergeRange(r Range) error {
	return b.f.MergeCell(b.sheet, r.TopLeft(), r.BottomRight())
}

// InsertImage places the picture at cell, scaled so that it occupies
// opts.Width x opts.Height points.
func (b *excelBook) InsertImage(cell, path string, opts ImageOptions) error {
	w, h, err := ImageSize(path)
	if err != nil {
		return err
	}
	err = b.f.AddPicture(b.sheet, cell, path, &excelize.GraphicOptions{
		AltText:         opts.Name,
		ScaleX:          opts.Width / 0.75 / float64(w),
		ScaleY:          opts.Height / 0.75 / float64(h),
		LockAspectRatio: true,
		Positioning:     "oneCell",
	})
	if err != nil {
		return err
	}
	if opts.Name != "" {
		if b.pictures == nil {
			b.pictures = make(map[string]bool)
		}
		b.pictures[opts.Name] = true
	}
	return nil
}

func (b *excelBook) Save() error {
	if b.path == "" {
		return errors.New("workbook has no path, use SaveAs")
	}
	return b.SaveAs(b.path)
}

// SaveAs writes the workbook to path. excelize names every picture
// "Picture <id>", so named pictures are renamed in the written package.
func (b *excelBook) SaveAs(path string) error {
	if len(b.pictures) == 0 {
		if err := b.f.SaveAs(path); err != nil {
			return err
		}
		b.path = path
		return nil
	}
	buf, err := b.f.WriteToBuffer()
	if err != nil {
		return err
	}
	data, err := renamePictures(buf.Bytes(), b.pictures)
	if err != nil {
		return fmt.Errorf("rename pictures: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	b.path = path
	return nil
}

func (b *excelBook) Close() error { return b.f.Close() }

var pictureName = regexp.MustCompile(`(<xdr:cNvPr id="\d+" name=")([^"]*)(" descr=")([^"]*)(")`)

// renamePictures rewrites the drawing parts of an xlsx package so that each
// picture whose description is in names is also named by it.
func renamePictures(pkg []byte, names map[string]bool) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, file := range zr.File {
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(file.Name, "xl/drawings/drawing") && strings.HasSuffix(file.Name, ".xml") {
			content = pictureName.ReplaceAllFunc(content, func(m []byte) []byte {
				parts := pictureName.FindSubmatch(m)
				descr := string(parts[4])
				if !names[html.UnescapeString(descr)] {
					return m
				}
				return []byte(string(parts[1]) + descr + string(parts[3]) + descr + string(parts[5]))
			})
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: file.Name, Method: file.Method, Modified: file.Modified})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(content); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ImageSize returns the pixel dimensions of a PNG or JPEG file.
func ImageSize(path string) (width, height int, err error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer fh.Close()
	cfg, _, err := image.DecodeConfig(fh)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// wrappedLines counts display lines for text in a column of the given width.
// CJK runes count double.
func wrappedLines(text string, width float64) int {
	if text == "" {
		return 1
	}
	perLine := int(width)
	if perLine < 1 {
		perLine = 1
	}
	total := 0
	for _, line := range strings.Split(text, "\n") {
		cells := 0
		for _, r := range line {
			if r >= 0x1100 && utf8.RuneLen(r) > 1 {
				cells += 2
			} else {
				cells++
			}
		}
		n := (cells + perLine - 1) / perLine
		if n == 0 {
			n = 1
		}
		total += n
	}
	return total
}
