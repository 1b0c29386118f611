// Package sheettest provides an in-memory sheet.Host for tests.
package sheettest

import (
	"fmt"
	"os"
	"sync"

	"github.com/aerissecure/reportassistant/sheet"
)

// Image records an InsertImage call.
type Image struct {
	Cell string
	Path string
	Opts sheet.ImageOptions
}

// Book is an in-memory workbook. Fields are exported so tests can inspect
// what the code under test did.
type Book struct {
	Cells    map[string]string
	Widths   map[string]float64
	Heights  map[int]float64
	Styles   map[string]sheet.Style
	Merges   []sheet.Range
	Inserted [][2]int // row, count
	Autofit  []sheet.Range
	Images   []Image
	Path     string
	SavedAs  []string
	Saves    int
	Closed   bool

	host *Host
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{
		Cells:   map[string]string{},
		Widths:  map[string]float64{},
		Heights: map[int]float64{},
		Styles:  map[string]sheet.Style{},
	}
}

// Set writes values starting at A{row}.
func (b *Book) Set(row int, values ...string) *Book {
	for i, v := range values {
		b.Cells[sheet.CellName(i+1, row)] = v
	}
	return b
}

func (b *Book) clone() *Book {
	c := NewBook()
	for k, v := range b.Cells {
		c.Cells[k] = v
	}
	for k, v := range b.Widths {
		c.Widths[k] = v
	}
	for k, v := range b.Heights {
		c.Heights[k] = v
	}
	return c
}

func (b *Book) ReadCell(cell string) (string, error) { return b.Cells[cell], nil }

func (b *Book) ReadRange(r sheet.Range) ([][]string, error) {
	var out [][]string
	for row := r.FirstRow; row <= r.LastRow; row++ {
		var values []string
		for col := r.FirstCol; col <= r.LastCol; col++ {
			values = append(values, b.Cells[sheet.CellName(col, row)])
		}
		out = append(out, values)
	}
	return out, nil
}

func (b *Book) WriteCell(cell, value string) error {
	b.Cells[cell] = value
	return nil
}

func (b *Book) WriteRow(row int, values []string) error {
	b.Set(row, values...)
	return nil
}

func (b *Book) ColumnWidth(col string) (float64, error) {
	if w, ok := b.Widths[col]; ok {
		return w, nil
	}
	return 9.140625, nil
}

func (b *Book) SetColumnWidth(col string, width float64) error {
	b.Widths[col] = width
	return nil
}

func (b *Book) StyleRange(r sheet.Range, st sheet.Style) error {
	b.Styles[r.String()] = st
	return nil
}

func (b *Book) AutofitRows(r sheet.Range) error {
	b.Autofit = append(b.Autofit, r)
	return nil
}

// InsertRows shifts every cell at or below row down by n.
func (b *Book) InsertRows(row, n int) error {
	shifted := make(map[string]string, len(b.Cells))
	for ref, v := range b.Cells {
		col, r, err := sheet.ParseCell(ref)
		if err != nil {
			return err
		}
		if r >= row {
			r += n
		}
		shifted[sheet.CellName(col, r)] = v
	}
	b.Cells = shifted
	b.Inserted = append(b.Inserted, [2]int{row, n})
	return nil
}

func (b *Book) ResizeRow(row int, height float64) error {
	b.Heights[row] = height
	return nil
}

func (b *Book) MergeRange(r sheet.Range) error {
	b.Merges = append(b.Merges, r)
	return nil
}

func (b *Book) InsertImage(cell, path string, opts sheet.ImageOptions) error {
	b.Images = append(b.Images, Image{Cell: cell, Path: path, Opts: opts})
	return nil
}

// Save writes the book back to the path it was opened from.
func (b *Book) Save() error {
	b.Saves++
	if b.host != nil && b.Path != "" {
		b.host.register(b.Path, b)
	}
	return nil
}

// SaveAs records the path, registers the book with its host under it and
// touches the file on disk so callers can observe it.
func (b *Book) SaveAs(path string) error {
	b.SavedAs = append(b.SavedAs, path)
	if b.host != nil {
		b.host.register(path, b)
	}
	return os.WriteFile(path, nil, 0o644)
}

func (b *Book) Close() error {
	b.Closed = true
	return nil
}

// Host serves registered books. Every Open returns a fresh copy of the
// registered book, the way opening a file twice yields two documents.
type Host struct {
	mu      sync.Mutex
	files   map[string]*Book
	Opened  []*Book
	Created []*Book
}

// NewHost returns an empty host.
func NewHost() *Host {
	return &Host{files: map[string]*Book{}}
}

// Add registers b under path.
func (h *Host) Add(path string, b *Book) {
	h.register(path, b)
}

// File returns the book registered under path.
func (h *Host) File(path string) *Book {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.files[path]
}

func (h *Host) register(path string, b *Book) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path] = b
}

func (h *Host) Open(path string) (sheet.Workbook, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	src, ok := h.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such workbook", path)
	}
	b := src.clone()
	b.Path = path
	b.host = h
	h.Opened = append(h.Opened, b)
	return b, nil
}

func (h *Host) Create() (sheet.Workbook, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := NewBook()
	b.host = h
	h.Created = append(h.Created, b)
	return b, nil
}

// Renderer returns a fixed PNG for every request and records the ranges.
type Renderer struct {
	PNG   []byte
	Calls []RenderCall
}

// RenderCall records one Render request.
type RenderCall struct {
	Path  string
	Range sheet.Range
}

func (r *Renderer) Render(path string, rng sheet.Range) ([]byte, error) {
	r.Calls = append(r.Calls, RenderCall{Path: path, Range: rng})
	return r.PNG, nil
}
