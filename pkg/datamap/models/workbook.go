package models

// FileExtraction is everything read from one workbook.
type FileExtraction struct {
	// File is the workbook file name (no path).
	File string `json:"file_name"`
	// Path is the location the workbook was read from.
	Path string `json:"path"`
	// Checksum is the hex MD5 digest of the file's raw bytes.
	Checksum string `json:"checksum"`
	// Sheets maps sheet name to its cells.
	Sheets map[string]CellMap `json:"data"`
}

// Cell looks up a single cell.
func (f *FileExtraction) Cell(sheet, cellref string) (ExtractedCell, bool) {
	cells, ok := f.Sheets[sheet]
	if !ok {
		return ExtractedCell{}, false
	}
	c, ok := cells[cellref]
	return c, ok
}

// HasSheet reports whether the workbook contained the named sheet.
func (f *FileExtraction) HasSheet(sheet string) bool {
	_, ok := f.Sheets[sheet]
	return ok
}

// Batch is an ordered set of extractions keyed by file name.
type Batch struct {
	// Names holds file names in column order.
	Names []string `json:"names"`
	// Files maps file name to its extraction.
	Files map[string]*FileExtraction `json:"files"`
	// Rejected maps files dropped by reconciliation to their missing sheets.
	Rejected map[string][]string `json:"rejected,omitempty"`
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{Files: make(map[string]*FileExtraction)}
}

// Add appends an extraction, replacing any earlier one with the same name.
func (b *Batch) Add(fe *FileExtraction) {
	if _, ok := b.Files[fe.File]; !ok {
		b.Names = append(b.Names, fe.File)
	}
	b.Files[fe.File] = fe
}

// Get returns the extraction for a file name.
func (b *Batch) Get(name string) (*FileExtraction, bool) {
	fe, ok := b.Files[name]
	return fe, ok
}

// Len returns the number of files in the batch.
func (b *Batch) Len() int {
	return len(b.Names)
}
