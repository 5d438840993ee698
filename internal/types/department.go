package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Department labels produced by the classifier
const (
	DepartmentSupport    = "soporte tecnico"
	DepartmentHR         = "recursos humanos"
	DepartmentOperations = "operaciones"
)

// Department maps a classifier label to the file its tickets are stored in
type Department struct {
	Label string `json:"label" yaml:"label"`
	File  string `json:"file" yaml:"file"`
}

// DepartmentTable is the fixed set of routing destinations.
// It is immutable after construction; accessors return copies.
type DepartmentTable struct {
	entries []Department
	byLabel map[string]Department
}

// DefaultDepartments returns the three built-in departments
func DefaultDepartments() []Department {
	return []Department{
		{Label: DepartmentSupport, File: "soporte_tecnico.txt"},
		{Label: DepartmentHR, File: "recursos_humanos.txt"},
		{Label: DepartmentOperations, File: "operaciones.txt"},
	}
}

// DefaultDepartmentTable returns a table built from DefaultDepartments
func DefaultDepartmentTable() *DepartmentTable {
	table, err := NewDepartmentTable(DefaultDepartments())
	if err != nil {
		panic(fmt.Sprintf("default department table is invalid: %v", err))
	}
	return table
}

// NewDepartmentTable validates entries and builds a table.
// Labels are normalized; labels and files must be non-empty and unique,
// and files must be bare file names (no directories).
func NewDepartmentTable(entries []Department) (*DepartmentTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("department table cannot be empty")
	}

	table := &DepartmentTable{
		entries: make([]Department, 0, len(entries)),
		byLabel: make(map[string]Department, len(entries)),
	}
	files := make(map[string]string, len(entries))

	for i, entry := range entries {
		label := NormalizeLabel(entry.Label)
		file := strings.TrimSpace(entry.File)
		if label == "" {
			return nil, fmt.Errorf("department %d: label is required", i)
		}
		if file == "" {
			return nil, fmt.Errorf("department %q: file is required", label)
		}
		if filepath.Base(file) != file || file == "." || file == ".." {
			return nil, fmt.Errorf("department %q: file must be a plain file name (got %q)", label, file)
		}
		if _, exists := table.byLabel[label]; exists {
			return nil, fmt.Errorf("duplicate department label %q", label)
		}
		if other, exists := files[file]; exists {
			return nil, fmt.Errorf("departments %q and %q share file %q", other, label, file)
		}
		files[file] = label

		dept := Department{Label: label, File: file}
		table.entries = append(table.entries, dept)
		table.byLabel[label] = dept
	}

	return table, nil
}

// Lookup resolves a raw classifier label to its department.
// Returns an *UnknownDepartmentError if the label is not in the table.
func (t *DepartmentTable) Lookup(label string) (Department, error) {
	dept, ok := t.byLabel[NormalizeLabel(label)]
	if !ok {
		return Department{}, &UnknownDepartmentError{Label: label, Known: t.Labels()}
	}
	return dept, nil
}

// Labels returns the department labels in table order
func (t *DepartmentTable) Labels() []string {
	labels := make([]string, len(t.entries))
	for i, dept := range t.entries {
		labels[i] = dept.Label
	}
	return labels
}

// Departments returns a copy of the table entries in order
func (t *DepartmentTable) Departments() []Department {
	out := make([]Department, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of departments
func (t *DepartmentTable) Len() int {
	return len(t.entries)
}
