package types

import (
	"errors"
	"reflect"
	"testing"
)

func TestAddRequester(t *testing.T) {
	tests := []struct {
		name        string
		initial     []string
		add         string
		wantChanged bool
		want        []string
	}{
		{"new name goes to front", []string{"Ana"}, "Luis", true, []string{"Luis", "Ana"}},
		{"existing name unchanged", []string{"Luis", "Ana"}, "Ana", false, []string{"Luis", "Ana"}},
		{"match is case sensitive", []string{"Ana"}, "ana", true, []string{"ana", "Ana"}},
		{"empty list", nil, "Ana", true, []string{"Ana"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := TicketRecord{Requesters: tt.initial, Text: "text"}
			changed := r.AddRequester(tt.add)
			if changed != tt.wantChanged {
				t.Errorf("AddRequester() changed = %v, want %v", changed, tt.wantChanged)
			}
			if !reflect.DeepEqual(r.Requesters, tt.want) {
				t.Errorf("Requesters = %v, want %v", r.Requesters, tt.want)
			}
			if r.Text != "text" {
				t.Errorf("Text changed to %q", r.Text)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := NewTicketRecord("Ana", "printer jammed")
	clone := original.Clone()
	clone.AddRequester("Luis")

	if len(original.Requesters) != 1 {
		t.Errorf("original mutated: %v", original.Requesters)
	}
}

func TestDepartmentTableLookup(t *testing.T) {
	table := DefaultDepartmentTable()

	tests := []struct {
		label    string
		wantFile string
		wantErr  bool
	}{
		{"soporte tecnico", "soporte_tecnico.txt", false},
		{"  Recursos Humanos\n", "recursos_humanos.txt", false},
		{"OPERACIONES", "operaciones.txt", false},
		{"facturación", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			dept, err := table.Lookup(tt.label)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownDepartment) {
					t.Fatalf("Lookup(%q) error = %v, want ErrUnknownDepartment", tt.label, err)
				}
				var unknown *UnknownDepartmentError
				if !errors.As(err, &unknown) || unknown.Label != tt.label {
					t.Errorf("expected UnknownDepartmentError carrying label %q, got %v", tt.label, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) unexpected error: %v", tt.label, err)
			}
			if dept.File != tt.wantFile {
				t.Errorf("File = %q, want %q", dept.File, tt.wantFile)
			}
		})
	}
}

func TestNewDepartmentTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Department
	}{
		{"empty", nil},
		{"missing label", []Department{{Label: " ", File: "a.txt"}}},
		{"missing file", []Department{{Label: "a", File: ""}}},
		{"path in file", []Department{{Label: "a", File: "../a.txt"}}},
		{"duplicate label", []Department{{Label: "a", File: "a.txt"}, {Label: " A ", File: "b.txt"}}},
		{"duplicate file", []Department{{Label: "a", File: "a.txt"}, {Label: "b", File: "a.txt"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDepartmentTable(tt.entries); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestDepartmentTableIsImmutable(t *testing.T) {
	table := DefaultDepartmentTable()
	depts := table.Departments()
	depts[0].File = "changed.txt"

	dept, err := table.Lookup(DepartmentSupport)
	if err != nil {
		t.Fatal(err)
	}
	if dept.File != "soporte_tecnico.txt" {
		t.Errorf("table mutated through Departments(): %q", dept.File)
	}
	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
}

func TestWrapExternal(t *testing.T) {
	base := errors.New("connection refused")
	err := WrapExternal("embedding", "embed", base)
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Errorf("expected wrapped base error, got %v", err)
	}
	if again := WrapExternal("classifier", "classify", err); again != err {
		t.Errorf("re-wrapping should return the same error, got %v", again)
	}
	if WrapExternal("embedding", "embed", nil) != nil {
		t.Error("WrapExternal(nil) should be nil")
	}
}

func TestResults(t *testing.T) {
	saved := SavedResult(DepartmentSupport)
	if saved.Message != "ticket saved" || saved.Duplicate {
		t.Errorf("unexpected saved result: %+v", saved)
	}
	dup := DuplicateResult(DepartmentSupport, "My laptop won't turn on")
	if dup.Message != "duplicate found: My laptop won't turn on" || !dup.Duplicate {
		t.Errorf("unexpected duplicate result: %+v", dup)
	}
}
