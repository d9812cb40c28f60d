package matrix

import (
	"strings"
	"testing"
)

const sampleMatrix = `Matriz de errores - exportación
,,,
CODIGO DE ERROR,DESCRIPCION DEL CODIGO,CATEGORIA,SUB CATEGORIA,TIPO DE SOLUCION,TIEMPO DE RECUPERACION (MIN)
E10A01,Atasco de billetes,Hardware,Validador,Remota,15
E20301,Pérdida de comunicación,Comunicación,Red,Local,30
E30F02,,,Sensor,Remota,
XX,Fila descartada por código corto,General,,,
E10A01,Duplicado que debe ignorarse,Hardware,,,
`

func TestLoad(t *testing.T) {
	idx, err := Load(strings.NewReader(sampleMatrix))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if idx.Len() != 3 {
		t.Errorf("expected 3 indexed codes, got %d", idx.Len())
	}

	entry := idx.Lookup("E10A01")
	if entry == nil {
		t.Fatal("expected E10A01 to be indexed")
	}
	if entry.Description != "Atasco de billetes" {
		t.Errorf("duplicate row should not overwrite first entry, got %q", entry.Description)
	}
	if entry.RecoveryMinutes != 15 {
		t.Errorf("expected recovery 15, got %d", entry.RecoveryMinutes)
	}

	if idx.Lookup("XX") != nil {
		t.Error("codes of length <= 2 must be discarded")
	}
	if idx.Lookup("E99999") != nil {
		t.Error("unknown code should return nil")
	}
}

func TestLoad_Defaults(t *testing.T) {
	idx, err := Load(strings.NewReader(sampleMatrix))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	entry := idx.Lookup("E30F02")
	if entry == nil {
		t.Fatal("expected E30F02 to be indexed")
	}
	if entry.Description != DefaultDescription {
		t.Errorf("missing description should default to %q, got %q", DefaultDescription, entry.Description)
	}
	if entry.Category != DefaultCategory {
		t.Errorf("missing category should default to %q, got %q", DefaultCategory, entry.Category)
	}
	if entry.RecoveryMinutes != 0 {
		t.Errorf("unparsable recovery should stay 0, got %d", entry.RecoveryMinutes)
	}
}

func TestLoad_MissingHeader(t *testing.T) {
	input := "just,some,cells\nwithout,a,header\n"
	if _, err := Load(strings.NewReader(input)); err == nil {
		t.Error("expected error when no header row is present")
	}
}

func TestLoad_EmptyMatrix(t *testing.T) {
	input := "CODIGO DE ERROR,DESCRIPCION DEL CODIGO\nXX,too short\n"
	if _, err := Load(strings.NewReader(input)); err == nil {
		t.Error("expected error when no usable codes remain")
	}
}

func TestLoad_Latin1(t *testing.T) {
	// Latin-1 bytes: "Pérdida" with é as 0xE9
	var b strings.Builder
	b.WriteString("CODIGO DE ERROR,DESCRIPCION DEL CODIGO\n")
	b.WriteString("E20301,P")
	b.WriteByte(0xE9)
	b.WriteString("rdida de enlace\n")

	idx, err := Load(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	entry := idx.Lookup("E20301")
	if entry == nil {
		t.Fatal("expected E20301 to be indexed")
	}
	if entry.Description != "Pérdida de enlace" {
		t.Errorf("expected Latin-1 decoded description, got %q", entry.Description)
	}
}

func TestLoad_AccentedCodeHeader(t *testing.T) {
	input := "CÓDIGO DE ERROR,DESCRIPTION\nE41200,Power failure during operation\n"
	idx, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if idx.Lookup("E41200") == nil {
		t.Error("expected accented header spelling to be recognized")
	}
}

func TestIndex_Codes(t *testing.T) {
	idx, err := Load(strings.NewReader(sampleMatrix))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	codes := idx.Codes()
	expected := []string{"E10A01", "E20301", "E30F02"}
	if len(codes) != len(expected) {
		t.Fatalf("expected %d codes, got %d", len(expected), len(codes))
	}
	for i, code := range expected {
		if codes[i] != code {
			t.Errorf("codes[%d] = %s, want %s (load order)", i, codes[i], code)
		}
	}

	codes[0] = "mutated"
	if idx.Codes()[0] != "E10A01" {
		t.Error("Codes() must return a copy")
	}
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	if idx.Lookup("E10A01") != nil {
		t.Error("nil index Lookup should return nil")
	}
	if idx.Len() != 0 {
		t.Error("nil index Len should be 0")
	}
	if idx.Codes() != nil {
		t.Error("nil index Codes should be nil")
	}
}

func TestPlaceholderEntry(t *testing.T) {
	entry := PlaceholderEntry("E77777")

	if entry.Code != "E77777" {
		t.Errorf("expected code to carry through, got %s", entry.Code)
	}
	if entry.Category != UnknownCategory {
		t.Errorf("expected category %q, got %q", UnknownCategory, entry.Category)
	}
	if entry.Description != UnknownDescription {
		t.Errorf("expected description %q, got %q", UnknownDescription, entry.Description)
	}
	if entry.SolutionType != UnknownSolutionType {
		t.Errorf("expected solution type %q, got %q", UnknownSolutionType, entry.SolutionType)
	}
}
