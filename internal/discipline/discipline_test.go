package discipline

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"hvac prefix", "HVAC_Floor_Plan_L1.dxf", HVAC},
		{"electrical", "Electrical_Schematic_Main.dxf", Electrical},
		{"no keyword", "randomfile.dxf", General},
		{"hvac wins over electrical", "hvac_electrical.dxf", HVAC},
		{"electrical wins over mechanical", "power_piping.dxf", Electrical},
		{"mechanical", "Plumbing-Riser.DXF", Mechanical},
		{"structural", "foundation_detail.dxf", Structural},
		{"heating synonym", "Heating-Zone-2.dxf", HVAC},
		{"empty", "", General},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.filename); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestDocumentCategory(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"IBC_2021.pdf", "Building"},
		{"nec-2020-handbook.pdf", "Electrical"},
		{"IMC chapter 4.docx", "Mechanical"},
		{"ipc.doc", "Plumbing"},
		{"NFPA_72.pdf", "Fire Safety"},
		{"local-amendments.pdf", "General"},
	}

	for _, tt := range tests {
		if got := DocumentCategory(tt.filename); got != tt.want {
			t.Errorf("DocumentCategory(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestKnown(t *testing.T) {
	for _, label := range []string{HVAC, Electrical, Mechanical, Structural, General} {
		if !Known(label) {
			t.Errorf("expected %q to be known", label)
		}
	}
	if Known("Civil") {
		t.Error("expected Civil to be unknown")
	}
}
