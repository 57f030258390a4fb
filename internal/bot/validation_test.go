package bot

import (
	"testing"

	"grimaldi/internal/composition"
)

func TestParseHeight(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"meters with dot", "1.75", 1.75, false},
		{"meters with comma", "1,75", 1.75, false},
		{"centimeters", "175", 1.75, false},
		{"spaces", "  1.6 ", 1.6, false},
		{"too short", "0.3", 0, true},
		{"too tall", "2.8", 0, true},
		{"not a number", "alto", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHeight(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHeight(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseHeight(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"valid weight", "80", 80, false},
		{"comma decimal", "72,5", 72.5, false},
		{"minimum valid", "20", 20, false},
		{"maximum valid", "400", 400, false},
		{"too light", "19.9", 0, true},
		{"too heavy", "401", 0, true},
		{"negative", "-10", 0, true},
		{"not a number", "x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWeight(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWeight(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseWeight(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"valid age", "30", 30, false},
		{"minimum valid", "1", 1, false},
		{"maximum valid", "120", 120, false},
		{"zero", "0", 0, true},
		{"too old", "121", 0, true},
		{"decimal", "30.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAge(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAge(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseAge(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSex(t *testing.T) {
	tests := []struct {
		input   string
		want    composition.Sex
		wantErr bool
	}{
		{"M", composition.SexMale, false},
		{"m", composition.SexMale, false},
		{"Masculino", composition.SexMale, false},
		{"F", composition.SexFemale, false},
		{" female ", composition.SexFemale, false},
		{"X", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSex(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSex(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseSex(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMeasurements(t *testing.T) {
	m, err := parseMeasurements("33 28,5 92 100 57 37")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := composition.Measurements{Arms: 33, Forearms: 28.5, Waist: 92, Hip: 100, Thighs: 57, Calves: 37}
	if m != want {
		t.Errorf("parseMeasurements = %+v, want %+v", m, want)
	}

	tests := []struct {
		name  string
		input string
		field string
	}{
		{"too few", "33 28 92", "measurements"},
		{"too many", "1 2 3 4 5 6 7", "measurements"},
		{"zero waist", "33 28 0 100 57 37", "waist"},
		{"text", "33 28 92 abc 57 37", "hip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMeasurements(tt.input)
			ve, ok := err.(composition.ValidationError)
			if !ok {
				t.Fatalf("parseMeasurements(%q) error = %v, want ValidationError", tt.input, err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestLateralURL(t *testing.T) {
	tests := []struct {
		caption string
		want    string
	}{
		{"", ""},
		{"lateral https://img/side.jpg", "https://img/side.jpg"},
		{"http://a http://b", "http://a"},
		{"sem link", ""},
	}
	for _, tt := range tests {
		if got := lateralURL(tt.caption); got != tt.want {
			t.Errorf("lateralURL(%q) = %q, want %q", tt.caption, got, tt.want)
		}
	}
}
