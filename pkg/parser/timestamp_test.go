package parser

import "testing"

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		wantNumeric bool
		wantSeconds float64
	}{
		{name: "float", field: "1.5", wantNumeric: true, wantSeconds: 1.5},
		{name: "integer", field: "42", wantNumeric: true, wantSeconds: 42},
		{name: "negative", field: "-0.25", wantNumeric: true, wantSeconds: -0.25},
		{name: "padded", field: " 3.0 ", wantNumeric: true, wantSeconds: 3},
		{name: "exponent", field: "1e3", wantNumeric: true, wantSeconds: 1000},
		{name: "text", field: "bad"},
		{name: "empty", field: ""},
		{name: "partial number", field: "1.5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(tt.field)
			if got.Text != tt.field {
				t.Errorf("Text = %q, want %q", got.Text, tt.field)
			}
			if got.Numeric != tt.wantNumeric {
				t.Fatalf("Numeric = %v, want %v", got.Numeric, tt.wantNumeric)
			}
			if got.Numeric && got.Seconds != tt.wantSeconds {
				t.Errorf("Seconds = %v, want %v", got.Seconds, tt.wantSeconds)
			}
		})
	}
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"1.5", `1.5`},
		{"boot", `"boot"`},
		{"NaN", `"NaN"`},
		{"inf", `"inf"`},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := ParseTimestamp(tt.field).MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTimestamp_String(t *testing.T) {
	if got := ParseTimestamp("1.50").String(); got != "1.5" {
		t.Errorf("String() = %q, want %q", got, "1.5")
	}
	if got := ParseTimestamp("boot").String(); got != "boot" {
		t.Errorf("String() = %q, want %q", got, "boot")
	}
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	var num, text Timestamp
	if err := num.UnmarshalJSON([]byte(`1.5`)); err != nil {
		t.Fatalf("UnmarshalJSON(number) error = %v", err)
	}
	if !num.Numeric || num.Seconds != 1.5 {
		t.Errorf("UnmarshalJSON(number) = %+v", num)
	}
	if err := text.UnmarshalJSON([]byte(`"boot"`)); err != nil {
		t.Fatalf("UnmarshalJSON(string) error = %v", err)
	}
	if text.Numeric || text.Text != "boot" {
		t.Errorf("UnmarshalJSON(string) = %+v", text)
	}
	if err := text.UnmarshalJSON([]byte(`{}`)); err == nil {
		t.Error("UnmarshalJSON(object) expected error")
	}
}
