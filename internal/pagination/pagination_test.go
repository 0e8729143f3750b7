package pagination

import (
	"errors"
	"testing"
	"time"
)

func TestParseParams_Defaults(t *testing.T) {
	p := ParseParams("", "")
	if p.Page != 1 || p.Size != DefaultPageSize {
		t.Errorf("expected page 1 size %d, got %+v", DefaultPageSize, p)
	}
}

func TestParseParams_Malformed(t *testing.T) {
	tests := []struct {
		rawPage, rawSize string
	}{
		{"abc", "xyz"},
		{"-1", "0"},
		{"0", "-10"},
		{"1.5", "2.5"},
	}

	for _, tt := range tests {
		p := ParseParams(tt.rawPage, tt.rawSize)
		if p.Page != 1 || p.Size != DefaultPageSize {
			t.Errorf("ParseParams(%q, %q) = %+v, want defaults", tt.rawPage, tt.rawSize, p)
		}
	}
}

func TestParseParams_CapsPageSize(t *testing.T) {
	p := ParseParams("2", "5000")
	if p.Size != MaxPageSize {
		t.Errorf("expected page size capped at %d, got %d", MaxPageSize, p.Size)
	}
	if p.Page != 2 {
		t.Errorf("expected page 2, got %d", p.Page)
	}
}

func TestParams_Offset(t *testing.T) {
	tests := []struct {
		page, size, want int
	}{
		{1, 10, 0},
		{2, 10, 10},
		{3, 10, 20},
		{5, 25, 100},
	}

	for _, tt := range tests {
		p := Params{Page: tt.page, Size: tt.size}
		if got := p.Offset(); got != tt.want {
			t.Errorf("Params{%d, %d}.Offset() = %d, want %d", tt.page, tt.size, got, tt.want)
		}
	}
}

func TestPages(t *testing.T) {
	tests := []struct {
		count, size, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{100, 10, 10},
		{1001, 1000, 2},
	}

	for _, tt := range tests {
		if got := Pages(tt.count, tt.size); got != tt.want {
			t.Errorf("Pages(%d, %d) = %d, want %d", tt.count, tt.size, got, tt.want)
		}
	}
}

func TestCursor_RoundTrip(t *testing.T) {
	original := Cursor{
		ID:      "01HV3ZQXJ8K9WNPT4R6Y2M5DCB",
		Created: time.Date(2024, 5, 20, 12, 30, 0, 0, time.UTC),
	}

	token := EncodeCursor(original)
	decoded, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("DecodeCursor failed: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, original.ID)
	}
	if !decoded.Created.Equal(original.Created) {
		t.Errorf("Created = %v, want %v", decoded.Created, original.Created)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, token := range []string{"!!!not-base64!!!", "bm90LWpzb24"} {
		if _, err := DecodeCursor(token); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("DecodeCursor(%q) error = %v, want ErrInvalidCursor", token, err)
		}
	}
}
