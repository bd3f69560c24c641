package core

import (
	"errors"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"a.b@x.co", true},
		{"jane.doe@example.com", true},
		{"first+tag@sub.domain.org", true},
		{"under_score%x@a-b.io", true},
		{"not-an-email", false},
		{"", false},
		{"bad", false},
		{"missing@tld", false},
		{"@example.com", false},
		{"jane@example.c", false},
		{"jane@example.c0m", false},
		{"jane doe@example.com", false},
		{" jane@example.com", false},
		{"jane@@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidateEmail(tt.input); got != tt.want {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeHeaders(t *testing.T) {
	got := NormalizeHeaders([]string{" Name", "EMAIL", "Country ", "Age", "Signup Date"})
	want := []string{"name", "email", "country", "age", "Signup Date"}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("header %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestValidateHeaders(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		idx, err := ValidateHeaders([]string{"email", "name", "age", "country"})
		if err != nil {
			t.Fatalf("ValidateHeaders() error = %v", err)
		}
		if idx["age"] != 2 {
			t.Errorf("idx[age] = %d, want 2", idx["age"])
		}
	})

	t.Run("missing columns listed", func(t *testing.T) {
		_, err := ValidateHeaders([]string{"name", "email"})
		if !errors.Is(err, ErrMissingColumn) {
			t.Fatalf("error = %v, want ErrMissingColumn", err)
		}

		var mce *MissingColumnError
		if !errors.As(err, &mce) {
			t.Fatalf("error is %T, want *MissingColumnError", err)
		}
		if len(mce.Columns) != 2 || mce.Columns[0] != "country" || mce.Columns[1] != "age" {
			t.Errorf("Columns = %v, want [country age]", mce.Columns)
		}
		if mce.Error() != "missing required columns: country, age" {
			t.Errorf("Error() = %q", mce.Error())
		}
	})
}
