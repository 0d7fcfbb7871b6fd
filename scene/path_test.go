package scene

import "testing"

func TestPathParent(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want Path
	}{
		{"prim", "/A/B", "/A"},
		{"top level prim", "/A", "/"},
		{"property", "/A/B.attr", "/A/B"},
		{"absolute root", "/", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.Parent(); got != tt.want {
				t.Errorf("Parent(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestPathName(t *testing.T) {
	tests := []struct {
		path Path
		want string
	}{
		{"/A/B", "B"},
		{"/A/B.attr", "attr"},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := tt.path.Name(); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestPathHasPrefix(t *testing.T) {
	tests := []struct {
		name   string
		path   Path
		prefix Path
		want   bool
	}{
		{"self", "/A/B", "/A/B", true},
		{"ancestor", "/A/B/C", "/A", true},
		{"property under prefix", "/A/B.attr", "/A/B", true},
		{"root prefixes everything", "/A", "/", true},
		{"sibling name collision", "/FooBar", "/Foo", false},
		{"unrelated", "/C", "/A", false},
		{"empty prefix", "/A", "", false},
		{"prefix longer than path", "/A", "/A/B", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.HasPrefix(tt.prefix); got != tt.want {
				t.Errorf("HasPrefix(%q, %q) = %v, want %v",
					tt.path, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestPathAppend(t *testing.T) {
	if got := AbsoluteRoot.AppendChild("A"); got != "/A" {
		t.Errorf("AppendChild = %q, want /A", got)
	}
	if got := Path("/A").AppendChild("B"); got != "/A/B" {
		t.Errorf("AppendChild = %q, want /A/B", got)
	}
	if got := Path("/A/B").AppendProperty("attr"); got != "/A/B.attr" {
		t.Errorf("AppendProperty = %q, want /A/B.attr", got)
	}
}

func TestParseRelative(t *testing.T) {
	tests := []struct {
		relative string
		want     []string
		wantOK   bool
	}{
		{"", nil, true},
		{".", []string{"."}, true},
		{"../..", []string{"..", ".."}, true},
		{"../attr", []string{"..", "attr"}, true},
		{"/abs", nil, false},
	}
	for _, tt := range tests {
		got, ok := ParseRelative(tt.relative)
		if ok != tt.wantOK {
			t.Errorf("ParseRelative(%q) ok = %v, want %v", tt.relative, ok, tt.wantOK)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseRelative(%q) = %v, want %v", tt.relative, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseRelative(%q)[%d] = %q, want %q",
					tt.relative, i, got[i], tt.want[i])
			}
		}
	}
}
