package protect

import "testing"

func TestMatchGlobPattern(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"a/b/c", "a/b/c", true},
		{"a/b/c", "a/*/c", true},
		{"a/b/c", "**/c", true},
		{"a/b/c", "a/**", true},
		{"a/b/c", "**", true},
		{"a/b/c", "a/b", false},
		{"deploy/secrets/x", "**/secrets/**", true},
		{"secrets/x", "**/secrets/**", true},
		{"a/secret/x", "**/secrets/**", false},
		{"dist/app.pem", "**/*.pem", true},
		{"dist/app.bin", "**/*.pem", false},
		{"a/bXc/d", "a/b*c/d", true},
		{"a/bc/d", "a/b*c/d", true},
	}

	for _, tt := range tests {
		t.Run(tt.path+"|"+tt.pattern, func(t *testing.T) {
			if got := matchGlobPattern(tt.path, tt.pattern); got != tt.want {
				t.Errorf("matchGlobPattern(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
			}
		})
	}
}
