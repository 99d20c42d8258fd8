package matching

import "testing"

func TestFilter_IsExcluded(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		size     int
		options  []Option
		excluded bool
	}{
		{
			name:     "default exclusion by directory",
			path:     "/docs/node_modules/readme.md",
			size:     10,
			excluded: true,
		},
		{
			name:     "default exclusion by glob",
			path:     "/docs/app.log",
			size:     10,
			excluded: true,
		},
		{
			name:     "plain document passes",
			path:     "/docs/guide.pdf",
			size:     10,
			excluded: false,
		},
		{
			name:     "max size bound",
			path:     "/docs/huge.pdf",
			size:     20 << 20,
			options:  []Option{WithMaxFileSize(10 << 20)},
			excluded: true,
		},
		{
			name:     "inclusion restricts",
			path:     "/docs/notes.txt",
			size:     10,
			options:  []Option{WithInclusions("*.pdf")},
			excluded: true,
		},
		{
			name:     "inclusion admits",
			path:     "/docs/guide.pdf",
			size:     10,
			options:  []Option{WithInclusions("*.pdf")},
			excluded: false,
		},
		{
			name:     "explicit exclusion by basename",
			path:     "file:///docs/secret.txt",
			size:     10,
			options:  []Option{WithExclusions("secret.txt")},
			excluded: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := New(tc.options...)
			if got := f.IsExcluded(tc.path, tc.size); got != tc.excluded {
				t.Fatalf("IsExcluded(%q)=%v, expected %v", tc.path, got, tc.excluded)
			}
		})
	}
}
