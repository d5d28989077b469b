package validation

import (
	"testing"
)

func TestValidateFilename(t *testing.T) {
	testCases := []struct {
		name        string
		filename    string
		expectValid bool
	}{
		{"simple", "file.txt", true},
		{"with_dash", "my-file.txt", true},
		{"version_dots", "file.v1.2.3.txt", true},
		{"hidden_file", ".hidden", true},
		{"contains_dots", "data..v2.csv", true},
		{"spaces", "my file.txt", true},

		{"empty", "", false},
		{"parent_dir", "..", false},
		{"current_dir", ".", false},
		{"unix_separator", "dir/file.txt", false},
		{"windows_separator", "dir\\file.txt", false},
		{"traversal_attempt", "../etc/passwd", false},
		{"null_byte", "file\x00.txt", false},
		{"absolute_path", "/etc/passwd", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFilename(tc.filename)
			if tc.expectValid && err != nil {
				t.Errorf("Expected filename %q to be valid, got error: %v", tc.filename, err)
			}
			if !tc.expectValid && err == nil {
				t.Errorf("Expected filename %q to be invalid", tc.filename)
			}
		})
	}
}

func TestValidateEntryPath(t *testing.T) {
	testCases := []struct {
		name        string
		entry       string
		expectValid bool
	}{
		{"top_level", "a.txt", true},
		{"nested", "docs/img/logo.png", true},

		{"empty", "", false},
		{"absolute", "/etc/passwd", false},
		{"parent_component", "docs/../../x", false},
		{"leading_parent", "../x", false},
		{"dot_component", "docs/./x", false},
		{"empty_component", "docs//x", false},
		{"trailing_slash", "docs/", false},
		{"backslash_component", "docs/a\\b", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEntryPath(tc.entry)
			if tc.expectValid && err != nil {
				t.Errorf("Expected entry %q to be valid, got error: %v", tc.entry, err)
			}
			if !tc.expectValid && err == nil {
				t.Errorf("Expected entry %q to be invalid", tc.entry)
			}
		})
	}
}

func TestValidatePathInDirectory(t *testing.T) {
	testCases := []struct {
		name        string
		path        string
		baseDir     string
		expectValid bool
	}{
		{"simple_file", "file.txt", "/tmp/out", true},
		{"subdirectory", "subdir/file.txt", "/tmp/out", true},
		{"deep_nesting", "a/b/c/d/file.txt", "/tmp/out", true},
		{"parent_then_back", "subdir/../file.txt", "/tmp/out", true},
		{"relative_base", "file.txt", "out", true},
		{"dotdot_prefix_name", "..data/file.txt", "/tmp/out", true},

		{"escape_one_level", "../file.txt", "/tmp/out", false},
		{"escape_multiple", "../../file.txt", "/tmp/out", false},
		{"complex_escape", "subdir/../../../etc/passwd", "/tmp/out", false},
		{"absolute_outside", "/etc/passwd", "/tmp/out", false},
		{"sibling_prefix", "/tmp/outside/file.txt", "/tmp/out", false},
		{"empty_path", "", "/tmp/out", false},
		{"empty_base", "file.txt", "", false},
		{"null_byte", "a\x00b", "/tmp/out", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePathInDirectory(tc.path, tc.baseDir)
			if tc.expectValid && err != nil {
				t.Errorf("Expected path %q in base %q to be valid, got error: %v", tc.path, tc.baseDir, err)
			}
			if !tc.expectValid && err == nil {
				t.Errorf("Expected path %q in base %q to be invalid", tc.path, tc.baseDir)
			}
		})
	}
}

func TestWithinDirectory(t *testing.T) {
	accept := WithinDirectory(t.TempDir())

	for _, entry := range []string{"a.txt", "docs/b.txt"} {
		if !accept(entry) {
			t.Errorf("Expected %q to be accepted", entry)
		}
	}
	for _, entry := range []string{"../a.txt", "/etc/passwd", "docs/../../a", ""} {
		if accept(entry) {
			t.Errorf("Expected %q to be rejected", entry)
		}
	}
}
