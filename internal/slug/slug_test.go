package slug

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"File Name", "file_name"},
		{"File-Name", "filename"},
		{"File_Name", "file_name"},
		{"FileName", "filename"},
		{"", ""},
		{"Café Notes!", "caf_notes"},
		{"  two  spaces ", "__two__spaces_"},
		{"2024-01-01 Daily", "20240101_daily"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"File Name", "File-Name", "ÄÖÜ mixed Case", "a|b]c", "tab\tsep", "日本語 メモ", "already_normal_42",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestPathKey(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"file1.md", "file1"},
		{"Sub Dir/my_note.md", "sub_dir_my_note"},
		{"a/b/c.md", "a_b_c"},
		{"dir-with.dots/x.md", "dir-with.dots_x"},
		{"notes.md.md", "notes.md"},
	}
	for _, tt := range tests {
		if got := PathKey(tt.rel, "md"); got != tt.want {
			t.Errorf("PathKey(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func TestTargetKey_KeepsPunctuation(t *testing.T) {
	if got := TargetKey("My Note-v2"); got != "my_note-v2" {
		t.Errorf("TargetKey = %q, want %q", got, "my_note-v2")
	}
	if got := TargetKey("File1"); got != "file1" {
		t.Errorf("TargetKey = %q, want %q", got, "file1")
	}
}
