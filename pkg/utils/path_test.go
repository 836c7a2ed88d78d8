package utils

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		path          string
		allowAbsolute bool
		errContains   string
	}{
		{name: "relative log file", path: "logs/dokan.log"},
		{name: "absolute allowed", path: filepath.Join(string(filepath.Separator), "var", "log", "dokan.log"), allowAbsolute: true},
		{name: "dots in file name", path: "logs/dokan.mirror.log"},
		{name: "current directory", path: "./dokan.log"},
		{name: "empty", path: "", errContains: "cannot be empty"},
		{name: "leading traversal", path: "../../etc/passwd", errContains: "directory traversal"},
		{name: "traversal in middle", path: "logs/../../../etc/passwd", errContains: "directory traversal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, tt.allowAbsolute)
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("ValidatePath(%q) error = %v", tt.path, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ValidatePath(%q) error = %v, want %q", tt.path, err, tt.errContains)
			}
		})
	}

	if runtime.GOOS != "windows" {
		if err := ValidatePath("/var/log/dokan.log", false); err == nil {
			t.Error("ValidatePath() should reject absolute paths unless allowed")
		}
	}
}

func TestSecureJoin(t *testing.T) {
	t.Parallel()

	base := t.TempDir()

	got, err := SecureJoin(base, "dir", ".", "file.dat")
	if err != nil {
		t.Fatalf("SecureJoin() error = %v", err)
	}
	if want := filepath.Join(base, "dir", "file.dat"); got != want {
		t.Errorf("SecureJoin() = %q, want %q", got, want)
	}

	if got, err := SecureJoin(base); err != nil || got != filepath.Clean(base) {
		t.Errorf("SecureJoin(base) = %q, %v", got, err)
	}

	for _, elements := range [][]string{
		{"..", "outside"},
		{"dir", "sub", "..", "..", "..", "etc"},
	} {
		if _, err := SecureJoin(base, elements...); err == nil || !strings.Contains(err.Error(), "escapes base directory") {
			t.Errorf("SecureJoin(%v) error = %v", elements, err)
		}
	}

	if _, err := SecureJoin("", "file.dat"); err == nil {
		t.Error("SecureJoin() should reject an empty base")
	}
}

func TestSecureJoinFilesystemRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix root")
	}
	got, err := SecureJoin("/", "tmp", "x")
	if err != nil || got != "/tmp/x" {
		t.Errorf("SecureJoin(/) = %q, %v", got, err)
	}
}

func TestResolveWithinBase(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "root", input: `\`, want: root},
		{name: "empty", input: "", want: root},
		{name: "backslash file", input: `\dir\file.txt`, want: filepath.Join(root, "dir", "file.txt")},
		{name: "slash file", input: "/dir/file.txt", want: filepath.Join(root, "dir", "file.txt")},
		{name: "dot segments", input: `\a\.\b`, want: filepath.Join(root, "a", "b")},
		{name: "traversal", input: `\..\outside`, wantErr: true},
		{name: "nested traversal", input: `\a\..\..\outside`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveWithinBase(root, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveWithinBase() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ResolveWithinBase() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ResolveWithinBase("", `\x`); err == nil {
		t.Error("ResolveWithinBase() should reject an empty root")
	}
}

func BenchmarkResolveWithinBase(b *testing.B) {
	root := b.TempDir()
	names := []string{`\dir\file.txt`, `\..\outside`, `\a\b\c\d.dat`}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ResolveWithinBase(root, names[i%len(names)])
	}
}
