package flatfile

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/rentals/internal/domain"
)

func TestReadLine(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", maxLineBytes+10)
	exact := strings.Repeat("y", maxLineBytes)

	tests := []struct {
		name    string
		input   string
		lines   []string
		tooLong []bool
	}{
		{"empty input", "", nil, nil},
		{"no trailing newline", "a\nb", []string{"a", "b"}, []bool{false, false}},
		{"crlf endings", "a\r\nb\r\n", []string{"a", "b"}, []bool{false, false}},
		{"blank line kept", "a\n\nb\n", []string{"a", "", "b"}, []bool{false, false, false}},
		{"exactly at limit", exact + "\nz\n", []string{exact, "z"}, []bool{false, false}},
		{"oversized line is drained", "a\n" + long + "\nb\n", []string{"a", long[:maxLineBytes], "b"}, []bool{false, true, false}},
		{"oversized last line", "a\n" + long, []string{"a", long[:maxLineBytes]}, []bool{false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := bufio.NewReaderSize(strings.NewReader(tt.input), 64*1024)
			var (
				lines   []string
				tooLong []bool
			)
			for {
				line, over, err := readLine(r)
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				lines = append(lines, line)
				tooLong = append(tooLong, over)
			}

			assert.Equal(t, tt.lines, lines)
			assert.Equal(t, tt.tooLong, tooLong)
		})
	}
}

func TestSaveAll_StagingIOFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		failing map[string]bool
	}{
		{"every file", map[string]bool{
			TenantsFile: true, HostsFile: true, PropertiesFile: true, AgreementsFile: true, PaymentsFile: true,
		}},
		{"one file", map[string]bool{PaymentsFile: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			original := "T1,Jane,1990-01-01,j@x.com\n"
			require.NoError(t, os.WriteFile(filepath.Join(dir, TenantsFile), []byte(original), 0o644))

			var attempts atomic.Int32
			c := New(dir)
			c.createTemp = func(d, pattern string) (*os.File, error) {
				attempts.Add(1)
				for name := range tt.failing {
					if strings.HasPrefix(pattern, "."+name+".") {
						return nil, errors.New("no space left on device")
					}
				}
				return os.CreateTemp(d, pattern)
			}

			snap, _, err := c.LoadAll(context.Background())
			require.NoError(t, err)
			snap.Tenants.Upsert(&domain.Tenant{Person: domain.Person{ID: "T2", FullName: "John", ContactInfo: "jo@x.com"}})

			err = c.SaveAll(context.Background(), snap)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrIO)
			assert.Equal(t, int32(5), attempts.Load(), "every file is attempted")
			for name := range tt.failing {
				assert.Contains(t, err.Error(), name)
			}

			data, err := os.ReadFile(filepath.Join(dir, TenantsFile))
			require.NoError(t, err)
			assert.Equal(t, original, string(data))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			assert.Equal(t, []string{TenantsFile}, names, "no staged or new files are left behind")
		})
	}
}
