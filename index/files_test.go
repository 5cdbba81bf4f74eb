package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/contextrank-mcp/language"
)

func newTestFile(relPath string, lang language.Tag, size int64) *ProjectFile {
	return &ProjectFile{
		Path:         "/project/" + relPath,
		RelativePath: relPath,
		Language:     lang,
		SizeBytes:    size,
		ModTime:      time.Unix(1700000000, 0),
		LineCount:    100,
		IsText:       true,
	}
}

func Test_FileIndex_AddAndGetFile(t *testing.T) {
	fi := NewFileIndex()
	fi.AddFile(newTestFile("src/main.go", language.Go, 1024))

	got := fi.GetFile("src/main.go")
	require.NotNil(t, got)
	assert.Equal(t, language.Go, got.Language)
}

func Test_FileIndex_RemoveFile(t *testing.T) {
	fi := NewFileIndex()
	fi.AddFile(newTestFile("src/main.go", language.Go, 1024))
	fi.RemoveFile("src/main.go")

	assert.Equal(t, 0, fi.FileCount())
	assert.Nil(t, fi.GetFile("src/main.go"))
}

func Test_FileIndex_RemoveDir(t *testing.T) {
	fi := NewFileIndex()
	fi.AddFile(newTestFile("src/a.ts", language.TypeScript, 1))
	fi.AddFile(newTestFile("src/deep/b.ts", language.TypeScript, 1))
	fi.AddFile(newTestFile("src-old/c.ts", language.TypeScript, 1))
	fi.AddFile(newTestFile("srcfile.ts", language.TypeScript, 1))

	assert.Equal(t, 2, fi.RemoveDir("src"))
	assert.Nil(t, fi.GetFile("src/deep/b.ts"))
	assert.NotNil(t, fi.GetFile("src-old/c.ts"))
	assert.NotNil(t, fi.GetFile("srcfile.ts"))
	assert.Equal(t, 0, fi.RemoveDir("missing"))
}

func Test_FileIndex_AllFilesSorted(t *testing.T) {
	fi := NewFileIndex()
	fi.AddFile(newTestFile("src/z.ts", language.TypeScript, 1))
	fi.AddFile(newTestFile("README.md", language.Markdown, 1))
	fi.AddFile(newTestFile("src/a.ts", language.TypeScript, 1))
	fi.AddFile(newTestFile("src/a.ts", language.TypeScript, 2))

	var paths []string
	for _, f := range fi.AllFiles() {
		paths = append(paths, f.RelativePath)
	}
	assert.Equal(t, []string{"README.md", "src/a.ts", "src/z.ts"}, paths)
	assert.Equal(t, int64(2), fi.GetFile("src/a.ts").SizeBytes)
}

func Test_FileIndex_GenerationAdvancesOnMutation(t *testing.T) {
	fi := NewFileIndex()
	g0 := fi.Generation()
	fi.AddFile(newTestFile("a.go", language.Go, 1))
	g1 := fi.Generation()
	fi.RemoveFile("missing.go")
	assert.Equal(t, g1, fi.Generation())
	fi.RemoveFile("a.go")
	assert.Greater(t, g1, g0)
	assert.Greater(t, fi.Generation(), g1)
}

func Test_FileIndex_SearchByGlob(t *testing.T) {
	fi := NewFileIndex()
	fi.AddFile(newTestFile("src/main.go", language.Go, 1024))
	fi.AddFile(newTestFile("src/utils/helper.go", language.Go, 512))
	fi.AddFile(newTestFile("test/main_test.go", language.Go, 512))
	fi.AddFile(newTestFile("README.md", language.Markdown, 256))

	results, err := fi.SearchByGlob("**/*.go", 50)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = fi.SearchByGlob("src/**/*.go", 50)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = fi.SearchByGlob("**/*.go", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	_, err = fi.SearchByGlob("[invalid", 50)
	assert.Error(t, err)
}

func Test_FileIndex_CountsAndClear(t *testing.T) {
	fi := NewFileIndex()
	fi.AddFile(newTestFile("a.go", language.Go, 100))
	fi.AddFile(newTestFile("b.go", language.Go, 200))
	fi.AddFile(newTestFile("c.ts", language.TypeScript, 300))

	assert.Equal(t, int64(600), fi.TotalSizeBytes())
	counts := fi.LanguageCounts()
	assert.Equal(t, 2, counts[language.Go])
	assert.Equal(t, 1, counts[language.TypeScript])

	fi.Clear()
	assert.Equal(t, 0, fi.FileCount())
}

func Test_Fingerprint_TracksCountMtimeAndPaths(t *testing.T) {
	fi := NewFileIndex()
	fi.AddFile(newTestFile("a.go", language.Go, 1))
	fi.AddFile(newTestFile("b.go", language.Go, 1))
	base := fi.Fingerprint()
	assert.Equal(t, 2, base.FileCount)
	assert.Equal(t, base, fi.Fingerprint())

	newer := newTestFile("b.go", language.Go, 1)
	newer.ModTime = newer.ModTime.Add(time.Minute)
	fi.AddFile(newer)
	touched := fi.Fingerprint()
	assert.NotEqual(t, base.MaxModTime, touched.MaxModTime)

	renamed := NewFileIndex()
	renamed.AddFile(newTestFile("a.go", language.Go, 1))
	renamed.AddFile(newTestFile("c.go", language.Go, 1))
	other := renamed.Fingerprint()
	assert.Equal(t, base.FileCount, other.FileCount)
	assert.Equal(t, base.MaxModTime, other.MaxModTime)
	assert.NotEqual(t, base.PathHash, other.PathHash)
}

func Test_DiskReader_ReadText(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.ts"), []byte("export const a = 1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "logo.png"), []byte{0x89, 0x50, 0x00}, 0644))

	r := DiskReader{RootDir: root}
	text, err := r.ReadText("src/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "export const a = 1\n", text)

	_, err = r.ReadText("logo.png")
	assert.ErrorIs(t, err, ErrBinary)

	_, err = r.ReadText("missing.ts")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = r.ReadText("../outside.txt")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}
