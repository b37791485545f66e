package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fumola-dev/fumola/cas"
	"github.com/fumola-dev/fumola/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestModelSpecs runs all TOML spec files in testdata as subtests
func TestModelSpecs(t *testing.T) {
	testdataDir := filepath.Join("..", "testdata")

	err := filepath.Walk(testdataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".toml") {
			return nil
		}

		relPath, _ := filepath.Rel(testdataDir, path)
		testName := strings.TrimSuffix(relPath, ".toml")
		testName = strings.ReplaceAll(testName, string(filepath.Separator), "/")

		t.Run(testName, func(t *testing.T) {
			spec, err := model.LoadSpecFromFile(path)
			require.NoError(t, err, "Failed to load spec file")

			casStore := cas.NewLRUCache(cas.NewMemoryCAS(), 10000)
			exec, err := spec.BuildExecutor(casStore)
			require.NoError(t, err, "Failed to build executor")
			require.NoError(t, exec.Initialize(), "Failed to initialize executor")

			result, err := exec.Run()
			require.NoError(t, err, "Error while running")
			require.NotNil(t, result, "Result should not be nil")

			t.Logf("%d rounds, root %s, final state 0x%x", result.Rounds, result.Root, result.Final)
			assert.True(t, result.Success, "Failures: %v", result.Failures)
		})
		return nil
	})

	require.NoError(t, err, "Error walking testdata directory")
}

// TestModelSpecsAreReproducible runs each spec twice and compares fingerprints
func TestModelSpecsAreReproducible(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "testdata", "*.toml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	run := func(path string) *model.RunResult {
		spec, err := model.LoadSpecFromFile(path)
		require.NoError(t, err)
		exec, err := spec.BuildExecutor(cas.NewMemoryCAS())
		require.NoError(t, err)
		require.NoError(t, exec.Initialize())
		result, err := exec.Run()
		require.NoError(t, err)
		return result
	}

	for _, path := range paths {
		first := run(path)
		second := run(path)
		assert.Equal(t, first.Initial, second.Initial, path)
		assert.Equal(t, first.Final, second.Final, path)
		assert.Equal(t, first.Rounds, second.Rounds, path)
	}
}
