package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/aziot-sas-agent/pkg/file"
)

type sample struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

func TestFileService_IsFileExists(t *testing.T) {
	fs := file.NewFileService()
	path := filepath.Join(t.TempDir(), "present")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

	exists, err := fs.IsFileExists(path)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = fs.IsFileExists(filepath.Join(t.TempDir(), "missing"))
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestFileService_ReadFileRaw(t *testing.T) {
	fs := file.NewFileService()
	dir := t.TempDir()

	path := filepath.Join(dir, "cert.pem")
	require.NoError(t, os.WriteFile(path, []byte("pem"), 0600))
	data, err := fs.ReadFileRaw(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte("pem"), data)

	empty := filepath.Join(dir, "empty.pem")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, err = fs.ReadFileRaw(empty)
	assert.Error(t, err)

	_, err = fs.ReadFileRaw(filepath.Join(dir, "missing.pem"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileService_ReadYamlFile_KeepsDefaults(t *testing.T) {
	fs := file.NewFileService()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: true\n"), 0600))

	v := sample{Name: "default"}
	err := fs.ReadYamlFile(path, &v)

	assert.NoError(t, err)
	assert.Equal(t, sample{Name: "default", Enabled: true}, v)
}

func TestFileService_ReadYamlFile_Empty(t *testing.T) {
	fs := file.NewFileService()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	v := sample{Name: "default"}
	assert.NoError(t, fs.ReadYamlFile(path, &v))
	assert.Equal(t, "default", v.Name)
}

func TestFileService_ReadYamlFile_UnknownField(t *testing.T) {
	fs := file.NewFileService()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nmae: typo\n"), 0600))

	var v sample
	assert.Error(t, fs.ReadYamlFile(path, &v))
}
