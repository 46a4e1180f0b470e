package seeder

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeSeedFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoader_DryRunCountsRows(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "tb_code_mst.csv",
		"group_cd,code,code_name\nB00003,EN,English\nB00003,FR,French\n")
	writeSeedFile(t, dir, "tb_corp_lan_map.csv",
		"locale_cd,corp_cd,language_cd\nen_US,US,EN\n")

	loader := NewLoader(nil, nil, testLogger(), true)
	counts, err := loader.LoadDir(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 2, counts["tb_code_mst.csv"])
	assert.Equal(t, 1, counts["tb_corp_lan_map.csv"])
	assert.Len(t, counts, 2)
}

func TestLoader_SurvivesColumnReordering(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "tb_prod_mst.csv",
		"prod_n,prod_cd,prod_g_cd,language_cd,iso_cd\nWashing Machine,WM,WM,EN,US\n")

	loader := NewLoader(nil, nil, testLogger(), true)
	counts, err := loader.LoadDir(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 1, counts["tb_prod_mst.csv"])
}

func TestLoader_EmptyDirIsAnError(t *testing.T) {
	loader := NewLoader(nil, nil, testLogger(), true)

	_, err := loader.LoadDir(context.Background(), t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognized seed files")
}

func TestLoader_UnrecognizedFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "notes.csv", "a,b\n1,2\n")
	writeSeedFile(t, dir, "tb_if_manual_list.csv",
		"prod_model_cd,item_id\nWM1234,ITEM-1\n")

	loader := NewLoader(nil, nil, testLogger(), true)
	counts, err := loader.LoadDir(context.Background(), dir)

	require.NoError(t, err)
	assert.Len(t, counts, 1)
	assert.Equal(t, 1, counts["tb_if_manual_list.csv"])
}
