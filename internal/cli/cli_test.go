package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Lelo88/inventory-api-golang/internal/items"
	"github.com/Lelo88/inventory-api-golang/internal/store"
)

type harness struct {
	repository *store.MemoryStore
	out        *bytes.Buffer
	err        *bytes.Buffer
}

func newHarness(seed ...items.Item) *harness {
	repository := store.NewMemoryStore()
	for _, item := range seed {
		_, _ = repository.Insert(context.Background(), item)
	}
	return &harness{repository: repository, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
}

func (h *harness) run(t *testing.T, input string, args ...string) error {
	t.Helper()
	h.out.Reset()
	return Run(context.Background(), args, Options{
		Repository: h.repository,
		In:         strings.NewReader(input),
		Out:        h.out,
		Err:        h.err,
	})
}

func (h *harness) items(t *testing.T) []items.Item {
	t.Helper()
	list, err := h.repository.List(context.Background())
	require.NoError(t, err)
	return list
}

func TestAdd(t *testing.T) {
	h := newHarness()

	err := h.run(t, "", "add", "--name", "Widget", "--price", "10.00", "--quantity", "5")

	require.NoError(t, err)
	require.Equal(t, []items.Item{{ID: 1, Name: "Widget", Price: 10, Quantity: 5}}, h.items(t))

	var printed record
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &printed))
	require.Equal(t, int64(1), printed.ID)
	require.Equal(t, "$10.00", printed.FormattedPrice)
	require.Contains(t, h.err.String(), "item created")
}

func TestAdd_InvalidDraftStoresNothing(t *testing.T) {
	h := newHarness()

	err := h.run(t, "", "add", "--price", "10.00", "--quantity", "5")

	require.ErrorIs(t, err, errInvalidEntry)
	require.Empty(t, h.items(t))
}

func TestAdd_NonNumericPriceFallsBackToZero(t *testing.T) {
	h := newHarness()

	err := h.run(t, "", "add", "--name", "Widget", "--price", "abc", "--quantity", "5")

	require.NoError(t, err)
	require.Equal(t, []items.Item{{ID: 1, Name: "Widget", Price: 0, Quantity: 5}}, h.items(t))
}

func TestEdit_OnlyChangedFields(t *testing.T) {
	h := newHarness(items.Item{Name: "Widget", Price: 10, Quantity: 5})

	err := h.run(t, "", "edit", "1", "--quantity", "7")

	require.NoError(t, err)
	require.Equal(t, []items.Item{{ID: 1, Name: "Widget", Price: 10, Quantity: 7}}, h.items(t))
}

func TestEdit_BlankFieldIsRejected(t *testing.T) {
	h := newHarness(items.Item{Name: "Widget", Price: 10, Quantity: 5})

	err := h.run(t, "", "edit", "1", "--name", "  ")

	require.ErrorIs(t, err, errInvalidEntry)
	require.Equal(t, "Widget", h.items(t)[0].Name)
}

func TestEdit_Errors(t *testing.T) {
	h := newHarness()

	require.ErrorIs(t, h.run(t, "", "edit", "3", "--name", "x"), items.ErrorNotFound)
	require.ErrorContains(t, h.run(t, "", "edit", "abc"), "must be a positive integer")
}

func TestList_Formats(t *testing.T) {
	h := newHarness(
		items.Item{Name: "Widget", Price: 10, Quantity: 5},
		items.Item{Name: "Bolt", Price: 0.5, Quantity: 100},
	)

	require.NoError(t, h.run(t, "", "list"))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "NAME")
	require.Contains(t, lines[1], "Bolt")
	require.Contains(t, lines[1], "$0.50")
	require.Contains(t, lines[2], "Widget")

	require.NoError(t, h.run(t, "", "list", "--output", "json"))
	var fromJSON []record
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 2)
	require.Equal(t, "Bolt", fromJSON[0].Name)

	require.NoError(t, h.run(t, "", "list", "-o", "yaml"))
	var fromYAML []record
	require.NoError(t, yaml.Unmarshal(h.out.Bytes(), &fromYAML))
	require.Equal(t, fromJSON, fromYAML)

	require.ErrorContains(t, h.run(t, "", "list", "-o", "xml"), "unsupported output format")
}

func TestShow(t *testing.T) {
	h := newHarness(items.Item{Name: "Widget", Price: 10, Quantity: 5})

	require.NoError(t, h.run(t, "", "show", "1"))

	var shown record
	require.NoError(t, yaml.Unmarshal(h.out.Bytes(), &shown))
	require.Equal(t, record{ID: 1, Name: "Widget", Price: 10, Quantity: 5, FormattedPrice: "$10.00"}, shown)

	require.ErrorIs(t, h.run(t, "", "show", "2"), items.ErrorNotFound)
}

func TestSell(t *testing.T) {
	h := newHarness(
		items.Item{Name: "Widget", Price: 10, Quantity: 1},
	)

	require.NoError(t, h.run(t, "", "sell", "1"))
	require.Equal(t, "Widget: 0 left\n", h.out.String())

	require.ErrorIs(t, h.run(t, "", "sell", "1"), items.ErrorOutOfStock)
}

func TestDelete(t *testing.T) {
	h := newHarness(items.Item{Name: "Widget"})

	require.NoError(t, h.run(t, "n\n", "delete", "1"))
	require.Contains(t, h.out.String(), "aborted")
	require.Len(t, h.items(t), 1)

	require.NoError(t, h.run(t, "y\n", "delete", "1"))
	require.Contains(t, h.out.String(), "deleted")
	require.Empty(t, h.items(t))

	require.ErrorIs(t, h.run(t, "", "delete", "1", "--force"), items.ErrorNotFound)
}

func TestExport(t *testing.T) {
	h := newHarness(items.Item{Name: "Widget", Price: 10, Quantity: 5})
	dir := t.TempDir()

	jsonFile := filepath.Join(dir, "items.json")
	require.NoError(t, h.run(t, "", "export", "--file", jsonFile))
	raw, err := os.ReadFile(jsonFile)
	require.NoError(t, err)
	var fromJSON []record
	require.NoError(t, json.Unmarshal(raw, &fromJSON))
	require.Equal(t, "Widget", fromJSON[0].Name)

	yamlFile := filepath.Join(dir, "items.yaml")
	require.NoError(t, h.run(t, "", "export", "--file", yamlFile, "--format", "yaml"))
	raw, err = os.ReadFile(yamlFile)
	require.NoError(t, err)
	var fromYAML []record
	require.NoError(t, yaml.Unmarshal(raw, &fromYAML))
	require.Equal(t, fromJSON, fromYAML)

	require.EqualError(t, h.run(t, "", "export"), "--file required")
	require.ErrorContains(t, h.run(t, "", "export", "--file", yamlFile, "--format", "csv"), "unsupported export format")
}

func TestShell(t *testing.T) {
	h := newHarness()
	input := strings.Join([]string{
		"add --name Widget --price 2.5 --quantity 3",
		"",
		"add --name Bolt",
		"sell 1",
		"exit",
		"list",
	}, "\n")

	require.NoError(t, h.run(t, input, "shell"))

	require.Equal(t, []items.Item{{ID: 1, Name: "Widget", Price: 2.5, Quantity: 2}}, h.items(t))
	require.Contains(t, h.out.String(), "Widget: 2 left")
	require.Contains(t, h.err.String(), errInvalidEntry.Error())
	require.NotContains(t, h.out.String(), "QUANTITY", "commands after exit must not run")
}

func TestFileStoreAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	var out, errOut bytes.Buffer
	run := func(args ...string) error {
		out.Reset()
		return Run(context.Background(), args, Options{Out: &out, Err: &errOut, In: strings.NewReader("")})
	}

	require.NoError(t, run("--store", "file", "--store-file", path, "add", "--name", "Widget", "--price", "1", "--quantity", "1"))

	t.Setenv("INVENTORY_STORE", "file")
	t.Setenv("INVENTORY_STORE_FILE", path)
	require.NoError(t, run("list", "-o", "json"))

	var list []record
	require.NoError(t, json.Unmarshal(out.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "Widget", list[0].Name)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.json")
	configFile := filepath.Join(dir, "inventory.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("store: file\nstore-file: "+path+"\nlog-level: debug\n"), 0o644))

	var out, errOut bytes.Buffer
	err := Run(context.Background(), []string{"--config", configFile, "add", "--name", "A", "--price", "1", "--quantity", "1"}, Options{Out: &out, Err: &errOut})

	require.NoError(t, err)
	require.FileExists(t, path)
	require.Contains(t, errOut.String(), "store opened")
}

func TestSetupErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	options := Options{Out: &out, Err: &errOut}

	require.ErrorContains(t, Run(context.Background(), []string{"--store", "postgres", "list"}, options), "--database-url required")
	require.ErrorContains(t, Run(context.Background(), []string{"--store", "sqlite", "list"}, options), "unknown store kind")
	require.ErrorContains(t, Run(context.Background(), []string{"--log-level", "loud", "list"}, options), "invalid log level")
	require.ErrorContains(t, Run(context.Background(), []string{"--config", "/nope/missing.yaml", "list"}, options), "failed to read config")
}

func TestPostgresStoreIsClosed(t *testing.T) {
	original := openPostgres
	t.Cleanup(func() { openPostgres = original })

	closed := false
	var gotURL string
	openPostgres = func(ctx context.Context, databaseURL string) (items.RepositoryAPI, func(), error) {
		gotURL = databaseURL
		return store.NewMemoryStore(), func() { closed = true }, nil
	}

	var out, errOut bytes.Buffer
	err := Run(context.Background(), []string{"--store", "postgres", "--database-url", "postgres://example", "list"}, Options{Out: &out, Err: &errOut})

	require.NoError(t, err)
	require.Equal(t, "postgres://example", gotURL)
	require.True(t, closed)
}
