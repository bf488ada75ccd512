package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shakram02/sql-schema-mcp/internal/dialect"
	apperrors "github.com/shakram02/sql-schema-mcp/internal/errors"
	"github.com/shakram02/sql-schema-mcp/internal/resource"
	"github.com/shakram02/sql-schema-mcp/internal/testutil"
)

const testBase = "sqlite:///catalog.db"

func newTestCatalog(t *testing.T, pool Pool, schemas ...string) *Catalog {
	t.Helper()

	codec, err := resource.NewCodec(testBase)
	require.NoError(t, err)

	c, err := New(Config{
		Logger:    testutil.Logger(),
		Pool:      pool,
		Dialect:   &dialect.SQLite{},
		Codec:     codec,
		AllowList: resource.NewAllowList(schemas),
	})
	require.NoError(t, err)
	return c
}

func salesDB(t *testing.T) Pool {
	return testutil.SQLite(t, []string{"sales", "finance"},
		`CREATE TABLE main.users (id INTEGER PRIMARY KEY, email TEXT NOT NULL, created_at TIMESTAMP)`,
		`CREATE TABLE sales.orders (id INTEGER, user_id INTEGER, total NUMERIC)`,
		`CREATE TABLE sales.invoices (id INTEGER)`,
		`CREATE TABLE finance.orders (id INTEGER, secret TEXT)`,
	)
}

func TestCatalog_New_Validate(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.ErrorContains(t, err, "logger is required")

	_, err = New(Config{Logger: testutil.Logger()})
	require.ErrorContains(t, err, "pool is required")
}

func TestCatalog_List(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t, salesDB(t), "main", "sales")

	resources, err := c.List(context.Background())
	require.NoError(t, err)

	var got []string
	for _, r := range resources {
		require.Equal(t, "application/json", r.MIMEType)
		got = append(got, r.URI)
	}
	require.Equal(t, []string{
		testBase + "/main/users/schema",
		testBase + "/sales/invoices/schema",
		testBase + "/sales/orders/schema",
	}, got)
	require.Equal(t, `"main.users" database schema`, resources[0].Name)
}

func TestCatalog_List_OrderIgnoresAllowListOrder(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t, salesDB(t), "sales", "main")

	resources, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 3)
	require.Equal(t, testBase+"/main/users/schema", resources[0].URI)
}

func TestCatalog_List_Empty(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t, testutil.SQLite(t, nil), "main")

	resources, err := c.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resources)
	require.Empty(t, resources)
}

func TestCatalog_List_PoolFailure(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t, testutil.FailingPool{}, "main")

	_, err := c.List(context.Background())
	require.True(t, apperrors.Is(err, apperrors.Database), "got %v", err)
	require.ErrorIs(t, err, testutil.ErrPoolExhausted)
}

func TestCatalog_List_UnknownSchemaFailsWhole(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t, salesDB(t), "main", "missing")

	resources, err := c.List(context.Background())
	require.Nil(t, resources)
	require.True(t, apperrors.Is(err, apperrors.Database), "got %v", err)
}

func TestCatalog_Read(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t, salesDB(t), "main", "sales")

	text, err := c.Read(context.Background(), testBase+"/sales/orders/schema")
	require.NoError(t, err)

	var cols []Column
	require.NoError(t, json.Unmarshal([]byte(text), &cols))
	require.Equal(t, []Column{
		{ColumnName: "id", DataType: "INTEGER"},
		{ColumnName: "user_id", DataType: "INTEGER"},
		{ColumnName: "total", DataType: "NUMERIC"},
	}, cols)
	require.Contains(t, text, "\n  {", "expected indented JSON")
}

func TestCatalog_Read_Errors(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t, salesDB(t), "main", "sales")

	tests := []struct {
		name string
		uri  string
		kind apperrors.Kind
	}{
		{"schema not allowed", testBase + "/finance/orders/schema", apperrors.SchemaNotAllowed},
		{"empty schema", testBase + "//orders/schema", apperrors.SchemaNotAllowed},
		{"bad marker", testBase + "/sales/orders/data", apperrors.InvalidResourceURI},
		{"too short", "sqlite:///orders", apperrors.InvalidResourceURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := c.Read(context.Background(), tt.uri)
			require.Error(t, err)
			require.Equal(t, tt.kind, apperrors.KindOf(err), "got %v", err)
		})
	}
}

func TestCatalog_Read_MissingTable(t *testing.T) {
	t.Parallel()

	c := newTestCatalog(t, salesDB(t), "sales")

	text, err := c.Read(context.Background(), testBase+"/sales/nope/schema")
	require.NoError(t, err)
	require.Equal(t, "[]", text)
}
