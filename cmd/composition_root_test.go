package cmd_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fulfillment/cmd"
	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shopID     = "4f1c2d3e-0000-4000-8000-000000000001"
	ownerID    = "4f1c2d3e-0000-4000-8000-000000000002"
	itemID     = "4f1c2d3e-0000-4000-8000-000000000003"
	customerID = "4f1c2d3e-0000-4000-8000-000000000004"
	addressID  = "4f1c2d3e-0000-4000-8000-000000000005"
	secret     = "s3cret"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func memoryConfig(t *testing.T, seedFile string) cmd.Config {
	t.Helper()
	t.Setenv("STORAGE", cmd.StorageMemory)
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("SEED_FILE", seedFile)
	cfg, err := cmd.LoadConfig("")
	require.NoError(t, err)
	return cfg
}

const seed = `{
  "shops": [{"id": "` + shopID + `", "ownerId": "` + ownerID + `", "name": "Pho 24", "city": "Ha Noi",
             "point": {"lat": 21.0285, "lon": 105.8542}}],
  "items": [{"id": "` + itemID + `", "shopId": "` + shopID + `", "name": "Pho bo", "price": 50000}],
  "addresses": [{"id": "` + addressID + `", "customerId": "` + customerID + `", "street": "1 Trang Tien",
                 "city": "Ha Noi", "point": {"lat": 21.0245, "lon": 105.8572}}]
}`

func TestCompositionRoot_MemoryServesOrders(t *testing.T) {
	ctx := context.Background()
	root, err := cmd.NewCompositionRoot(ctx, memoryConfig(t, writeSeed(t, seed)), quiet)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, root.Close()) })

	shop, err := kernel.UUIDFromString(shopID)
	require.NoError(t, err)
	item, err := kernel.UUIDFromString(itemID)
	require.NoError(t, err)
	catalog, err := root.Store().Snapshot(ctx, []kernel.UUID{shop}, []kernel.UUID{item})
	require.NoError(t, err)
	assert.Len(t, catalog.Shops, 1)
	assert.Len(t, catalog.Items, 1)

	jobs, err := root.NewJobManager()
	require.NoError(t, err)
	require.NoError(t, jobs.Warmup(ctx))

	server, err := root.NewServer()
	require.NoError(t, err)
	e := httpin.NewEcho(quiet)
	require.NoError(t, server.Register(ctx, e))

	customer, err := kernel.UUIDFromString(customerID)
	require.NoError(t, err)
	actor, err := order.NewActor(order.RoleCustomer, customer)
	require.NoError(t, err)
	auth, err := httpin.NewAuthenticator(secret)
	require.NoError(t, err)
	token, err := auth.Issue(actor, "Ha Noi", time.Hour, time.Now())
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{
		"orderId":       kernel.NewUUID().String(),
		"addressId":     addressID,
		"paymentMethod": "cod",
		"lines":         []map[string]any{{"shopId": shopID, "itemId": itemID, "quantity": 2}},
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
}

func TestCompositionRoot_RejectsBadSeed(t *testing.T) {
	tests := map[string]string{
		"not json":      `{"shops": [`,
		"bad point":     `{"shops": [{"id": "` + shopID + `", "ownerId": "` + ownerID + `", "name": "x", "city": "Ha Noi", "point": {"lat": 91, "lon": 0}}]}`,
		"missing owner": `{"shops": [{"id": "` + shopID + `", "name": "x", "city": "Ha Noi"}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := cmd.NewCompositionRoot(context.Background(), memoryConfig(t, writeSeed(t, body)), quiet)
			assert.Error(t, err)
		})
	}
}

func TestCompositionRoot_MissingSeedFile(t *testing.T) {
	cfg := memoryConfig(t, filepath.Join(t.TempDir(), "absent.json"))

	_, err := cmd.NewCompositionRoot(context.Background(), cfg, quiet)

	assert.ErrorIs(t, err, os.ErrNotExist)
}
