package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealgrid/mealgrid/app/controllers"
	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/app/repositories"
	"github.com/mealgrid/mealgrid/app/routes"
	"github.com/mealgrid/mealgrid/app/services"
	"github.com/mealgrid/mealgrid/pkg/auth"
	"github.com/mealgrid/mealgrid/pkg/middleware"
	"github.com/mealgrid/mealgrid/pkg/payment"
	"github.com/mealgrid/mealgrid/pkg/router"
	"github.com/mealgrid/mealgrid/pkg/session"
)

// ── in-memory fakes ──

type memPrincipals struct{ byEmail map[string]models.Principal }

func newMemPrincipals() *memPrincipals {
	return &memPrincipals{byEmail: map[string]models.Principal{}}
}

func (s *memPrincipals) Create(_ context.Context, p *models.Principal) error {
	if _, ok := s.byEmail[p.Email]; ok {
		return repositories.ErrDuplicate
	}
	p.ID = primitive.NewObjectID()
	s.byEmail[p.Email] = *p
	return nil
}

func (s *memPrincipals) FindByEmail(_ context.Context, email string) (models.Principal, error) {
	p, ok := s.byEmail[email]
	if !ok {
		return models.Principal{}, repositories.ErrNotFound
	}
	return p, nil
}

func (s *memPrincipals) FindByID(_ context.Context, id primitive.ObjectID) (models.Principal, error) {
	for _, p := range s.byEmail {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Principal{}, repositories.ErrNotFound
}

type memFoods struct{ foods map[primitive.ObjectID]models.Food }

func newMemFoods() *memFoods { return &memFoods{foods: map[primitive.ObjectID]models.Food{}} }

func (s *memFoods) Create(_ context.Context, f *models.Food) error {
	f.ID = primitive.NewObjectID()
	s.foods[f.ID] = *f
	return nil
}

func (s *memFoods) FindByID(_ context.Context, id primitive.ObjectID) (models.Food, error) {
	f, ok := s.foods[id]
	if !ok {
		return models.Food{}, repositories.ErrNotFound
	}
	return f, nil
}

func (s *memFoods) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Food, error) {
	out := []models.Food{}
	for _, id := range ids {
		if f, ok := s.foods[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *memFoods) All(_ context.Context) ([]models.Food, error) {
	out := []models.Food{}
	for _, f := range s.foods {
		out = append(out, f)
	}
	return out, nil
}

func (s *memFoods) UpdateOwned(_ context.Context, id, creatorID primitive.ObjectID, f models.Food) (models.Food, error) {
	cur, ok := s.foods[id]
	if !ok || cur.CreatorID != creatorID {
		return models.Food{}, repositories.ErrNotFound
	}
	f.ID, f.CreatorID = id, creatorID
	s.foods[id] = f
	return f, nil
}

func (s *memFoods) DeleteOwned(_ context.Context, id, creatorID primitive.ObjectID) (models.Food, error) {
	cur, ok := s.foods[id]
	if !ok || cur.CreatorID != creatorID {
		return models.Food{}, repositories.ErrNotFound
	}
	delete(s.foods, id)
	return cur, nil
}

type memOrders struct {
	orders    []models.Order
	purchases []models.Purchase
}

func (s *memOrders) CreateOrder(_ context.Context, o *models.Order) error {
	o.ID = primitive.NewObjectID()
	s.orders = append(s.orders, *o)
	return nil
}

func (s *memOrders) CreatePurchase(_ context.Context, p *models.Purchase) error {
	p.ID = primitive.NewObjectID()
	s.purchases = append(s.purchases, *p)
	return nil
}

func (s *memOrders) PurchasesByUser(_ context.Context, userID primitive.ObjectID) ([]models.Purchase, error) {
	var out []models.Purchase
	for _, p := range s.purchases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memDisk struct{ files map[string][]byte }

func newMemDisk() *memDisk { return &memDisk{files: map[string][]byte{}} }

func (d *memDisk) Put(path string, content []byte) error { d.files[path] = content; return nil }
func (d *memDisk) PutStream(path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.files[path] = data
	return nil
}
func (d *memDisk) Get(path string) ([]byte, error) { return d.files[path], nil }
func (d *memDisk) Exists(path string) bool         { _, ok := d.files[path]; return ok }
func (d *memDisk) Delete(path string) error        { delete(d.files, path); return nil }
func (d *memDisk) URL(path string) string          { return "https://cdn.test/" + path }

type stubIntents struct{}

func (stubIntents) CreateIntent(_ context.Context, amountCents int64, _ string) (*payment.Intent, error) {
	return &payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret", Amount: amountCents, Currency: "usd"}, nil
}

// newTestServer wires the whole HTTP surface over in-memory stores.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	userIssuer := auth.NewIssuer(auth.RoleUser, "user-secret")
	adminIssuer := auth.NewIssuer(auth.RoleAdmin, "admin-secret")

	users := newMemPrincipals()
	admins := newMemPrincipals()
	foods := newMemFoods()
	orders := &memOrders{}

	userAuthSvc := services.NewAuthService(users, userIssuer, "User")
	adminAuthSvc := services.NewAuthService(admins, adminIssuer, "Admin")
	foodSvc := services.NewFoodService(foods, newMemDisk(), nil)
	paymentSvc := services.NewPaymentService(foods, users, stubIntents{})
	orderSvc := services.NewOrderService(orders, foods)

	cookieOpts := session.DefaultOptions()

	r := router.New()
	routes.RegisterAPI(r, routes.Controllers{
		UserAuth:   controllers.NewAuthController(userAuthSvc, "User", cookieOpts),
		AdminAuth:  controllers.NewAuthController(adminAuthSvc, "Admin", cookieOpts),
		Food:       controllers.NewFoodController(foodSvc, paymentSvc),
		Order:      controllers.NewOrderController(orderSvc),
		UserGuard:  middleware.NewGuard(userIssuer),
		AdminGuard: middleware.NewGuard(adminIssuer),
		Foods:      foodSvc,
	})

	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func signupAndLogin(t *testing.T, srv *httptest.Server, kind, email string) string {
	t.Helper()
	body := map[string]any{
		"firstName": "Jamie",
		"lastName":  "Fox",
		"email":     email,
		"password":  "supersecret",
	}
	resp, _ := postJSON(t, srv.URL+"/api/v1/"+kind+"/signup", body, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, payload := postJSON(t, srv.URL+"/api/v1/"+kind+"/login", map[string]any{
		"email": email, "password": "supersecret",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := payload["data"].(map[string]any)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// principalID extracts the principal id from a user token.
func principalID(t *testing.T, userToken string) string {
	t.Helper()
	claims, err := auth.NewIssuer(auth.RoleUser, "user-secret").Verify(userToken)
	require.NoError(t, err)
	return claims.PrincipalID
}

// createTestFood creates a catalog entry through the admin multipart
// endpoint and returns its id.
func createTestFood(t *testing.T, srv *httptest.Server, adminToken, title string) string {
	t.Helper()

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("title", title))
	require.NoError(t, mw.WriteField("description", "Test dish."))
	require.NoError(t, mw.WriteField("price", "12.50"))
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="image"; filename="dish.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/food/create", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	food := decodeBody(t, resp)["data"].(map[string]any)["food"].(map[string]any)
	id, _ := food["_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestSignupLoginAndEmptyPurchases(t *testing.T) {
	srv := newTestServer(t)
	token := signupAndLogin(t, srv, "user", "jamie@example.com")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/user/purchases", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeBody(t, resp)
	data := payload["data"].(map[string]any)
	assert.Empty(t, data["purchase"])
	assert.Empty(t, data["foodData"])
}

func TestPurchasesRejectsAdminToken(t *testing.T) {
	srv := newTestServer(t)
	adminToken := signupAndLogin(t, srv, "admin", "boss@example.com")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/user/purchases", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminCreatesFoodAndUserBuysIt(t *testing.T) {
	srv := newTestServer(t)
	adminToken := signupAndLogin(t, srv, "admin", "boss@example.com")
	userToken := signupAndLogin(t, srv, "user", "jamie@example.com")

	foodID := createTestFood(t, srv, adminToken, "Margherita Pizza")

	// Anyone can read the catalog.
	listResp, err := http.Get(srv.URL + "/api/v1/food/foods")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	listResp.Body.Close()

	// User starts a card payment.
	resp, payload := postJSON(t, srv.URL+"/api/v1/food/buy/"+foodID, nil,
		map[string]string{"Authorization": "Bearer " + userToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "pi_test_secret", data["clientSecret"])
}

func TestOrderShowsUpInPurchaseHistory(t *testing.T) {
	srv := newTestServer(t)
	adminToken := signupAndLogin(t, srv, "admin", "boss@example.com")
	userToken := signupAndLogin(t, srv, "user", "jamie@example.com")

	foodID := createTestFood(t, srv, adminToken, "Margherita Pizza")

	// The frontend reports the payment outcome.
	resp, payload := postJSON(t, srv.URL+"/api/v1/order", map[string]any{
		"email":     "jamie@example.com",
		"userId":    principalID(t, userToken),
		"foodId":    foodID,
		"paymentId": "pi_test",
		"amount":    12.50,
		"status":    "succeeded",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := payload["data"].(map[string]any)
	assert.Equal(t, true, data["purchaseRecorded"])

	// The purchase now appears in the user's history, joined with the food.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/user/purchases", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	history := decodeBody(t, resp)["data"].(map[string]any)
	require.Len(t, history["purchase"], 1)
	foods := history["foodData"].([]any)
	require.Len(t, foods, 1)
	assert.Equal(t, "Margherita Pizza", foods[0].(map[string]any)["title"])
}

func TestCreateFoodRequiresAdminToken(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/food/create", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutWithoutCookieIs401(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/user/logout")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGraphQLFoodsQuery(t *testing.T) {
	srv := newTestServer(t)
	adminToken := signupAndLogin(t, srv, "admin", "boss@example.com")
	createTestFood(t, srv, adminToken, "Caesar Salad")

	resp, payload := postJSON(t, srv.URL+"/api/v1/graphql", map[string]any{
		"query": `{ foods { title price } }`,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := payload["data"].(map[string]any)
	foods := data["foods"].([]any)
	require.Len(t, foods, 1)
	assert.Equal(t, "Caesar Salad", foods[0].(map[string]any)["title"])
}
