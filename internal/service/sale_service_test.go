package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/FMABr/ducks-demo/internal/apierror"
	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/model"
	"github.com/FMABr/ducks-demo/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	svc        service.SaleService
	ducks      *stubDuckRepo
	customers  *stubCustomerRepo
	employees  *stubEmployeeRepo
	sales      *stubSaleRepo
	cache      *memoryRankingCache
	dispatcher *recordingDispatcher
	now        time.Time
}

func newSaleFixture() *saleFixture {
	f := &saleFixture{
		ducks:      newStubDuckRepo(),
		customers:  newStubCustomerRepo(),
		employees:  newStubEmployeeRepo(),
		cache:      newMemoryRankingCache(),
		dispatcher: &recordingDispatcher{},
		now:        time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	f.sales = newStubSaleRepo(f.customers, f.ducks)
	f.svc = service.NewSaleService(f.sales, f.ducks, f.customers, f.employees,
		service.WithRankingInvalidator(f.cache),
		service.WithReceiptDispatcher(f.dispatcher),
		service.WithClock(func() time.Time { return f.now }),
	)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func assertKind(t *testing.T, err error, kind apierror.Kind) *apierror.Error {
	t.Helper()
	require.Error(t, err)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, kind, apiErr.Kind, apiErr.Error())
	return apiErr
}

func TestCreateSale_LoyaltyDiscountOnChildlessDuck(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Maria", true)
	employee := f.employees.add("Jorge", "20-1", "E1")
	duck := f.ducks.add("Donald", nil)

	resp, err := f.svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{duck},
	})
	require.NoError(t, err)

	assert.True(t, resp.TotalBeforeDiscount.Equal(dec("70.00")))
	assert.True(t, resp.TotalAfterDiscount.Equal(dec("56.00")))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, duck, resp.Items[0].DuckID)
	assert.Equal(t, "Donald", resp.Items[0].DuckName)
	assert.True(t, resp.Items[0].PriceAtSale.Equal(dec("56.00")))
	assert.Equal(t, f.now, resp.SaleDate)
}

func TestCreateSale_PricesFollowFamilySize(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Ana", false)
	employee := f.employees.add("Jorge", "20-1", "E1")

	big := f.ducks.add("Big", nil)
	f.ducks.add("Chick 1", &big)
	f.ducks.add("Chick 2", &big)
	single := f.ducks.add("Single", nil)
	only := f.ducks.add("Only", &single)

	resp, err := f.svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{big, single, only},
	})
	require.NoError(t, err)

	// 25 + 50 + 70, no discount
	assert.True(t, resp.TotalBeforeDiscount.Equal(dec("145.00")))
	assert.True(t, resp.TotalAfterDiscount.Equal(dec("145.00")))
	prices := map[int64]decimal.Decimal{}
	for _, it := range resp.Items {
		prices[it.DuckID] = it.PriceAtSale
	}
	assert.True(t, prices[big].Equal(dec("25.00")))
	assert.True(t, prices[single].Equal(dec("50.00")))
	assert.True(t, prices[only].Equal(dec("70.00")))
}

func TestCreateSale_TotalAfterIsSumOfRoundedLines(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Maria", true)
	employee := f.employees.add("Jorge", "20-1", "E1")
	a := f.ducks.add("A", nil)
	b := f.ducks.add("B", nil)
	f.ducks.add("B1", &b)

	resp, err := f.svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{a, b},
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, it := range resp.Items {
		sum = sum.Add(it.PriceAtSale)
	}
	assert.True(t, resp.TotalAfterDiscount.Equal(sum))
	assert.True(t, resp.TotalBeforeDiscount.Equal(dec("120.00")))
	assert.True(t, resp.TotalAfterDiscount.Equal(dec("96.00")))
}

func TestCreateSale_DuplicateIDsCollapse(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Ana", false)
	employee := f.employees.add("Jorge", "20-1", "E1")
	a := f.ducks.add("A", nil)
	b := f.ducks.add("B", nil)

	resp, err := f.svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{b, a, b, a},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, b, resp.Items[0].DuckID)
	assert.Equal(t, a, resp.Items[1].DuckID)
	assert.True(t, resp.TotalBeforeDiscount.Equal(dec("140.00")))
}

func TestCreateSale_UsesSuppliedSaleDate(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Ana", false)
	employee := f.employees.add("Jorge", "20-1", "E1")
	duck := f.ducks.add("A", nil)
	when := time.Date(2023, 12, 24, 18, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	resp, err := f.svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{duck}, SaleDate: &when,
	})
	require.NoError(t, err)
	assert.True(t, resp.SaleDate.Equal(when))
	assert.Equal(t, time.UTC, resp.SaleDate.Location())
}

func TestCreateSale_Rejections(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Ana", false)
	employee := f.employees.add("Jorge", "20-1", "E1")
	a := f.ducks.add("A", nil)
	ctx := context.Background()

	t.Run("unknown customer", func(t *testing.T) {
		_, err := f.svc.CreateSale(ctx, dto.CreateSaleRequest{CustomerID: 99, EmployeeID: employee, DuckIDs: []int64{a}})
		assertKind(t, err, apierror.KindNotFound)
	})
	t.Run("unknown employee", func(t *testing.T) {
		_, err := f.svc.CreateSale(ctx, dto.CreateSaleRequest{CustomerID: customer, EmployeeID: 99, DuckIDs: []int64{a}})
		assertKind(t, err, apierror.KindNotFound)
	})
	t.Run("no ducks", func(t *testing.T) {
		_, err := f.svc.CreateSale(ctx, dto.CreateSaleRequest{CustomerID: customer, EmployeeID: employee})
		assertKind(t, err, apierror.KindValidation)
	})
	t.Run("every missing duck is named", func(t *testing.T) {
		_, err := f.svc.CreateSale(ctx, dto.CreateSaleRequest{
			CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{500, a, 400, 500},
		})
		apiErr := assertKind(t, err, apierror.KindValidation)
		assert.Equal(t, []int64{500, 400}, apiErr.IDs)
	})

	assert.Empty(t, f.dispatcher.sales, "rejected sales must not queue receipts")
	assert.Equal(t, 0, f.cache.gen)
}

func TestCreateSale_AlreadySoldDucksConflict(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Ana", false)
	employee := f.employees.add("Jorge", "20-1", "E1")
	a := f.ducks.add("A", nil)
	b := f.ducks.add("B", nil)
	c := f.ducks.add("C", nil)
	ctx := context.Background()

	_, err := f.svc.CreateSale(ctx, dto.CreateSaleRequest{CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{a, c}})
	require.NoError(t, err)

	_, err = f.svc.CreateSale(ctx, dto.CreateSaleRequest{CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{c, b, a}})
	apiErr := assertKind(t, err, apierror.KindConflict)
	assert.Equal(t, []int64{a, c}, apiErr.IDs)

	sold, err := f.sales.ExistsByDuck(ctx, b)
	require.NoError(t, err)
	assert.False(t, sold, "a rejected sale must not leave items behind")
}

func TestCreateSale_CommitRaceIsConflict(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Ana", false)
	employee := f.employees.add("Jorge", "20-1", "E1")
	a := f.ducks.add("A", nil)
	b := f.ducks.add("B", nil)
	ctx := context.Background()

	// Another sale takes duck b between the pre-check and the insert.
	f.sales.beforeCreate = func() {
		require.NoError(t, f.sales.Create(ctx, nil, &model.Sale{
			CustomerID: customer, EmployeeID: employee, SaleDate: f.now,
			Items: []model.SaleItem{{DuckID: b, PriceAtSale: dec("70.00")}},
		}))
	}

	_, err := f.svc.CreateSale(ctx, dto.CreateSaleRequest{CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{a, b}})
	apiErr := assertKind(t, err, apierror.KindConflict)
	assert.Equal(t, []int64{b}, apiErr.IDs)

	sold, err := f.sales.ExistsByDuck(ctx, a)
	require.NoError(t, err)
	assert.False(t, sold)
}

func TestCreateSale_ConcurrentSalesOfSameDuck(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Ana", false)
	employee := f.employees.add("Jorge", "20-1", "E1")
	duck := f.ducks.add("Contested", nil)

	const buyers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.CreateSale(context.Background(), dto.CreateSaleRequest{
				CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{duck},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apierror.IsKind(err, apierror.KindConflict):
				conflicts++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, buyers-1, conflicts)
}

func TestCreateSale_PriceAtSaleIsFrozen(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Ana", false)
	employee := f.employees.add("Jorge", "20-1", "E1")
	mother := f.ducks.add("Mother", nil)
	ctx := context.Background()

	resp, err := f.svc.CreateSale(ctx, dto.CreateSaleRequest{CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{mother}})
	require.NoError(t, err)

	f.ducks.add("Late chick", &mother)
	f.ducks.add("Later chick", &mother)

	got, err := f.svc.GetSale(ctx, resp.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].PriceAtSale.Equal(dec("70.00")))
	assert.True(t, got.TotalAfterDiscount.Equal(dec("70.00")))
}

func TestCreateSale_NotifiesAfterCommit(t *testing.T) {
	f := newSaleFixture()
	customer := f.customers.add("Ana", false)
	employee := f.employees.add("Jorge", "20-1", "E1")
	duck := f.ducks.add("A", nil)

	resp, err := f.svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{duck},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{resp.ID}, f.dispatcher.sales)
	assert.Equal(t, 1, f.cache.gen)
}

func TestCreateSale_WorksWithoutSideChannels(t *testing.T) {
	ducks, customers, employees := newStubDuckRepo(), newStubCustomerRepo(), newStubEmployeeRepo()
	sales := newStubSaleRepo(customers, ducks)
	svc := service.NewSaleService(sales, ducks, customers, employees)

	resp, err := svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		CustomerID: customers.add("Ana", false),
		EmployeeID: employees.add("Jorge", "20-1", "E1"),
		DuckIDs:    []int64{ducks.add("A", nil)},
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
}

func TestGetSale_NotFound(t *testing.T) {
	f := newSaleFixture()
	_, err := f.svc.GetSale(context.Background(), 7)
	apiErr := assertKind(t, err, apierror.KindNotFound)
	assert.Equal(t, []int64{7}, apiErr.IDs)
}

func TestListSales_FiltersAndOrders(t *testing.T) {
	f := newSaleFixture()
	ana := f.customers.add("Ana", false)
	bia := f.customers.add("Bia", false)
	employee := f.employees.add("Jorge", "20-1", "E1")
	ctx := context.Background()

	sell := func(customer int64, day int) {
		when := time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC)
		_, err := f.svc.CreateSale(ctx, dto.CreateSaleRequest{
			CustomerID: customer, EmployeeID: employee, DuckIDs: []int64{f.ducks.add("d", nil)}, SaleDate: &when,
		})
		require.NoError(t, err)
	}
	sell(ana, 1)
	sell(bia, 10)
	sell(ana, 20)
	sell(ana, 31)

	list, err := f.svc.ListSales(ctx, dto.SaleFilter{From: "2024-03-01", To: "2024-03-20", CustomerID: &ana, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), list.Total)
	assert.Equal(t, 20, list.Data[0].SaleDate.Day())
	assert.Equal(t, 1, list.Data[1].SaleDate.Day())

	_, err = f.svc.ListSales(ctx, dto.SaleFilter{From: "2024-03-21", To: "2024-03-20"})
	assertKind(t, err, apierror.KindValidation)
}
