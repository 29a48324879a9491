package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestChartsFlow_PeriodFundsAndCharts(t *testing.T) {
	app := setupApp(t)
	l := setupLedger(t, app)

	// Step 1: Plan food, book a salary and a food expense
	app.create(t, l.token, l.base+"/predictions", "prediction",
		fmt.Sprintf(`{"period":%q,"category":%q,"current_plan":"300"}`, l.periodID, l.foodID))
	app.create(t, l.token, l.base+"/incomes", "transfer", fmt.Sprintf(
		`{"name":"Salary","value":"5000","date":"2024-01-05","category":%q,"entity":%q,"deposit":%q}`,
		l.salaryID, l.shopID, l.depositID))
	app.create(t, l.token, l.base+"/expenses", "transfer", fmt.Sprintf(
		`{"name":"Groceries","value":"120.50","date":"2024-01-10","category":%q,"entity":%q,"deposit":%q}`,
		l.foodID, l.shopID, l.depositID))

	// Step 2: Deposit funds of the period
	rec := app.request("GET", l.base+"/periods/"+l.periodID+"/deposit-results", "", l.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	deposits := parseJSON(t, rec)["results"].([]interface{})
	if len(deposits) != 1 {
		t.Fatalf("expected 1 deposit row, got %d", len(deposits))
	}
	bank := deposits[0].(map[string]interface{})
	assertDecimal(t, "predictions_sum", bank["predictions_sum"], "300")
	assertDecimal(t, "period_balance", bank["period_balance"], "5000")
	assertDecimal(t, "period_expenses", bank["period_expenses"], "120.50")
	assertDecimal(t, "funds_left_for_predictions", bank["funds_left_for_predictions"], "4700")
	assertDecimal(t, "funds_left_for_expenses", bank["funds_left_for_expenses"], "179.50")

	// Step 3: Member funds start with the common row
	rec = app.request("GET", l.base+"/periods/"+l.periodID+"/user-results", "", l.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	users := parseJSON(t, rec)["results"].([]interface{})
	if len(users) != 2 {
		t.Fatalf("expected common and owner rows, got %d", len(users))
	}
	common := users[0].(map[string]interface{})
	if common["user_id"] != nil || common["username"] != "Common" {
		t.Errorf("expected common row first, got %v", common)
	}
	assertDecimal(t, "common balance", common["period_balance"], "5000")
	assertDecimal(t, "owner balance", users[1].(map[string]interface{})["period_balance"], "0")

	// Step 4: Charts
	rec = app.request("GET", l.base+"/charts/transfers-in-periods", "", l.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	transfers := parseJSON(t, rec)
	if axis := transfers["xAxis"].([]interface{}); len(axis) != 1 || axis[0] != "2024-01" {
		t.Errorf("unexpected axis %v", axis)
	}
	assertDecimal(t, "income series", transfers["income_series"].([]interface{})[0], "5000")
	assertDecimal(t, "expense series", transfers["expense_series"].([]interface{})[0], "120.50")

	rec = app.request("GET", l.base+"/charts/top-entities-in-period?transfer_type=2&period="+l.periodID, "", l.token)
	entities := parseJSON(t, rec)
	if axis := entities["xAxis"].([]interface{}); len(axis) != 1 || axis[0] != "Shop" {
		t.Errorf("unexpected entities %v", axis)
	}

	rec = app.request("GET", l.base+"/charts/category-results-in-periods?category="+l.foodID, "", l.token)
	category := parseJSON(t, rec)
	assertDecimal(t, "results series", category["results_series"].([]interface{})[0], "120.50")
	assertDecimal(t, "predictions series", category["predictions_series"].([]interface{})[0], "300")

	rec = app.request("GET", l.base+"/charts/deposits-in-periods", "", l.token)
	series := parseJSON(t, rec)["series"].([]interface{})
	if len(series) != 1 {
		t.Fatalf("expected 1 deposit series, got %d", len(series))
	}
	line := series[0].(map[string]interface{})
	if line["label"] != "Bank" {
		t.Errorf("expected Bank series, got %v", line["label"])
	}
	assertDecimal(t, "bank balance", line["data"].([]interface{})[0], "4879.50")

	// Step 5: Bad chart input
	rec = app.request("GET", l.base+"/charts/transfers-in-periods?periods_count=-1", "", l.token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
