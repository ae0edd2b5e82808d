package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bankportal.org/internal/bank"
	"bankportal.org/internal/dashboard"
	"bankportal.org/internal/gateway"
	"bankportal.org/internal/views"
)

// amountInput accepts the transfer amount as a JSON number or string.
type amountInput string

func (a *amountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("amount must be a number")
	}
	*a = amountInput(n.String())
	return nil
}

type transferInput struct {
	ToAccountNumber string      `json:"toAccountNumber"`
	Amount          amountInput `json:"amount"`
}

// --- customer ---

func (a *API) handleUserDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	page, err := a.users.Render(r.Context(), r.URL.Query().Get("tab"))
	if redirected(w, r) {
		return
	}
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownTab) {
			writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		handleGatewayError(w, r, err, "Failed to load dashboard")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, page)
}

// handleTransfer moves funds out of the primary account. The form is checked
// before the account lookup so invalid input never reaches the backend.
func (a *API) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var in transferInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	form := bank.TransferForm{ToAccountNumber: in.ToAccountNumber, Amount: string(in.Amount)}
	if err := form.Check(a.maxTransfer); err != nil {
		writeSubmission(w, r, http.StatusOK, views.Rejected(err))
		return
	}

	from, err := a.users.PrimaryAccount(r.Context())
	if err != nil {
		sub := views.Submission{
			Submitted: true,
			Error:     gateway.Message(err, "Failed to load accounts"),
			Status:    gateway.Status(err),
		}
		if errors.Is(err, dashboard.ErrNoAccounts) {
			sub = views.Rejected(err)
		}
		writeSubmission(w, r, http.StatusOK, sub)
		return
	}
	writeSubmission(w, r, http.StatusOK, views.Transfer(r.Context(), a.backend, from, form, a.maxTransfer))
}

func (a *API) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	form := bank.DefaultApplicationForm()
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeSubmission(w, r, http.StatusCreated, views.SubmitApplication(r.Context(), a.backend, form))
}

func (a *API) handleNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	writeSubmission(w, r, http.StatusOK, views.DeleteNotification(r.Context(), a.backend, r.PathValue("id")))
}

func (a *API) handleNotificationRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	writeSubmission(w, r, http.StatusOK, views.MarkNotificationRead(r.Context(), a.backend, r.PathValue("id")))
}

// --- back office ---

func (a *API) handleEmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	q := r.URL.Query()
	search, err := bank.SearchForm{
		AccountNumber:   q.Get("accountNumber"),
		TransactionType: q.Get("transactionType"),
		StartDate:       q.Get("startDate"),
		EndDate:         q.Get("endDate"),
	}.Parse()
	if err != nil {
		handleGatewayError(w, r, err, "Invalid search")
		return
	}
	a.renderEmployee(w, r, q.Get("tab"), dashboard.TransactionQuery{Search: search, Page: pageParam(q.Get("page"))})
}

type searchInput struct {
	bank.SearchForm
	Page int `json:"page"`
}

func (a *API) handleSearchTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var in searchInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	search, err := in.SearchForm.Parse()
	if err != nil {
		handleGatewayError(w, r, err, "Invalid search")
		return
	}
	a.renderEmployee(w, r, string(dashboard.TabTransactions), dashboard.TransactionQuery{Search: search, Page: in.Page})
}

func (a *API) renderEmployee(w http.ResponseWriter, r *http.Request, tab string, tq dashboard.TransactionQuery) {
	page, err := a.employees.Render(r.Context(), tab, tq)
	if redirected(w, r) {
		return
	}
	if err != nil {
		handleGatewayError(w, r, err, "Failed to load dashboard")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, page)
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var form bank.NewUserForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeSubmission(w, r, http.StatusCreated, views.CreateUser(r.Context(), a.backend, form))
}

func (a *API) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	writeSubmission(w, r, http.StatusOK, views.DeactivateUser(r.Context(), a.backend, id))
}

func (a *API) handleProcessApplication(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var form bank.DecisionForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeSubmission(w, r, http.StatusOK, views.ProcessApplication(r.Context(), a.backend, form))
}

func pageParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
