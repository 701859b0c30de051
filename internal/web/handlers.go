package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/engine"
	"github.com/ledgerkeep/ledgerkeep/internal/reconcile"
)

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		respondInternal(w, r, "Error querying accounts", err)
		return
	}
	if accounts == nil {
		accounts = []engine.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

type accountRequest struct {
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.service.CreateAccount(r.Context(), req.Name, req.AccountNumber); err != nil {
		if errors.Is(err, engine.ErrDuplicateAccountNumber) {
			respondError(w, r, http.StatusBadRequest, duplicateAccountMessage(req.AccountNumber))
			return
		}
		respondInternal(w, r, "Error creating account", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Account created successfully"})
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid account id")
		return
	}

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	switch err := s.service.UpdateAccount(r.Context(), id, req.Name, req.AccountNumber); {
	case err == nil:
		writeJSON(w, http.StatusOK, messageResponse{Message: "Account updated successfully"})
	case errors.Is(err, engine.ErrAccountHasTransactions):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrDuplicateAccountNumber):
		respondError(w, r, http.StatusBadRequest, duplicateAccountMessage(req.AccountNumber))
	case errors.Is(err, engine.ErrAccountNotFound):
		respondError(w, r, http.StatusNotFound, "account not found")
	default:
		respondInternal(w, r, "Error updating account", err)
	}
}

func duplicateAccountMessage(accountNumber string) string {
	return fmt.Sprintf("An account with account number '%s' already exists. Account numbers must be unique.", accountNumber)
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.store.ListTransactions(r.Context())
	if err != nil {
		respondInternal(w, r, "Error querying transactions", err)
		return
	}
	if transactions == nil {
		transactions = []engine.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

type batchCreateRequest struct {
	Transactions []batchTransaction `json:"transactions"`
}

type batchTransaction struct {
	AccountID  int64           `json:"account_id"`
	UploadID   *int64          `json:"transaction_upload_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       engine.Date     `json:"transaction_date"`
	Direction  string          `json:"direction"`
	ExternalID *string         `json:"external_transaction_id"`
}

// handleBatchCreate is the low-level bulk-insert primitive: fully-formed
// transactions, one atomic insert, no balance side effects, no duplicate
// suppression.
func (s *Server) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	var req batchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	records := make([]engine.TransactionRecord, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		records = append(records, engine.TransactionRecord{
			AccountID:  t.AccountID,
			UploadID:   t.UploadID,
			Amount:     t.Amount,
			Date:       t.Date,
			Direction:  engine.Direction(t.Direction),
			ExternalID: t.ExternalID,
		})
	}

	if err := s.service.CreateTransactions(r.Context(), records); err != nil {
		respondInternal(w, r, "Error creating transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Successfully created %d transactions", len(records)),
	})
}

// ---------------------------------------------------------------------------
// Statement upload
// ---------------------------------------------------------------------------

// csvUpload pulls the statement file out of a multipart request, applying
// the fixed upload checks shared by ingestion and reconciliation.
func (s *Server) csvUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		respondError(w, r, http.StatusBadRequest, "Request must be multipart/form-data")
		return nil, nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		respondError(w, r, http.StatusBadRequest, "No file uploaded")
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil || header.Size == 0 {
		respondError(w, r, http.StatusBadRequest, "No file uploaded")
		return nil, nil, false
	}

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		file.Close()
		respondError(w, r, http.StatusBadRequest, "File must be a CSV file")
		return nil, nil, false
	}
	return file, header, true
}

func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.csvUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respondInternal(w, r, "Error processing file upload", err)
		return
	}

	summary, err := s.service.IngestStatement(r.Context(), header.Filename, header.Size, content)
	if err != nil {
		var missing *engine.MissingColumnsError
		if errors.Is(err, engine.ErrInsufficientRows) || errors.As(err, &missing) {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		respondInternal(w, r, "Error processing file upload", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ---------------------------------------------------------------------------
// Reconciliation
// ---------------------------------------------------------------------------

// handleReconcile compares a reference statement against everything
// stored. Read-only: nothing is persisted.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	file, _, ok := s.csvUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respondInternal(w, r, "Error processing file upload", err)
		return
	}

	refs, err := reconcile.ParseReference(string(content))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := s.store.ListTransactions(r.Context())
	if err != nil {
		respondInternal(w, r, "Error querying transactions", err)
		return
	}
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		respondInternal(w, r, "Error querying accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, reconcile.Compare(refs, transactions, accounts))
}

// ---------------------------------------------------------------------------
// Uploads and failed imports
// ---------------------------------------------------------------------------

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.store.ListUploads(r.Context())
	if err != nil {
		respondInternal(w, r, "Error querying transaction uploads", err)
		return
	}
	if uploads == nil {
		uploads = []engine.Upload{}
	}
	writeJSON(w, http.StatusOK, uploads)
}

func (s *Server) handleListFailedImports(w http.ResponseWriter, r *http.Request) {
	imports, err := s.store.ListFailedImports(r.Context())
	if err != nil {
		respondInternal(w, r, "Error querying failed transaction imports", err)
		return
	}
	if imports == nil {
		imports = []engine.FailedImport{}
	}
	writeJSON(w, http.StatusOK, imports)
}
