package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/service"
	"expense-ledger/internal/storage"
)

// Handler wires HTTP routes to domain services. users and tokens are nil in
// single-user prototype mode, which disables the auth surface entirely.
type Handler struct {
	ledger    service.LedgerService
	users     service.UserService
	tokens    *service.TokenService
	archive   storage.Service
	bucket    string
	keyPrefix string
	logger    *logrus.Logger
}

func NewHandler(
	ledger service.LedgerService,
	users service.UserService,
	tokens *service.TokenService,
	archive storage.Service,
	bucket, keyPrefix string,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		ledger:    ledger,
		users:     users,
		tokens:    tokens,
		archive:   archive,
		bucket:    bucket,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	if h.tokens != nil {
		router.POST("/register", h.register)
		router.POST("/login", h.login)
	}

	authed := router.Group("/")
	if h.tokens != nil {
		authed.Use(h.authRequired())
	} else {
		authed.Use(singleUser())
	}
	{
		authed.POST("/expenses", h.addExpense)
		authed.GET("/expenses", h.listExpenses)
		authed.GET("/export-csv", h.exportCSV)
		authed.POST("/budget", h.setBudget)
		authed.GET("/summary", h.summary)
		authed.GET("/exports", h.listExports)
	}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type expenseRequest struct {
	Date        string  `json:"date"`
	Category    string  `json:"category" binding:"required"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type budgetRequest struct {
	Category string  `json:"category" binding:"required"`
	Budget   float64 `json:"budget"`
}

type ExpenseResponse struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type SummaryResponse struct {
	Category  string  `json:"category"`
	Budget    float64 `json:"budget"`
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
}

type ExportObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.issueToken(c, user.Username)
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.issueToken(c, user.Username)
}

func (h *Handler) issueToken(c *gin.Context, username string) {
	token, err := h.tokens.Issue(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token, Username: username})
}

func (h *Handler) addExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := currentUser(c)
	if _, err := h.ledger.AddExpense(c.Request.Context(), userID, req.Date, req.Category, req.Amount, req.Description); err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense added successfully"})
}

func (h *Handler) listExpenses(c *gin.Context) {
	userID, _ := currentUser(c)
	expenses, err := h.ledger.ListExpenses(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		resp[i] = expenseToResponse(expenses[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) setBudget(c *gin.Context) {
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := currentUser(c)
	if _, err := h.ledger.SetBudget(c.Request.Context(), userID, req.Category, req.Budget); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Budget set successfully"})
}

func (h *Handler) summary(c *gin.Context) {
	userID, _ := currentUser(c)
	summaries, err := h.ledger.Summary(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]SummaryResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = SummaryResponse{
			Category:  s.Category,
			Budget:    s.Budget,
			Spent:     s.Spent,
			Remaining: s.Remaining,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportCSV(c *gin.Context) {
	userID, username := currentUser(c)
	data, err := h.ledger.ExportCSV(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoExpenses) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no expenses to export"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Archival is best effort; a failed upload never fails the download.
	if h.archive != nil && h.bucket != "" {
		key := h.exportKey(username)
		if err := h.archive.Upload(c.Request.Context(), h.bucket, key, "text/csv", bytes.NewReader(data)); err != nil {
			h.logger.Warnf("archive export %s: %v", key, err)
		}
	}

	c.Header("Content-Disposition", `attachment; filename="expenses.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *Handler) listExports(c *gin.Context) {
	if h.archive == nil || h.bucket == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export archive not configured"})
		return
	}

	_, username := currentUser(c)
	prefix := path.Join(strings.Trim(h.keyPrefix, "/"), username) + "/"
	objects, err := h.archive.ListObjects(c.Request.Context(), h.bucket, prefix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]ExportObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportKey(username string) string {
	name := fmt.Sprintf("expenses-%s-%s.csv", time.Now().UTC().Format("20060102T150405Z"), uuid.NewString())
	return path.Join(strings.Trim(h.keyPrefix, "/"), username, name)
}

func expenseToResponse(e domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Date:        e.Date,
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
	}
}

func objectToResponse(obj storage.ObjectInfo) ExportObjectResponse {
	resp := ExportObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
