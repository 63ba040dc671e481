// Package httpapi holds the HTTP handlers. Keep these thin: parse/validate
// input, call internal services, return JSON.
package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/company"
	"callcenter-platform/internal/identity"
	"callcenter-platform/internal/importer"
	"callcenter-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
type Handlers struct {
	Auth      *auth.Manager
	Identity  *identity.Service
	Companies *company.Service
	Importer  *importer.Service
	Workflow  *calls.Workflow
	Reporting *reporting.Service
	Audit     *audit.Service
	Log       *slog.Logger
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a JWT token pair. A request without
// a username goes through the shared access-code gate: the code is checked
// against every active account.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	var (
		user *identity.User
		err  error
	)
	if req.Username != "" {
		user, err = h.Identity.Authenticate(ctx, req.Username, req.Password)
	} else {
		user, err = h.Identity.AuthenticateByCode(ctx, req.Password)
	}
	if errors.Is(err, identity.ErrBadCredentials) || errors.Is(err, identity.ErrInactive) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Mot de passe invalide."})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), user.ID, user.Username, user.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	if err := h.Audit.RecordLogin(ctx, pair.SessionKey, user.ID, clientIP(c), c.Request.UserAgent()); err != nil {
		h.Log.Debug("login audit failed", "err", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"username":      user.Username,
		"role":          user.Role,
	})
}

func (h Handlers) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	sessionKey, _ := auth.SessionKey(ctx)
	userID, _ := auth.UserID(ctx)
	if sessionKey != "" {
		if err := h.Audit.RecordLogout(ctx, sessionKey, userID, clientIP(c), c.Request.UserAgent()); err != nil {
			h.Log.Debug("logout audit failed", "err", err)
		}
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) Me(c *gin.Context) {
	ctx := c.Request.Context()
	uid, _ := auth.UserID(ctx)
	username, _ := auth.Username(ctx)
	role, _ := auth.Role(ctx)
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "username": username, "role": role})
}

// --- Companies ---

func (h Handlers) ListCompanies(c *gin.Context) {
	companies, err := h.Companies.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "company list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

// ImportPreview parses the upload and returns the rows with a session id.
// The file comes as a multipart "file" part, or as the raw request body.
func (h Handlers) ImportPreview(c *gin.Context) {
	raw, err := readUpload(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Fichier invalide."})
		return
	}

	sessionID, rows, err := h.Importer.Preview(c.Request.Context(), raw)
	if errors.Is(err, importer.ErrUnreadable) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Impossible de lire le fichier CSV."})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "import preview failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "rows": rows})
}

type importConfirmRequest struct {
	SessionID string            `json:"session_id"`
	Rows      []company.Company `json:"rows"`
}

func (h Handlers) ImportConfirm(c *gin.Context) {
	var req importConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	n, err := h.Importer.Confirm(c.Request.Context(), req.SessionID, req.Rows)
	if errors.Is(err, importer.ErrNothingToImport) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "Aucune donnee a enregistrer."})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

func (h Handlers) CompanyStatuses(c *gin.Context) {
	statuses, err := h.Reporting.Statuses(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": statuses})
}

// ResetCompany moves an in_progress company back to pending. Any other
// status is left as is; the current status is echoed back.
func (h Handlers) ResetCompany(c *gin.Context) {
	status, err := h.Companies.Reset(c.Request.Context(), c.Param("id"))
	if errors.Is(err, company.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// --- Calls ---

func (h Handlers) CallList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	result, err := h.Reporting.CallPage(c.Request.Context(), page)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call list failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// OpenCallForm claims the company's call form and advances it to
// in_progress.
func (h Handlers) OpenCallForm(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := auth.UserID(ctx)

	comp, err := h.Workflow.Open(ctx, c.Param("company_id"), userID)
	switch {
	case errors.Is(err, company.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "company not found"})
	case errors.Is(err, calls.ErrAlreadyDone):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Cette entreprise est déjà marquée comme appelée."})
	case errors.Is(err, calls.ErrClaimed):
		c.AbortWithStatusJSON(http.StatusLocked, gin.H{"error": "Un autre agent traite déjà cette entreprise."})
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call form failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"company": comp})
	}
}

// SubmitCall records a call outcome and advances the company status.
func (h Handlers) SubmitCall(c *gin.Context) {
	ctx := c.Request.Context()

	var in calls.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	in.CompanyID = c.Param("company_id")
	in.UserID, _ = auth.UserID(ctx)

	rec, err := h.Workflow.Submit(ctx, in)
	var fieldErrs calls.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
	case errors.Is(err, company.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "company not found"})
	case errors.Is(err, calls.ErrAlreadyDone):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Cette entreprise est déjà marquée comme appelée."})
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call submission failed"})
	default:
		c.JSON(http.StatusCreated, gin.H{"call": rec})
	}
}

// --- Reporting ---

func (h Handlers) Dashboard(c *gin.Context) {
	d, err := h.Reporting.Dashboard(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dashboard failed"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h Handlers) UserStats(c *gin.Context) {
	cards, err := h.Reporting.UserCards(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user stats failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": cards})
}

// Export streams the consolidated call export. Without a format parameter
// the rows come back as JSON; format=csv or format=excel streams a download.
// The excel variant is tab-delimited text behind an .xlsm filename so
// spreadsheet software opens it directly.
func (h Handlers) Export(c *gin.Context) {
	rows, err := h.Reporting.ExportRows(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	format := c.Query("format")
	if format == "" {
		format = c.PostForm("format")
	}
	filename := reporting.ExportFilename(time.Now())

	switch format {
	case "":
		c.JSON(http.StatusOK, gin.H{"rows": rows})
	case "csv":
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		c.Header("Content-Type", reporting.CSVContentType)
		c.Status(http.StatusOK)
		if err := reporting.WriteCSV(c.Writer, rows); err != nil {
			h.Log.Warn("csv export write failed", "err", err)
		}
	case "excel":
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.xlsm"`)
		c.Header("Content-Type", reporting.ExcelContentType)
		c.Status(http.StatusOK)
		if err := reporting.WriteExcelShim(c.Writer, rows); err != nil {
			h.Log.Warn("excel export write failed", "err", err)
		}
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "format must be csv or excel"})
	}
}

// --- helpers ---

func readUpload(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(c.Request.Body)
}

func clientIP(c *gin.Context) string {
	return c.ClientIP()
}
