package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/hypernova-labs/agency-invoicing/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	actorHeader = "X-User-ID"
	actorKey    = "actor_id"
)

// API maneja todos los endpoints de la API
type API struct {
	invoiceService *services.InvoiceService
	logger         *logrus.Logger
}

// NewAPI crea una nueva instancia de la API
func NewAPI(invoiceService *services.InvoiceService, logger *logrus.Logger) *API {
	return &API{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// RegisterRoutes monta los endpoints de facturación bajo el grupo dado
func (api *API) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.Use(api.ActorMiddleware())

	clients := v1.Group("/clients/:clientId")
	{
		clients.POST("/invoices", api.CreateInvoice)
		clients.GET("/invoices", api.ListClientInvoices)
		clients.GET("/files", api.ListClientFiles)
		clients.GET("/activity", api.ListClientActivity)
	}

	invoices := v1.Group("/invoices")
	{
		invoices.GET("/:id", api.GetInvoice)
		invoices.GET("/:id/download", api.GetDownloadLink)
		invoices.GET("/:id/document", api.GetInvoiceDocument)
		invoices.PUT("/:id/status", api.UpdateInvoiceStatus)
		invoices.POST("/:id/notify", api.ResendNotification)
		invoices.DELETE("/:id", api.DeleteInvoice)
	}
}

// ActorMiddleware exige el usuario autenticado en X-User-ID
func (api *API) ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, err := uuid.Parse(c.GetHeader(actorHeader))
		if err != nil || actorID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewUnauthorizedError("X-User-ID header must be a valid user id"))
			return
		}
		c.Set(actorKey, actorID)
		c.Next()
	}
}

// CreateInvoice emite una factura para un cliente
func (api *API) CreateInvoice(c *gin.Context) {
	clientID, ok := api.uuidParam(c, "clientId")
	if !ok {
		return
	}

	var req models.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error binding create invoice request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	result, err := api.invoiceService.CreateInvoice(c.Request.Context(), clientID, actorID(c), &req)
	if err != nil && !services.IsInvoiceCreated(err) {
		api.respondError(c, err, "Error creating invoice")
		return
	}

	response := models.InvoiceResponse{
		Invoice:  result.Invoice,
		State:    result.State.String(),
		Warnings: result.Warnings,
	}
	if err != nil {
		// La factura existe aunque la emisión no terminó
		api.logger.WithError(err).WithField("invoice_id", result.Invoice.ID).Warn("Invoice created with incomplete issuance")
		response.Warnings = append(response.Warnings, err.Error())
	}

	c.JSON(http.StatusCreated, response)
}

// ListClientInvoices lista las facturas de un cliente
func (api *API) ListClientInvoices(c *gin.Context) {
	clientID, ok := api.uuidParam(c, "clientId")
	if !ok {
		return
	}

	invoices, err := api.invoiceService.ListClientInvoices(c.Request.Context(), clientID)
	if err != nil {
		api.respondError(c, err, "Error retrieving invoices")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": invoices, "total": len(invoices)})
}

// ListClientFiles lista los archivos de un cliente
func (api *API) ListClientFiles(c *gin.Context) {
	clientID, ok := api.uuidParam(c, "clientId")
	if !ok {
		return
	}

	files, err := api.invoiceService.ListClientFiles(c.Request.Context(), clientID)
	if err != nil {
		api.respondError(c, err, "Error retrieving files")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": files, "total": len(files)})
}

// ListClientActivity lista la auditoría de un cliente
func (api *API) ListClientActivity(c *gin.Context) {
	clientID, ok := api.uuidParam(c, "clientId")
	if !ok {
		return
	}

	entries, err := api.invoiceService.ListClientActivity(c.Request.Context(), clientID)
	if err != nil {
		api.respondError(c, err, "Error retrieving activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries, "total": len(entries)})
}

// GetInvoice obtiene una factura por ID
func (api *API) GetInvoice(c *gin.Context) {
	id, ok := api.uuidParam(c, "id")
	if !ok {
		return
	}

	invoice, err := api.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error retrieving invoice")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// GetDownloadLink entrega una URL firmada de vida corta. Con ?redirect=true redirige a ella.
func (api *API) GetDownloadLink(c *gin.Context) {
	id, ok := api.uuidParam(c, "id")
	if !ok {
		return
	}

	link, err := api.invoiceService.DownloadLink(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error creating download link")
		return
	}

	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, link.URL)
		return
	}
	c.JSON(http.StatusOK, link)
}

// GetInvoiceDocument descarga el PDF de la factura a través del servicio
func (api *API) GetInvoiceDocument(c *gin.Context) {
	id, ok := api.uuidParam(c, "id")
	if !ok {
		return
	}

	data, fileName, err := api.invoiceService.DownloadDocument(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error downloading invoice document")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", fileName))
	c.Data(http.StatusOK, services.PDFContentType, data)
}

// UpdateInvoiceStatus cambia el estado de cobro de una factura
func (api *API) UpdateInvoiceStatus(c *gin.Context) {
	id, ok := api.uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	invoice, err := api.invoiceService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		api.respondError(c, err, "Error updating invoice status")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// ResendNotification vuelve a avisar al cliente
func (api *API) ResendNotification(c *gin.Context) {
	id, ok := api.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := api.invoiceService.ResendNotification(c.Request.Context(), id); err != nil {
		api.respondError(c, err, "Error sending notification")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

// DeleteInvoice borra una factura y su documento
func (api *API) DeleteInvoice(c *gin.Context) {
	id, ok := api.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := api.invoiceService.DeleteInvoice(c.Request.Context(), id); err != nil {
		api.respondError(c, err, "Error deleting invoice")
		return
	}

	c.Status(http.StatusNoContent)
}

// uuidParam parsea un parámetro de ruta; responde 400 si no es válido
func (api *API) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid "+name, []models.ErrorDetail{
			{Field: name, Issue: "Must be a valid UUID"},
		}))
		return uuid.Nil, false
	}
	return id, true
}

// respondError traduce los errores de servicio a respuestas HTTP
func (api *API) respondError(c *gin.Context, err error, message string) {
	var issueErr *services.IssueError
	stage := ""
	if errors.As(err, &issueErr) {
		stage = string(issueErr.Stage)
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.NewNotFoundError(err.Error()))
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, models.ErrInvalidDraft),
		services.KindOf(err) == services.KindInvalidInput:
		resp := models.NewValidationError(err.Error(), nil)
		resp.Error.Stage = stage
		c.JSON(http.StatusBadRequest, resp)
	case services.KindOf(err) == services.KindConflict:
		c.JSON(http.StatusConflict, models.NewConflictError(err.Error()))
	case services.KindOf(err) == services.KindCanceled:
		c.JSON(http.StatusRequestTimeout, models.NewUpstreamError("Request canceled", stage))
	case services.KindOf(err) == services.KindRenderFailure:
		api.logger.WithError(err).Error(message)
		resp := models.NewInternalError(message)
		resp.Error.Stage = stage
		c.JSON(http.StatusInternalServerError, resp)
	case issueErr != nil:
		api.logger.WithError(err).Error(message)
		c.JSON(http.StatusBadGateway, models.NewUpstreamError(message, stage))
	default:
		api.logger.WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, models.NewInternalError(message))
	}
}

func actorID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(actorKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
