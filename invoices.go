package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/invoice_backend/config"
	"github.com/mmdatafocus/invoice_backend/models"
	"github.com/mmdatafocus/invoice_backend/models/reports"
	"github.com/mmdatafocus/invoice_backend/utils"
)

func (app *App) listInvoicesHandler(c *gin.Context) {
	invoices, err := app.Service.ListInvoices(c.Request.Context())
	if err != nil {
		app.respondError(c, "listInvoices", err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (app *App) getInvoiceHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	inv, err := app.Service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		app.respondError(c, "getInvoice", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (app *App) createInvoiceHandler(c *gin.Context) {
	var input models.NewInvoice
	if !bindJSON(c, &input) {
		return
	}
	inv, err := app.Service.CreateInvoice(c.Request.Context(), &input)
	if err != nil {
		app.respondError(c, "createInvoice", err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (app *App) updateInvoiceHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	existing, err := app.Service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		app.respondError(c, "updateInvoice", err)
		return
	}
	patch, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	input := existing.Input()
	if err := input.Merge(patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	inv, err := app.Service.UpdateInvoice(c.Request.Context(), id, input)
	if err != nil {
		app.respondError(c, "updateInvoice", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (app *App) deleteInvoiceHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := app.Service.DeleteInvoice(c.Request.Context(), id); err != nil {
		app.respondError(c, "deleteInvoice", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *App) exportInvoicesHandler(c *gin.Context) {
	invoices, err := app.Service.ListInvoices(c.Request.Context())
	if err != nil {
		app.respondError(c, "exportInvoices", err)
		return
	}
	f, err := reports.ExportInvoicesExcel(invoices)
	if err != nil {
		app.respondError(c, "exportInvoices", err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// paramID parses the :id path segment, answering 404 when it is not a
// positive integer.
func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": utils.ErrorRecordNotFound.Error()})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// respondError maps service errors onto status codes. Only unexpected
// errors are logged; their cause never reaches the client.
func (app *App) respondError(c *gin.Context, funcName string, err error) {
	if verr, ok := utils.IsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
		return
	}
	if errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": utils.ErrorRecordNotFound.Error()})
		return
	}
	config.LogError(app.Logger, "api", funcName, c.Request.Method+" "+c.FullPath(), nil, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
