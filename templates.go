package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/invoice_backend/models"
)

func (app *App) listTemplatesHandler(c *gin.Context) {
	templates, err := app.Service.ListTemplates(c.Request.Context())
	if err != nil {
		app.respondError(c, "listTemplates", err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (app *App) getTemplateHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	tpl, err := app.Service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		app.respondError(c, "getTemplate", err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (app *App) createTemplateHandler(c *gin.Context) {
	var input models.NewInvoiceTemplate
	if !bindJSON(c, &input) {
		return
	}
	tpl, err := app.Service.CreateTemplate(c.Request.Context(), &input)
	if err != nil {
		app.respondError(c, "createTemplate", err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (app *App) deleteTemplateHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := app.Service.DeleteTemplate(c.Request.Context(), id); err != nil {
		app.respondError(c, "deleteTemplate", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// applyTemplateHandler returns the template as a recomputed, unsaved draft.
func (app *App) applyTemplateHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	draft, err := app.Service.ApplyTemplate(c.Request.Context(), id)
	if err != nil {
		app.respondError(c, "applyTemplate", err)
		return
	}
	c.JSON(http.StatusOK, draft)
}
