package main

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/invoice_backend/models"
	"github.com/mmdatafocus/invoice_backend/render"
)

func (app *App) invoicePDFHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	inv, err := app.Service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		app.respondError(c, "invoicePDF", err)
		return
	}
	app.writePDF(c, "invoicePDF", inv.RenderView())
}

// draftPDFHandler renders an unsaved draft. Totals are recomputed from the
// posted items; the draft is not validated.
func (app *App) draftPDFHandler(c *gin.Context) {
	var input models.NewInvoice
	if !bindJSON(c, &input) {
		return
	}
	draft := models.DraftFromInput(input)
	app.writePDF(c, "draftPDF", draft.RenderView())
}

func (app *App) draftTotalsHandler(c *gin.Context) {
	var input models.NewInvoice
	if !bindJSON(c, &input) {
		return
	}
	draft := models.DraftFromInput(input)
	c.JSON(http.StatusOK, draft)
}

func (app *App) writePDF(c *gin.Context, funcName string, view *render.Invoice) {
	doc, err := app.Renderer.Render(c.Request.Context(), view)
	if err != nil {
		if c.Request.Context().Err() != nil {
			// client went away; nothing to answer
			c.Abort()
			return
		}
		app.respondError(c, funcName, err)
		return
	}
	var buf bytes.Buffer
	if err := render.WritePDF(doc, &buf); err != nil {
		app.respondError(c, funcName, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
