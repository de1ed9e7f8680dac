package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxUpload bounds the accepted JSON body.
const maxUpload = 10 << 20

// uploadJSON accepts a multipart "file" field holding a .json document and returns its parsed content.
// Nothing is persisted; the id only identifies the receipt in the logs.
func uploadJSON(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"erro": "nenhum arquivo enviado no campo 'file'"})
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".json") {
		return c.JSON(http.StatusBadRequest, map[string]any{"erro": "o arquivo deve ter extensão .json"})
	}
	if fh.Size > maxUpload {
		return c.JSON(http.StatusBadRequest, map[string]any{"erro": "arquivo muito grande"})
	}

	f, err := fh.Open()
	if err != nil {
		slog.Error("upload.open.error", "file", fh.Filename, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"erro": "falha ao ler o arquivo: " + err.Error()})
	}
	defer f.Close()

	var content any
	dec := json.NewDecoder(f)
	if err := dec.Decode(&content); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"erro": "JSON inválido: " + err.Error()})
	}
	// one document per file
	if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
		return c.JSON(http.StatusBadRequest, map[string]any{"erro": "JSON inválido: conteúdo após o documento"})
	}

	id := uuid.NewString()
	slog.Info("upload.json.received", "id", id, "file", fh.Filename, "bytes", fh.Size)
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"id":       id,
		"arquivo":  fh.Filename,
		"conteudo": content,
	})
}
