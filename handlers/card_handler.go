// handlers/card_handler.go
package handlers

import (
	"io"
	"mime/multipart"
	"strings"

	"inci.cards/middlewares"
	"inci.cards/services"

	"github.com/gofiber/fiber/v2"
)

// CardHandler serves the staged card workflow endpoints.
type CardHandler struct {
	cardService services.ICardService
}

// NewCardHandler builds a CardHandler on the shared card service.
func NewCardHandler(cards services.ICardService) *CardHandler {
	return &CardHandler{cardService: cards}
}

type createCardRequest struct {
	ProductName string `json:"productName"`
	Purpose     string `json:"purpose"`
	Application string `json:"application"`
}

type updateInfoRequest struct {
	Purpose     string `json:"purpose"`
	Application string `json:"application"`
}

type updateNameRequest struct {
	NewName      string `json:"newName"`
	CardFolderID string `json:"cardFolderId"`
}

// CreateCard (POST /api/cards/create) runs stage 1 for the authenticated
// user.
func (h *CardHandler) CreateCard(c *fiber.Ctx) error {
	var req createCardRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, services.ErrCardFieldsRequired)
	}

	claims := middlewares.ClaimsFromCtx(c)
	result, err := h.cardService.CreateCard(c.UserContext(), claims.UserID, req.ProductName, req.Purpose, req.Application)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"cardId":         result.CardID,
		"cardFolderId":   result.CardFolderID,
		"userFolderId":   result.UserFolderID,
		"photosFolderId": result.PhotosFolderID,
		"sheetRow":       result.SheetRow,
		"folderUrl":      result.FolderURL,
	})
}

// UpdateInfo (PATCH /api/cards/:cardId/info) runs stage 2.
func (h *CardHandler) UpdateInfo(c *fiber.Ctx) error {
	var req updateInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, services.ErrInfoFieldsRequired)
	}

	if err := h.cardService.UpdateInfo(c.UserContext(), c.Params("cardId"), req.Purpose, req.Application); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ProcessLabel (POST /api/cards/:cardId/label, multipart) runs stage 3.
func (h *CardHandler) ProcessLabel(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, services.ErrNoFilesUploaded)
	}

	files, err := readFormFiles(form, "labelFile")
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.cardService.ProcessLabel(c.UserContext(),
		c.Params("cardId"),
		formValue(form, "cardFolderId"),
		formValue(form, "productName"),
		files)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"labelLink":     result.LabelLink,
		"labelFileName": result.LabelFileName,
		"labelFiles":    result.LabelFiles,
		"aiSuggestions": result.AISuggestions,
		"labelInfo":     result.LabelInfo,
		"aiAvailable":   result.AIAvailable,
	})
}

// ProcessInci (POST /api/cards/:cardId/inci, multipart) runs stage 4 on
// exactly one document.
func (h *CardHandler) ProcessInci(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, services.ErrNoFilesUploaded)
	}

	if len(form.File["inciFile"]) > 1 {
		return respondError(c, services.ErrSingleFileRequired)
	}
	files, err := readFormFiles(form, "inciFile")
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.cardService.ProcessInci(c.UserContext(),
		c.Params("cardId"),
		formValue(form, "cardFolderId"),
		formValue(form, "productName"),
		formValue(form, "purpose"),
		files[0])
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"inciLink":     result.InciLink,
		"inciFileName": result.InciFileName,
		"aiResults":    result.AIResults,
		"aiAvailable":  result.AIAvailable,
	})
}

// UploadPhotos (POST /api/cards/:cardId/photos, multipart) runs stage 5.
func (h *CardHandler) UploadPhotos(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, services.ErrNoFilesUploaded)
	}

	files, err := readFormFiles(form, "photos")
	if err != nil {
		return respondError(c, err)
	}

	uploaded, err := h.cardService.UploadPhotos(c.UserContext(),
		c.Params("cardId"),
		formValue(form, "photosFolderId"),
		files)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"uploadedPhotos": uploaded,
		"count":          len(uploaded),
	})
}

// UpdateName (PATCH /api/cards/:cardId/name) renames the product in the
// sheet and the card folder in Drive.
func (h *CardHandler) UpdateName(c *fiber.Ctx) error {
	var req updateNameRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, services.ErrNameRequiredField)
	}

	folderName, err := h.cardService.UpdateName(c.UserContext(), c.Params("cardId"), req.NewName, req.CardFolderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"newName":       req.NewName,
		"newFolderName": folderName,
	})
}

// readFormFiles loads every file under key into memory, enforcing the
// per-file size cap and the PDF/image allow-list.
func readFormFiles(form *multipart.Form, key string) ([]services.FilePayload, error) {
	headers := form.File[key]
	if len(headers) == 0 {
		return nil, services.ErrNoFilesUploaded
	}
	if len(headers) > services.MaxFilesPerUpload {
		return nil, services.ErrTooManyFiles
	}

	payloads := make([]services.FilePayload, 0, len(headers))
	for _, header := range headers {
		if header.Size > services.MaxFileSize {
			return nil, services.ErrFileTooLarge
		}
		mimeType := header.Header.Get(fiber.HeaderContentType)
		if mimeType != "application/pdf" && !strings.HasPrefix(mimeType, "image/") {
			return nil, services.ErrUnsupportedFile
		}

		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, services.FilePayload{
			Filename: header.Filename,
			MimeType: mimeType,
			Data:     data,
		})
	}
	return payloads, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
