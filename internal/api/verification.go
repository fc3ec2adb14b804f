package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"haul/internal/domain"
)

// Upload is one document image attached to a verification request.
type Upload struct {
	Type domain.DocumentType
	Data io.Reader
}

// SubmitVerification uploads the driver's documents as a multipart form.
// Each part is named after its document type.
func (c *Client) SubmitVerification(ctx context.Context, uploads []Upload) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, u := range uploads {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="%s.jpg"`, u.Type, u.Type))
		h.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("create part %s: %w", u.Type, err)
		}
		if _, err := io.Copy(part, u.Data); err != nil {
			return fmt.Errorf("copy %s: %w", u.Type, err)
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/users/verification", nil, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.send(req, nil)
}
