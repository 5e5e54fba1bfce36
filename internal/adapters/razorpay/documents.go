package razorpay

import (
	"SabhaPay/internal/core/domain"
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// UploadDocument sends one supporting document as multipart form data.
// Size and MIME constraints are validated by the caller before any bytes
// hit the wire.
func (c *Client) UploadDocument(ctx context.Context, accountID, docType string, doc domain.Document, idemKey string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.FileName))
	header.Set("Content-Type", doc.ContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("could not create multipart section: %w", err)
	}
	if _, err := part.Write(doc.Data); err != nil {
		return fmt.Errorf("could not write document bytes: %w", err)
	}
	if err := writer.WriteField("document_type", docType); err != nil {
		return fmt.Errorf("could not write document_type field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("could not finalize multipart body: %w", err)
	}

	path := "/v2/accounts/" + url.PathEscape(accountID) + "/documents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("could not build upload request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if idemKey != "" {
		req.Header.Set("X-Idempotency-Key", idemKey)
	}

	return c.send(req, "upload_document", nil)
}
