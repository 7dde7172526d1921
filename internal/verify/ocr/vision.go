package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "idmatch/pkg/errors"
)

// VisionClient calls the Google Cloud Vision images:annotate REST endpoint
// with an API key.
type VisionClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewVisionClient builds a client against endpoint (no trailing slash
// needed) authenticating with apiKey.
func NewVisionClient(endpoint, apiKey string, timeout time.Duration) *VisionClient {
	return &VisionClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type annotateRequest struct {
	Requests []annotateRequestEntry `json:"requests"`
}

type annotateRequestEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	Content string `json:"content"`
}

type annotateFeature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description  string `json:"description"`
			BoundingPoly struct {
				Vertices []struct {
					X int `json:"x"`
					Y int `json:"y"`
				} `json:"vertices"`
			} `json:"boundingPoly"`
		} `json:"textAnnotations"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// DetectText runs DOCUMENT_TEXT_DETECTION on the image.
func (c *VisionClient) DetectText(ctx context.Context, image []byte) (Annotation, error) {
	if len(image) == 0 {
		return Annotation{}, pkgerrors.New(pkgerrors.CodeBadRequest, "image is empty")
	}

	payload := annotateRequest{
		Requests: []annotateRequestEntry{{
			Image:    annotateImage{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []annotateFeature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Annotation{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "encode annotate request")
	}

	url := fmt.Sprintf("%s/v1/images:annotate?key=%s", c.endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Annotation{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "build annotate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Annotation{}, pkgerrors.Wrap(err, pkgerrors.CodeUnavailable, "call vision API")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return Annotation{}, pkgerrors.Wrap(err, pkgerrors.CodeUnavailable, "read vision response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Annotation{}, pkgerrors.Newf(pkgerrors.CodeBadRequest,
			"vision API rejected credentials (status %d)", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Annotation{}, pkgerrors.Newf(pkgerrors.CodeUnavailable,
			"vision API status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var decoded annotateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return Annotation{}, pkgerrors.Wrap(err, pkgerrors.CodeUnavailable, "decode vision response")
	}
	if len(decoded.Responses) == 0 {
		return Annotation{}, pkgerrors.New(pkgerrors.CodeUnavailable, "vision API returned no responses")
	}

	first := decoded.Responses[0]
	if first.Error.Message != "" {
		return Annotation{}, pkgerrors.Newf(pkgerrors.CodeUnavailable,
			"vision API error: %s", first.Error.Message)
	}
	if len(first.TextAnnotations) == 0 {
		// A readable but text-free image is not an error; extraction
		// just finds nothing.
		return Annotation{}, nil
	}

	ann := Annotation{Text: first.TextAnnotations[0].Description}
	for _, v := range first.TextAnnotations[0].BoundingPoly.Vertices {
		ann.Vertices = append(ann.Vertices, Vertex{X: v.X, Y: v.Y})
	}
	return ann, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
