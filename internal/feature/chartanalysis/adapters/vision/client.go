// Package vision はGoogle Cloud Vision APIを使用したチャート内の文字検出クライアントを提供します。
package vision

import (
	"context"
	"fmt"
	"strings"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/usecase"
)

// TextDetector はVision APIのTEXT_DETECTIONでチャート上の文字（銘柄名・指標名・価格軸）を読み取ります。
type TextDetector struct {
	client *gvision.ImageAnnotatorClient
}

// TextDetectorがTextHinterを実装していることをコンパイル時に検証します。
var _ usecase.TextHinter = (*TextDetector)(nil)

// NewTextDetector はADCを使用してTextDetectorの新しいインスタンスを生成します。
func NewTextDetector(ctx context.Context) (*TextDetector, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &TextDetector{client: client}, nil
}

// Close はVision APIクライアントを解放します。
func (v *TextDetector) Close() error {
	return v.client.Close()
}

// DetectText は画像内の文字を検出します。文字がない場合は空文字列を返します。
func (v *TextDetector) DetectText(ctx context.Context, image []byte) (string, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision API request failed: %w", err)
	}
	return extractText(resp)
}

// extractText は全文注釈を優先し、なければ最初の文字注釈を使います。
func extractText(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	if resp == nil || len(resp.Responses) == 0 {
		return "", nil
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return "", fmt.Errorf("vision API error: %s", r.Error.Message)
	}
	if fa := r.FullTextAnnotation; fa != nil && strings.TrimSpace(fa.Text) != "" {
		return strings.TrimSpace(fa.Text), nil
	}
	if len(r.TextAnnotations) > 0 {
		return strings.TrimSpace(r.TextAnnotations[0].Description), nil
	}
	return "", nil
}
