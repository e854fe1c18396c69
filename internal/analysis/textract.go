package analysis

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/zombor/receipt-sorter/internal/extraction"
)

// TextractAPI is the subset of the Textract client used for receipts
type TextractAPI interface {
	AnalyzeExpense(ctx context.Context, params *textract.AnalyzeExpenseInput, optFns ...func(*textract.Options)) (*textract.AnalyzeExpenseOutput, error)
}

// Textract implements the Analyzer interface using AWS Textract AnalyzeExpense
type Textract struct {
	client TextractAPI
}

// NewTextract loads the default AWS configuration and creates a Textract
// Analyzer. An empty region keeps the one from the environment.
func NewTextract(ctx context.Context, region string) (*Textract, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return NewTextractWithClient(textract.NewFromConfig(cfg)), nil
}

// NewTextractWithClient creates a Textract Analyzer around an existing client
func NewTextractWithClient(client TextractAPI) *Textract {
	return &Textract{client: client}
}

// Analyze runs AnalyzeExpense on the receipt
func (t *Textract) Analyze(ctx context.Context, imageData []byte, contentType string) (*extraction.Response, error) {
	finalImageData, _, err := prepareForTextract(imageData, contentType)
	if err != nil {
		return nil, err
	}

	out, err := t.client.AnalyzeExpense(ctx, &textract.AnalyzeExpenseInput{
		Document: &types.Document{Bytes: finalImageData},
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing expense: %w", err)
	}

	return expenseResponse(out), nil
}

// Close is a no-op, the SDK client holds no resources
func (t *Textract) Close() error {
	return nil
}

// expenseResponse converts the SDK output into the provider-neutral shape.
// Field confidence comes from the type detection.
func expenseResponse(out *textract.AnalyzeExpenseOutput) *extraction.Response {
	resp := &extraction.Response{Documents: make([]extraction.Document, 0, len(out.ExpenseDocuments))}

	for _, ed := range out.ExpenseDocuments {
		doc := extraction.Document{
			Fields:     make([]extraction.ObservedField, 0, len(ed.SummaryFields)),
			TextBlocks: make([]extraction.TextBlock, 0, len(ed.Blocks)),
		}

		for _, sf := range ed.SummaryFields {
			var f extraction.ObservedField
			if sf.Type != nil {
				f.TypeTag = aws.ToString(sf.Type.Text)
				f.Confidence = float64(aws.ToFloat32(sf.Type.Confidence))
			}
			if sf.LabelDetection != nil {
				f.Label = aws.ToString(sf.LabelDetection.Text)
			}
			if sf.ValueDetection != nil {
				f.Value = aws.ToString(sf.ValueDetection.Text)
			}
			doc.Fields = append(doc.Fields, f)
		}

		for _, b := range ed.Blocks {
			doc.TextBlocks = append(doc.TextBlocks, extraction.TextBlock{Text: aws.ToString(b.Text)})
		}

		resp.Documents = append(resp.Documents, doc)
	}

	return resp
}
