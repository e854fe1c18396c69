package extraction

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const responseSchemaJSON = `{
  "type": "object",
  "properties": {
    "documents": {"type": ["array", "null"], "items": {"$ref": "#/$defs/document"}}
  },
  "$defs": {
    "document": {
      "type": "object",
      "properties": {
        "fields": {"type": ["array", "null"], "items": {"$ref": "#/$defs/field"}},
        "text_blocks": {"type": ["array", "null"], "items": {"$ref": "#/$defs/block"}}
      }
    },
    "field": {
      "type": "object",
      "properties": {
        "label": {"type": ["string", "null"]},
        "value": {"type": ["string", "null"]},
        "type_tag": {"type": ["string", "null"]},
        "confidence": {"type": ["number", "null"]}
      }
    },
    "block": {
      "type": "object",
      "properties": {
        "text": {"type": ["string", "null"]}
      }
    }
  }
}`

// textractSchemaJSON covers the subset of an AnalyzeExpense response that
// extraction reads
const textractSchemaJSON = `{
  "type": "object",
  "properties": {
    "ExpenseDocuments": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "SummaryFields": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "properties": {
                "Type": {"$ref": "#/$defs/detection"},
                "LabelDetection": {"$ref": "#/$defs/detection"},
                "ValueDetection": {"$ref": "#/$defs/detection"}
              }
            }
          },
          "Blocks": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "properties": {
                "Text": {"type": ["string", "null"]}
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "detection": {
      "type": ["object", "null"],
      "properties": {
        "Text": {"type": ["string", "null"]},
        "Confidence": {"type": ["number", "null"]}
      }
    }
  }
}`

var (
	responseSchema = jsonschema.MustCompileString("response.schema.json", responseSchemaJSON)
	textractSchema = jsonschema.MustCompileString("textract.schema.json", textractSchemaJSON)
)

type textractDetection struct {
	Text       string  `json:"Text"`
	Confidence float64 `json:"Confidence"`
}

type textractField struct {
	Type           *textractDetection `json:"Type"`
	LabelDetection *textractDetection `json:"LabelDetection"`
	ValueDetection *textractDetection `json:"ValueDetection"`
}

type textractBlock struct {
	Text string `json:"Text"`
}

type textractPayload struct {
	ExpenseDocuments []struct {
		SummaryFields []textractField `json:"SummaryFields"`
		Blocks        []textractBlock `json:"Blocks"`
	} `json:"ExpenseDocuments"`
}

// Decode parses a provider payload. Both the native shape
// ({"documents": [{"fields": [...], "text_blocks": [...]}]}) and a Textract
// AnalyzeExpense response are accepted. Missing collections decode as empty;
// anything not navigable is an *InputError.
func Decode(data []byte) (*Response, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &InputError{Reason: "malformed JSON", Cause: err}
	}
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, &InputError{Reason: "top level is not an object"}
	}

	if _, ok := obj["ExpenseDocuments"]; ok {
		return decodeTextract(data, doc)
	}

	if err := responseSchema.Validate(doc); err != nil {
		return nil, &InputError{Reason: "unexpected shape", Cause: err}
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &InputError{Reason: "decoding response", Cause: err}
	}
	return &resp, nil
}

func decodeTextract(data []byte, doc interface{}) (*Response, error) {
	if err := textractSchema.Validate(doc); err != nil {
		return nil, &InputError{Reason: "unexpected textract shape", Cause: err}
	}
	var payload textractPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &InputError{Reason: "decoding textract response", Cause: err}
	}

	resp := &Response{Documents: make([]Document, 0, len(payload.ExpenseDocuments))}
	for _, ed := range payload.ExpenseDocuments {
		d := Document{
			Fields:     make([]ObservedField, 0, len(ed.SummaryFields)),
			TextBlocks: make([]TextBlock, 0, len(ed.Blocks)),
		}
		for _, sf := range ed.SummaryFields {
			f := ObservedField{}
			if sf.Type != nil {
				f.TypeTag = sf.Type.Text
				f.Confidence = sf.Type.Confidence
			}
			if sf.LabelDetection != nil {
				f.Label = sf.LabelDetection.Text
			}
			if sf.ValueDetection != nil {
				f.Value = sf.ValueDetection.Text
			}
			d.Fields = append(d.Fields, f)
		}
		for _, b := range ed.Blocks {
			d.TextBlocks = append(d.TextBlocks, TextBlock{Text: b.Text})
		}
		resp.Documents = append(resp.Documents, d)
	}
	return resp, nil
}
