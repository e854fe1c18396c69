package receipt

import (
	"time"

	"github.com/zombor/receipt-sorter/internal/extraction"
)

// Receipt is a processed receipt image and the record extracted from it
type Receipt struct {
	ID              string             `json:"id"`
	ObjectKey       string             `json:"object_key"` // where the image lives after relocation
	ContentType     string             `json:"content_type"`
	Record          *extraction.Record `json:"record"`
	RelocationError string             `json:"relocation_error,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}
