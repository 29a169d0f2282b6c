package procurement

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentKind is the prefix of a document number sequence
type DocumentKind string

const (
	DocumentKindRequisition   DocumentKind = "PR"
	DocumentKindPurchaseOrder DocumentKind = "PO"
)

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// SequenceGenerator hands out gap-free numbers per (tenant, kind, year).
// Implementations must increment atomically inside the caller's transaction.
type SequenceGenerator interface {
	Next(ctx context.Context, tenantID uuid.UUID, kind DocumentKind, year int) (int64, error)
}

var documentNumberPattern = regexp.MustCompile(`^(PR|PO)-(\d{4})-(\d{5,})$`)

// FormatDocumentNumber renders <kind>-<4-digit year>-<5-digit zero-padded sequence>
func FormatDocumentNumber(kind DocumentKind, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%05d", kind, year, seq)
}

// ParseDocumentNumber splits a document number into its parts
func ParseDocumentNumber(number string) (DocumentKind, int, int64, error) {
	m := documentNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return "", 0, 0, shared.NewDomainErrorf(shared.CodeValidation, "Invalid document number %q", number)
	}
	year, _ := strconv.Atoi(m[2])
	seq, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return "", 0, 0, shared.NewDomainErrorf(shared.CodeValidation, "Invalid document number %q", number)
	}
	return DocumentKind(m[1]), year, seq, nil
}

// NextDocumentNumber draws the next sequence value and formats it
func NextDocumentNumber(ctx context.Context, gen SequenceGenerator, tenantID uuid.UUID, kind DocumentKind, year int) (string, error) {
	seq, err := gen.Next(ctx, tenantID, kind, year)
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", kind, err)
	}
	return FormatDocumentNumber(kind, year, seq), nil
}
